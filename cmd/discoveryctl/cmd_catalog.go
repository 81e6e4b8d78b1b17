package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/ideas"
	"ai-discovery-be/pkg/technique"

	"github.com/spf13/cobra"
)

var techniquesCmd = &cobra.Command{
	Use:   "techniques",
	Short: "List the brainstorming technique catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printTechniques(cmd.OutOrStdout(), technique.Default())
	},
}

var selectCmd = &cobra.Command{
	Use:   "select <input>",
	Short: "Dry-run technique selection for an input such as \"2\", \"3,7\" or \"random\"",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := newResolver().Select(facilitation.NewState(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(cmd.OutOrStdout(), sel)
		}
		fmt.Fprintln(cmd.OutOrStdout(), sel.Message)
		return nil
	},
}

var (
	scoreDescription string
	scoreTags        []string
	scoreConfidence  int
)

var scoreCmd = &cobra.Command{
	Use:   "score <title>",
	Short: "Score an idea with the default weights",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger := ideas.NewLedger()
		idea, err := ledger.Save(ideas.Draft{
			Title:       strings.Join(args, " "),
			Description: scoreDescription,
			Tags:        scoreTags,
			Confidence:  scoreConfidence,
		})
		if err != nil {
			return err
		}
		score, err := ledger.Score(idea.ID, ideas.DefaultWeights)
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(cmd.OutOrStdout(), score)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Impact\t%.1f\t%s\n", score.Impact, score.Reasoning.Impact)
		fmt.Fprintf(w, "Feasibility\t%.1f\t%s\n", score.Feasibility, score.Reasoning.Feasibility)
		fmt.Fprintf(w, "Effort\t%.1f\t%s\n", score.Effort, score.Reasoning.Effort)
		fmt.Fprintf(w, "Priority\t%.1f\t\n", score.Priority)
		return w.Flush()
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreDescription, "description", "d", "", "Idea description")
	scoreCmd.Flags().StringSliceVarP(&scoreTags, "tag", "t", nil, "Idea tags (repeatable)")
	scoreCmd.Flags().IntVar(&scoreConfidence, "confidence", 0, "Confidence 1-10")
}

func printTechniques(out io.Writer, catalog *technique.Catalog) error {
	if jsonOut {
		return writeJSON(out, catalog.All())
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tKEY\tNAME\tDESCRIPTION")
	for _, t := range catalog.All() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.Ordinal, t.Key, t.Name, t.Description)
	}
	return w.Flush()
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
