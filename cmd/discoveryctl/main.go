// Command discoveryctl inspects the technique catalog and runs discovery sessions from a terminal.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"ai-discovery-be/internal/config"
	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/technique"

	"github.com/spf13/cobra"
)

var (
	seed    int64
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:           "discoveryctl",
	Short:         "Discovery agent toolbox",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Seed for random technique selection (0 uses the clock)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print JSON instead of text")

	rootCmd.AddCommand(techniquesCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newResolver() *facilitation.Resolver {
	s := seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	return facilitation.NewResolver(technique.Default(), rand.New(rand.NewSource(s)))
}

func loadConfig() *config.Config {
	return config.Load()
}
