package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/pkg/events"

	pktNats "ai-discovery-be/pkg/nats"

	"github.com/spf13/cobra"
)

var (
	logsLevel  string
	logsModule string
	logsLimit  int
	logsFile   string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent structured log entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := logsFile
		if path == "" {
			path = loadConfig().App.LogFilePath
		}
		entries, err := logger.ReadLogs(path, logsLevel, logsModule, logsLimit)
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(cmd.OutOrStdout(), entries)
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-5s %-10s %s %v\n", e.Timestamp, e.Level, e.Module, e.Message, e.Details)
		}
		return nil
	},
}

var watchSubject string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow discovery session events on NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if cfg.App.NatsURL == "" {
			return fmt.Errorf("NATS_URL is not set")
		}

		sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, logger.NewNopLogger())
		if err != nil {
			return err
		}
		defer sub.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		err = sub.Subscribe(ctx, watchSubject, "", func(_ context.Context, event events.Event) error {
			fmt.Fprintf(out, "%s %s %v\n", event.Timestamp().Format("15:04:05"), event.EventType(), event.Payload())
			return nil
		})
		if err != nil {
			return err
		}

		<-ctx.Done()
		return nil
	},
}

func init() {
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by level (debug, info, warn, error)")
	logsCmd.Flags().StringVar(&logsModule, "module", "", "Filter by module")
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 50, "Maximum entries")
	logsCmd.Flags().StringVar(&logsFile, "file", "", "Log file (defaults to LOG_FILE_PATH)")

	watchCmd.Flags().StringVar(&watchSubject, "subject", "events.>", "Subject filter")
}
