package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/repository/memory"
	"ai-discovery-be/internal/service"
	"ai-discovery-be/pkg/agent"
	"ai-discovery-be/pkg/llm/factory"
	"ai-discovery-be/pkg/technique"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <command> [problem statement]",
	Short: "Run an interactive discovery session against the configured LLM",
	Long: `Start a discovery session in memory and chat with it.

The first argument is the role command (/brainstorm, /analyst, /pm, /architect,
/validator). Type /quit to leave, /end to close the session.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	provider, err := factory.NewLLMProvider(ctx, factory.Config{
		Provider:    cfg.Ai.LLMProvider,
		Model:       cfg.Ai.LLMModel,
		BaseURL:     cfg.Ai.BaseURL,
		APIKey:      cfg.Ai.APIKey,
		Temperature: cfg.Ai.Temperature,
	})
	if err != nil {
		return err
	}

	svc := service.NewDiscoveryService(
		memory.NewStore(),
		memory.NewRunnerRegistry(0),
		agent.NewLLMBuilder(provider, newResolver()),
		technique.Default(),
		nil,
		nil,
		logger.NewNopLogger(),
	)

	return chatLoop(ctx, svc, cmd.InOrStdin(), cmd.OutOrStdout(), args[0], strings.Join(args[1:], " "))
}

func chatLoop(ctx context.Context, svc service.IDiscoveryService, in io.Reader, out io.Writer, command, problem string) error {
	userID := uuid.New()

	started, err := svc.StartSession(ctx, userID, &dto.StartSessionRequest{Command: command, Args: problem})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n\n", started.Response)
	if started.SessionId == nil {
		return nil
	}
	sessionID := *started.SessionId

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/end":
			session, err := svc.CloseSession(ctx, userID, sessionID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Session %s %s after %d messages.\n", session.Title, session.Status, session.MessageCount)
			return nil
		}

		res, err := svc.ContinueSession(ctx, userID, sessionID, &dto.ContinueSessionRequest{Message: line})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "%s\n\n[%s] next: %s\n\n", res.Response, res.Phase, strings.Join(res.NextSteps, "; "))
	}
}
