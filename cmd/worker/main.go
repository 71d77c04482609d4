// Summary review worker: fetches a session's transcript, summarizes it,
// and loops through a human accept/reject/edit cycle before saving.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/scopetalk/scopetalk/internal/config"
	"github.com/scopetalk/scopetalk/internal/flow"
	"github.com/scopetalk/scopetalk/internal/genai"
	"github.com/scopetalk/scopetalk/internal/summary"
	"github.com/scopetalk/scopetalk/internal/transcript"
)

// stdinReviewer prompts the operator on the terminal for each candidate
// summary.
type stdinReviewer struct {
	in  *bufio.Reader
	out *os.File
}

func newStdinReviewer() *stdinReviewer {
	return &stdinReviewer{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (r *stdinReviewer) Review(_ context.Context, sessionID, summaryText string) (string, string, error) {
	fmt.Fprintf(r.out, "\n--- Summary for session %s ---\n\n%s\n\n", sessionID, summaryText)
	for {
		fmt.Fprint(r.out, "[a]ccept / [r]eject with feedback / [e]dit: ")
		line, err := r.in.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("read decision: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "accept":
			return flow.DecisionAccept, "", nil
		case "r", "reject":
			fmt.Fprint(r.out, "Feedback: ")
			feedback, err := r.in.ReadString('\n')
			if err != nil {
				return "", "", fmt.Errorf("read feedback: %w", err)
			}
			return flow.DecisionReject, strings.TrimSpace(feedback), nil
		case "e", "edit":
			fmt.Fprintln(r.out, "Replacement summary (end with a single '.' line):")
			var sb strings.Builder
			for {
				text, err := r.in.ReadString('\n')
				if err != nil {
					return "", "", fmt.Errorf("read edit: %w", err)
				}
				if strings.TrimSpace(text) == "." {
					break
				}
				sb.WriteString(text)
			}
			return flow.DecisionEdit, strings.TrimSpace(sb.String()), nil
		}
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <session_id>\n", os.Args[0])
		os.Exit(1)
	}
	sessionID := os.Args[1]

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	durable, err := transcript.NewSupabaseStore(cfg.Storage.URL, cfg.Storage.Key, cfg.Storage.Bucket)
	if err != nil {
		slog.Error("Failed to initialize transcript store", "error", err)
		os.Exit(1)
	}

	engine, err := genai.NewClient(cfg.Engine.APIKey, cfg.Engine.Model, cfg.Engine.Temperature)
	if err != nil {
		slog.Error("Failed to initialize generation engine client", "error", err)
		os.Exit(1)
	}

	summaries := summary.NewService(engine)
	pipeline := flow.NewSummaryPipeline(durable, summaries, durable, newStdinReviewer())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting summary review pipeline", "session_id", sessionID)

	state, err := pipeline.Run(ctx, flow.PipelineState{SessionID: sessionID})
	if err != nil {
		slog.Error("Pipeline failed", "session_id", sessionID, "iteration", state.Iteration, "error", err)
		os.Exit(1)
	}

	slog.Info("Summary saved", "session_id", sessionID, "iterations", state.Iteration)
	fmt.Printf("\nFinal summary saved for session %s after %d iteration(s).\n", sessionID, state.Iteration)
}
