// Package cmd provides the lakitu CLI commands.
//
// Commands:
//   - chat: interactive terminal chat with Bubble Tea TUI
//   - ask: one-shot question with rendered Markdown answer
//   - serve: HTTP API server with SSE streaming
//   - mcp: Model Context Protocol server for external clients
//   - capture: background screenshot capture daemon
//   - knowledge, games, sessions: data management
//
// All long-running commands handle SIGINT/SIGTERM via context
// cancellation for graceful shutdown.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lakitu0/lakitu/internal/app"
	"github.com/lakitu0/lakitu/internal/config"
	"github.com/lakitu0/lakitu/internal/log"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "lakitu",
	Short: "Lakitu - AI gaming assistant for your terminal",
	Long: `Lakitu is an AI gaming assistant. It answers questions about the game
you are playing, grounded in ingested wiki, video, and forum knowledge,
and can watch your screen through an encrypted screenshot archive.

Running lakitu without a subcommand starts the interactive chat.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute is the entry point called from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// newLogger builds the process logger. Output goes to stderr so stdout
// stays clean for command output and the MCP JSON-RPC transport.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if debugFlag || os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

// checkRequiredEnv verifies the Gemini API key is present before any
// model or embedder call can fail with a confusing error.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Lakitu requires a Gemini API key to function.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}

// setupApp loads configuration and wires the application container.
// Callers must Close the returned App.
func setupApp(ctx context.Context) (*app.App, error) {
	if err := checkRequiredEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger()
	slog.SetDefault(logger)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, nil
}

// loadConfigOnly loads configuration without connecting to anything,
// for commands that only touch local files.
func loadConfigOnly() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// closeApp closes the container, logging rather than failing on error.
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Warn("shutdown error", "error", err)
	}
}
