package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lakitu0/lakitu/internal/app"
	"github.com/lakitu0/lakitu/internal/chat"
	"github.com/lakitu0/lakitu/internal/session"
	"github.com/lakitu0/lakitu/internal/tui"
)

var (
	chatSessionID string
	chatNew       bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start interactive chat",
	Long: `Start the interactive terminal chat. Conversation history is kept in
the session; the assistant detects your game from messages, running
processes, and recent screenshots.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume an existing session by ID")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "start a fresh session")
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	sessionID, err := resolveChatSession(ctx, a)
	if err != nil {
		return err
	}

	flow := chat.NewFlow(a.Genkit, a.Agent)

	model, err := tui.New(ctx, flow, sessionID)
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}

// resolveChatSession picks the session to chat in: the --session flag,
// the most recent session, or a new one.
func resolveChatSession(ctx context.Context, a *app.App) (uuid.UUID, error) {
	if chatSessionID != "" {
		id, err := uuid.Parse(chatSessionID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid session ID %q: %w", chatSessionID, err)
		}
		if _, err := a.Sessions.Get(ctx, id); err != nil {
			return uuid.Nil, fmt.Errorf("resuming session: %w", err)
		}
		return id, nil
	}

	if !chatNew {
		sessions, err := a.Sessions.List(ctx, 1, 0)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("listing sessions: %w", err)
		}
		if len(sessions) > 0 {
			return sessions[0].ID, nil
		}
	}

	sess, err := a.Sessions.Create(ctx, "", a.Config.ModelName, "")
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating session: %w", err)
	}
	return sess.ID, nil
}
