package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lakitu0/lakitu/internal/app"
	"github.com/lakitu0/lakitu/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		sessions, err := a.Sessions.List(ctx, 100, 0)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions yet. Start one with: lakitu chat")
			return nil
		}

		for _, sess := range sessions {
			title := sess.Title
			if title == "" {
				title = "(untitled)"
			}
			game := sess.Game
			if game == "" {
				game = "-"
			}
			fmt.Printf("%s  %-12s %-40s updated %s\n",
				sess.ID, game, title, formatTime(sess.UpdatedAt))
		}
		return nil
	})
}

func runSessionsShow(_ *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid session ID: %s", args[0])
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		sess, err := a.Sessions.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("getting session: %w", err)
		}

		messages, err := a.Sessions.History(ctx, id, 0)
		if err != nil {
			return fmt.Errorf("getting messages: %w", err)
		}

		fmt.Printf("Session ID: %s\n", sess.ID)
		fmt.Printf("Title: %s\n", sess.Title)
		if sess.Game != "" {
			fmt.Printf("Game: %s\n", sess.Game)
		}
		fmt.Printf("Created: %s\n", formatTime(sess.CreatedAt))
		fmt.Printf("Updated: %s\n", formatTime(sess.UpdatedAt))
		fmt.Printf("Messages: %d\n", len(messages))
		fmt.Println()
		fmt.Println("───────────────────────────────────────")
		fmt.Println()

		for _, msg := range messages {
			role := "You"
			if msg.Role == session.RoleAssistant {
				role = "Lakitu"
			}
			fmt.Printf("%s> %s\n", role, msg.Content)
			fmt.Println()
		}
		return nil
	})
}

func runSessionsDelete(_ *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid session ID: %s", args[0])
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		if err := a.Sessions.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
		fmt.Printf("Deleted session %s\n", id)
		return nil
	})
}

// formatTime formats time in a human-readable relative format.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
