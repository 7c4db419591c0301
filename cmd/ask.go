package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var askScreenshot string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question",
	Long: `Ask a single question and print the rendered answer. A new session is
created for the exchange so it appears in the session history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askScreenshot, "image", "", "attach a PNG image file to the question")
	rootCmd.AddCommand(askCmd)
}

func runAsk(_ *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question is empty")
	}

	var image []byte
	if askScreenshot != "" {
		image, err = os.ReadFile(askScreenshot)
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}
	}

	sess, err := a.Sessions.Create(ctx, a.Agent.GenerateTitle(ctx, question), a.Config.ModelName, "")
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	resp, err := a.Agent.Execute(ctx, sess.ID, question, image)
	if err != nil {
		return fmt.Errorf("generating answer: %w", err)
	}

	fmt.Println(renderMarkdown(resp.FinalText))
	return nil
}

// renderMarkdown renders answer text for the terminal, falling back to
// plain text when glamour is unavailable.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSuffix(out, "\n")
}
