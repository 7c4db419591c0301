package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lakitu0/lakitu/internal/knowledge"
	"github.com/lakitu0/lakitu/internal/screenshot"
)

// knowledgeTopK bounds how many knowledge chunks are injected per turn.
const knowledgeTopK = 3

// contentPreviewRunes caps how much of each chunk appears in the prompt.
const contentPreviewRunes = 200

// screenshotKeywordRe triggers screenshot context injection. Matched on
// word boundaries so short keywords do not fire inside other words.
var screenshotKeywordRe = regexp.MustCompile(`(?i)\b(screenshot|screen|capture|git|visual|see|show me)\b`)

// visionPreamble is appended to the user message when a live screenshot
// accompanies the request.
const visionPreamble = `LIVE SCREENSHOT PROVIDED: I can see a screenshot that the user just captured.
Please analyze this image in the context of gaming and provide specific, actionable advice based on what you can see.
Focus on game mechanics, strategies, UI elements, or any gaming-related aspects visible in the screenshot.`

// wantsScreenshotContext reports whether the message asks about
// captured screenshots.
func wantsScreenshotContext(message string) bool {
	return screenshotKeywordRe.MatchString(message)
}

// groundMessage enriches the raw user message with detected-game and
// knowledge-base context before it reaches the model. Grounding is best
// effort: lookup failures degrade to the plain message.
func (a *Agent) groundMessage(ctx context.Context, message, game string, hasImage bool) string {
	var b strings.Builder
	b.WriteString(message)

	switch {
	case hasImage:
		// The image itself is the context; skip retrieval.
		b.WriteString("\n\n")
		b.WriteString(visionPreamble)
		writeGameLine(&b, game)
	case wantsScreenshotContext(message):
		// Capture-history questions get screenshot context only; the game
		// line is reserved for the image and knowledge paths.
		if sctx := a.screenshotContext(ctx); sctx != "" {
			b.WriteString("\n\n")
			b.WriteString(sctx)
		}
	case game != "":
		writeGameLine(&b, game)
		if kctx := a.knowledgeContext(ctx, game, message); kctx != "" {
			b.WriteString(kctx)
		}
	}

	return b.String()
}

func writeGameLine(b *strings.Builder, game string) {
	if game != "" {
		fmt.Fprintf(b, "\n\nDETECTED GAME: %s", strings.ToUpper(game))
	}
}

func (a *Agent) knowledgeContext(ctx context.Context, game, query string) string {
	if a.knowledge == nil {
		return ""
	}
	results, err := a.knowledge.Search(ctx, game, query, knowledge.WithTopK(knowledgeTopK))
	if err != nil {
		a.logger.Warn("knowledge search failed", "game", game, "error", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nRELEVANT KNOWLEDGE FROM GAME DATABASE:\n")
	for i, result := range results {
		doc := result.Document
		title := doc.Title
		if title == "" {
			title = "Unknown Title"
		}
		url := doc.URL
		if url == "" {
			url = "N/A"
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, title)
		fmt.Fprintf(&b, "   Source: %s\n", strings.ToUpper(doc.SourceType))
		fmt.Fprintf(&b, "   Content: %s...\n", truncateRunes(doc.Content, contentPreviewRunes))
		fmt.Fprintf(&b, "   URL: %s\n", url)
	}
	return b.String()
}

func (a *Agent) screenshotContext(ctx context.Context) string {
	if a.screenshots == nil {
		return ""
	}
	stats, err := a.screenshots.Stats(ctx)
	if err != nil {
		a.logger.Warn("screenshot stats failed", "error", err)
		return ""
	}
	recent, err := a.screenshots.Recent(ctx, screenshot.Filter{Limit: 5})
	if err != nil {
		a.logger.Warn("recent screenshots failed", "error", err)
		return ""
	}

	apps := make([]string, 0, len(stats.ByApplication))
	for app := range stats.ByApplication {
		apps = append(apps, app)
	}

	var b strings.Builder
	b.WriteString("SCREENSHOT DATA AVAILABLE:\n")
	fmt.Fprintf(&b, "- Total screenshots stored: %d\n", stats.Total)
	fmt.Fprintf(&b, "- Applications captured: %s\n", strings.Join(apps, ", "))
	b.WriteString("- Recent captures:\n")
	for _, shot := range recent {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n",
			shot.CapturedAt.Format("2006-01-02 15:04"), shot.Application, shot.WindowTitle)
	}
	b.WriteString("\nYou can use this capture history to help with gaming-related questions.\n")
	b.WriteString("The screenshots are captured automatically and show what the user was playing.")
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
