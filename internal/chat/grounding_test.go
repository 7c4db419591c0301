package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lakitu0/lakitu/internal/knowledge"
	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/screenshot"
)

type fakeKnowledge struct {
	results []knowledge.Result
	err     error
	game    string
	query   string
}

func (f *fakeKnowledge) Search(_ context.Context, game, query string, _ ...knowledge.SearchOption) ([]knowledge.Result, error) {
	f.game = game
	f.query = query
	return f.results, f.err
}

type fakeScreenshots struct {
	stats  *screenshot.Stats
	recent []screenshot.Metadata
}

func (f *fakeScreenshots) Recent(context.Context, screenshot.Filter) ([]screenshot.Metadata, error) {
	return f.recent, nil
}

func (f *fakeScreenshots) Stats(context.Context) (*screenshot.Stats, error) {
	return f.stats, nil
}

func groundingAgent(k KnowledgeSearcher, s ScreenshotReader) *Agent {
	return &Agent{knowledge: k, screenshots: s, logger: log.NewNop()}
}

func TestWantsScreenshotContext(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"show me my recent screenshots", true},
		{"what was on my screen earlier", true},
		{"can you see what I captured", true},
		{"how do I beat margit", false},
		{"margit keeps killing me", false},
	}
	for _, tt := range tests {
		if got := wantsScreenshotContext(tt.message); got != tt.want {
			t.Errorf("wantsScreenshotContext(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestGroundMessage_Knowledge(t *testing.T) {
	k := &fakeKnowledge{results: []knowledge.Result{
		{
			Document: knowledge.Document{
				Title:      "Margit, the Fell Omen",
				SourceType: knowledge.SourceTypeWiki,
				URL:        "https://wiki.example/Margit",
				Content:    "Margit punishes panic rolling with delayed attacks.",
			},
			Similarity: 0.9,
		},
	}}
	a := groundingAgent(k, nil)

	got := a.groundMessage(context.Background(), "how do I dodge margit", "elden_ring", false)

	if !strings.Contains(got, "DETECTED GAME: ELDEN_RING") {
		t.Errorf("missing game marker:\n%s", got)
	}
	if !strings.Contains(got, "RELEVANT KNOWLEDGE FROM GAME DATABASE:") {
		t.Errorf("missing knowledge header:\n%s", got)
	}
	if !strings.Contains(got, "Source: WIKI") {
		t.Errorf("missing source line:\n%s", got)
	}
	if !strings.Contains(got, "Margit punishes panic rolling") {
		t.Errorf("missing content:\n%s", got)
	}
	if k.game != "elden_ring" {
		t.Errorf("searched game = %q", k.game)
	}
}

func TestGroundMessage_KnowledgeContentTruncated(t *testing.T) {
	long := strings.Repeat("x", 300)
	k := &fakeKnowledge{results: []knowledge.Result{
		{Document: knowledge.Document{Title: "t", SourceType: "wiki", Content: long}},
	}}
	a := groundingAgent(k, nil)

	got := a.groundMessage(context.Background(), "q", "elden_ring", false)

	if strings.Contains(got, long) {
		t.Error("content not truncated")
	}
	if !strings.Contains(got, strings.Repeat("x", contentPreviewRunes)+"...") {
		t.Error("truncated content missing ellipsis")
	}
}

func TestGroundMessage_KnowledgeErrorDegrades(t *testing.T) {
	k := &fakeKnowledge{err: errors.New("db down")}
	a := groundingAgent(k, nil)

	got := a.groundMessage(context.Background(), "tips for margit", "elden_ring", false)

	if !strings.Contains(got, "tips for margit") {
		t.Errorf("original message lost:\n%s", got)
	}
	if strings.Contains(got, "RELEVANT KNOWLEDGE") {
		t.Errorf("knowledge injected despite error:\n%s", got)
	}
}

func TestGroundMessage_ScreenshotContext(t *testing.T) {
	s := &fakeScreenshots{
		stats: &screenshot.Stats{
			Total:         12,
			ByApplication: map[string]int64{"eldenring.exe": 12},
		},
		recent: []screenshot.Metadata{
			{CapturedAt: time.Now(), Application: "eldenring.exe", WindowTitle: "ELDEN RING"},
		},
	}
	a := groundingAgent(&fakeKnowledge{}, s)

	got := a.groundMessage(context.Background(), "show me my recent screenshots", "", false)

	if !strings.Contains(got, "SCREENSHOT DATA AVAILABLE:") {
		t.Errorf("missing screenshot context:\n%s", got)
	}
	if !strings.Contains(got, "Total screenshots stored: 12") {
		t.Errorf("missing total:\n%s", got)
	}
	if !strings.Contains(got, "eldenring.exe") {
		t.Errorf("missing application:\n%s", got)
	}
}

func TestGroundMessage_ScreenshotContextOmitsGameLine(t *testing.T) {
	s := &fakeScreenshots{
		stats: &screenshot.Stats{
			Total:         3,
			ByApplication: map[string]int64{"eldenring.exe": 3},
		},
	}
	a := groundingAgent(&fakeKnowledge{}, s)

	got := a.groundMessage(context.Background(), "show me my recent screenshots of elden ring", "elden_ring", false)

	if !strings.Contains(got, "SCREENSHOT DATA AVAILABLE:") {
		t.Errorf("missing screenshot context:\n%s", got)
	}
	if strings.Contains(got, "DETECTED GAME") {
		t.Errorf("game marker belongs to the image and knowledge paths only:\n%s", got)
	}
}

func TestGroundMessage_Image(t *testing.T) {
	k := &fakeKnowledge{results: []knowledge.Result{
		{Document: knowledge.Document{Title: "t", SourceType: "wiki", Content: "c"}},
	}}
	a := groundingAgent(k, nil)

	got := a.groundMessage(context.Background(), "what am I looking at", "elden_ring", true)

	if !strings.Contains(got, "LIVE SCREENSHOT PROVIDED") {
		t.Errorf("missing vision preamble:\n%s", got)
	}
	if strings.Contains(got, "RELEVANT KNOWLEDGE") {
		t.Errorf("retrieval should be skipped for image turns:\n%s", got)
	}
	if !strings.Contains(got, "DETECTED GAME: ELDEN_RING") {
		t.Errorf("game marker should still be present:\n%s", got)
	}
}

func TestGroundMessage_NoGameNoKeywords(t *testing.T) {
	a := groundingAgent(&fakeKnowledge{}, nil)

	msg := "what's a good mechanical keyboard"
	if got := a.groundMessage(context.Background(), msg, "", false); got != msg {
		t.Errorf("message modified without context: %q", got)
	}
}
