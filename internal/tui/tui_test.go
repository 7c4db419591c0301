package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	"github.com/google/uuid"

	"github.com/lakitu0/lakitu/internal/chat"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		flow      *chat.Flow
		sessionID uuid.UUID
	}{
		{"nil flow", context.Background(), nil, uuid.New()},
		{"nil session", context.Background(), nil, uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.ctx, tt.flow, tt.sessionID); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}

func testModel() *Model {
	return &Model{
		input:    textarea.New(),
		viewport: viewport.New(),
		spinner:  spinner.New(),
		help:     help.New(),
		styles:   DefaultStyles(),
		keys:     newKeyMap(),
		history:  make([]string, 0, maxHistory),
	}
}

func TestAddMessage_Bound(t *testing.T) {
	m := testModel()
	for i := 0; i < maxMessages+20; i++ {
		m.addMessage(Message{Role: roleUser, Text: "msg"})
	}
	if len(m.messages) != maxMessages {
		t.Errorf("messages = %d, want %d", len(m.messages), maxMessages)
	}
}

func TestNavigateHistory(t *testing.T) {
	m := testModel()
	m.history = []string{"first", "second"}
	m.historyIdx = 2

	m.navigateHistory(-1)
	if got := m.input.Value(); got != "second" {
		t.Errorf("after up, input = %q, want %q", got, "second")
	}

	m.navigateHistory(-1)
	if got := m.input.Value(); got != "first" {
		t.Errorf("after two ups, input = %q, want %q", got, "first")
	}

	// Past the oldest entry stays at the oldest.
	m.navigateHistory(-1)
	if got := m.input.Value(); got != "first" {
		t.Errorf("past oldest, input = %q, want %q", got, "first")
	}

	m.navigateHistory(1)
	m.navigateHistory(1)
	if got := m.input.Value(); got != "" {
		t.Errorf("back at end, input = %q, want empty", got)
	}
}

func TestSlashCommands(t *testing.T) {
	t.Run("help adds system message", func(t *testing.T) {
		m := testModel()
		m.handleSlashCommand(cmdHelp)
		if len(m.messages) != 1 || m.messages[0].Role != roleSystem {
			t.Fatalf("messages = %+v, want one system message", m.messages)
		}
	})

	t.Run("clear drops messages", func(t *testing.T) {
		m := testModel()
		m.addMessage(Message{Role: roleUser, Text: "hi"})
		m.handleSlashCommand(cmdClear)
		if len(m.messages) != 0 {
			t.Errorf("messages = %d, want 0", len(m.messages))
		}
	})

	t.Run("game without detection", func(t *testing.T) {
		m := testModel()
		m.handleSlashCommand(cmdGame)
		if !strings.Contains(m.messages[0].Text, "No game detected") {
			t.Errorf("message = %q, want no-game notice", m.messages[0].Text)
		}
	})

	t.Run("game with detection", func(t *testing.T) {
		m := testModel()
		m.game = "elden_ring"
		m.handleSlashCommand(cmdGame)
		if !strings.Contains(m.messages[0].Text, "elden_ring") {
			t.Errorf("message = %q, want game name", m.messages[0].Text)
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		m := testModel()
		m.handleSlashCommand("/bogus")
		if len(m.messages) != 1 || m.messages[0].Role != roleError {
			t.Fatalf("messages = %+v, want one error message", m.messages)
		}
	})
}

func TestListenForStream(t *testing.T) {
	t.Run("text event", func(t *testing.T) {
		ch := make(chan streamEvent, 1)
		ch <- streamEvent{text: "hello"}

		msg := listenForStream(ch)()
		textMsg, ok := msg.(streamTextMsg)
		if !ok {
			t.Fatalf("msg = %T, want streamTextMsg", msg)
		}
		if textMsg.text != "hello" {
			t.Errorf("text = %q, want hello", textMsg.text)
		}
	})

	t.Run("done event", func(t *testing.T) {
		ch := make(chan streamEvent, 1)
		ch <- streamEvent{done: true, output: chat.Output{Response: "answer", Game: "minecraft"}}

		msg := listenForStream(ch)()
		doneMsg, ok := msg.(streamDoneMsg)
		if !ok {
			t.Fatalf("msg = %T, want streamDoneMsg", msg)
		}
		if doneMsg.output.Game != "minecraft" {
			t.Errorf("game = %q, want minecraft", doneMsg.output.Game)
		}
	})

	t.Run("error event", func(t *testing.T) {
		ch := make(chan streamEvent, 1)
		wantErr := errors.New("boom")
		ch <- streamEvent{err: wantErr}

		msg := listenForStream(ch)()
		errMsg, ok := msg.(streamErrorMsg)
		if !ok {
			t.Fatalf("msg = %T, want streamErrorMsg", msg)
		}
		if !errors.Is(errMsg.err, wantErr) {
			t.Errorf("err = %v, want %v", errMsg.err, wantErr)
		}
	})

	t.Run("closed channel reports error", func(t *testing.T) {
		ch := make(chan streamEvent)
		close(ch)

		msg := listenForStream(ch)()
		if _, ok := msg.(streamErrorMsg); !ok {
			t.Fatalf("msg = %T, want streamErrorMsg", msg)
		}
	})

	t.Run("empty events skipped", func(t *testing.T) {
		ch := make(chan streamEvent, 2)
		ch <- streamEvent{}
		ch <- streamEvent{text: "after empty"}

		msg := listenForStream(ch)()
		textMsg, ok := msg.(streamTextMsg)
		if !ok {
			t.Fatalf("msg = %T, want streamTextMsg", msg)
		}
		if textMsg.text != "after empty" {
			t.Errorf("text = %q, want %q", textMsg.text, "after empty")
		}
	})
}

func TestMarkdownRenderer_NilDegradation(t *testing.T) {
	var r *markdownRenderer
	if got := r.Render("# heading"); got != "# heading" {
		t.Errorf("nil renderer Render = %q, want passthrough", got)
	}
	if r.UpdateWidth(100) {
		t.Error("nil renderer UpdateWidth = true, want false")
	}
}

func TestRenderBanner(t *testing.T) {
	s := DefaultStyles()
	banner := s.RenderBanner()
	if banner == "" {
		t.Fatal("banner is empty")
	}
	if lines := strings.Count(banner, "\n"); lines != len(bannerArt) {
		t.Errorf("banner lines = %d, want %d", lines, len(bannerArt))
	}
}
