package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunk_PacksSentences(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."

	chunks := Chunk(text)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %v", len(chunks), chunks)
	}
	if chunks[0] != text {
		t.Errorf("chunk = %q", chunks[0])
	}
}

func TestChunk_SplitsAtLimit(t *testing.T) {
	sentence := strings.Repeat("word ", 60) + "end."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 5))

	chunks := Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want multiple", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > maxChunkRunes {
			t.Errorf("chunk %d has %d runes, exceeds %d", i, n, maxChunkRunes)
		}
	}
}

func TestChunk_OversizedSentence(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 200)) + "."

	chunks := Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want hard split", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > maxChunkRunes {
			t.Errorf("chunk %d has %d runes, exceeds %d", i, n, maxChunkRunes)
		}
	}
}

func TestChunk_Empty(t *testing.T) {
	if got := Chunk("   "); got != nil {
		t.Errorf("Chunk() on blank input = %v, want nil", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Dodge left! Then attack. Works every time?")
	want := []string{"Dodge left!", "Then attack.", "Works every time?"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitSentences_NoTerminator(t *testing.T) {
	got := splitSentences("a trailing fragment without punctuation")
	if len(got) != 1 {
		t.Fatalf("got %v, want single fragment", got)
	}
}
