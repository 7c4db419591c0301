package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxChunkRunes bounds chunk size so each chunk fits comfortably inside
// the embedder's input window while staying a useful retrieval unit.
const maxChunkRunes = 512

// Chunk splits text into chunks of at most maxChunkRunes runes, packing
// whole sentences together and only breaking mid-sentence when a single
// sentence exceeds the limit.
func Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, sentence := range splitSentences(text) {
		n := utf8.RuneCountInString(sentence)
		if n > maxChunkRunes {
			if currentLen > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				current.Reset()
				currentLen = 0
			}
			chunks = append(chunks, splitLong(sentence)...)
			continue
		}
		if currentLen > 0 && currentLen+1+n > maxChunkRunes {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += n
	}
	if currentLen > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// splitSentences breaks text at sentence terminators followed by
// whitespace. Good enough for extracted prose; abbreviations produce
// slightly short sentences, which chunk packing absorbs.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if isTerminator(runes[i]) && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// splitLong hard-splits an oversized sentence at rune boundaries,
// preferring the last space before the limit.
func splitLong(sentence string) []string {
	var parts []string
	runes := []rune(sentence)
	for len(runes) > maxChunkRunes {
		cut := maxChunkRunes
		for i := maxChunkRunes - 1; i > maxChunkRunes/2; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
		for len(runes) > 0 && unicode.IsSpace(runes[0]) {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		parts = append(parts, strings.TrimSpace(string(runes)))
	}
	return parts
}
