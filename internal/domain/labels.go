package domain

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis is appended to the last kept line when a label is truncated.
const Ellipsis = "..."

// LabelWrapper fits chart tick labels into a bounded block of lines.
type LabelWrapper struct {
	MaxCharsPerLine int
	MaxLines        int
}

// DefaultLabelWrapper matches the bar chart tick renderer: 12 characters, 3 lines.
func DefaultLabelWrapper() LabelWrapper {
	return LabelWrapper{MaxCharsPerLine: 12, MaxLines: 3}
}

// Lines wraps text and truncates the result to MaxLines.
func (w LabelWrapper) Lines(text string) []string {
	return TruncateLines(WrapLabel(text, w.MaxCharsPerLine), w.MaxLines)
}

// WrapLabel greedily word-wraps text into lines of at most maxCharsPerLine
// runes. Words longer than a line are hard-split into fixed-size chunks; the
// trailing partial chunk stays open so following words can join it.
// The result always has at least one line.
func WrapLabel(text string, maxCharsPerLine int) []string {
	if maxCharsPerLine < 1 {
		maxCharsPerLine = 1
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		tentative := word
		if current != "" {
			tentative = current + " " + word
		}
		if utf8.RuneCountInString(tentative) <= maxCharsPerLine {
			current = tentative
			continue
		}

		if current != "" {
			lines = append(lines, current)
		}

		if utf8.RuneCountInString(word) <= maxCharsPerLine {
			current = word
			continue
		}
		chunks := chunkRunes(word, maxCharsPerLine)
		lines = append(lines, chunks[:len(chunks)-1]...)
		current = chunks[len(chunks)-1]
	}
	if current != "" {
		lines = append(lines, current)
	}

	if len(lines) == 0 {
		return []string{text}
	}
	return lines
}

// TruncateLines keeps the first maxLines lines, marking the last kept line
// with Ellipsis when any were dropped. The input is not modified.
func TruncateLines(lines []string, maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}
	if len(lines) <= maxLines {
		return append([]string(nil), lines...)
	}
	out := append([]string(nil), lines[:maxLines]...)
	out[maxLines-1] += Ellipsis
	return out
}

func chunkRunes(s string, size int) []string {
	runes := []rune(s)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
