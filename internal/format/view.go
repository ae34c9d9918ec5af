package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chatexport/internal/transcript"

	"github.com/mattn/go-runewidth"
)

// RenderEntryLines returns the body lines of a transcript entry. A body that
// is a single JSON document is indented; other text is word-wrapped.
func RenderEntryLines(entry transcript.Entry, wrapWidth int) []string {
	if entry.Text == "" {
		return nil
	}
	if formatted := formatJSON(entry.Text); formatted != entry.Text {
		return strings.Split(formatted, "\n")
	}

	var lines []string
	for _, line := range strings.Split(entry.Text, "\n") {
		lines = append(lines, strings.Split(wrapBody(line, wrapWidth), "\n")...)
	}
	return lines
}

// RenderEntry converts an entry into a printable block headed by its time and
// speaker.
func RenderEntry(entry transcript.Entry, wrapWidth int) string {
	ts := "-"
	if !entry.Time.IsZero() {
		ts = entry.Time.Format(time.RFC3339)
	}
	return fmt.Sprintf("[%s][%s]\n%s", ts, entry.Name, strings.Join(RenderEntryLines(entry, wrapWidth), "\n"))
}

func wrapBody(text string, width int) string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)

	return strings.Join(lines, "\n")
}

func formatJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return raw
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err == nil {
		return buf.String()
	}
	return raw
}
