// Package format renders conversation summaries, run reports and transcript
// entries for the terminal.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"chatexport/internal/archive"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
)

// TitleWidth is the display width titles are clipped to in table output.
const TitleWidth = 60

// WriteSummaries writes conversation summaries to w in the requested format.
func WriteSummaries(w io.Writer, items []archive.Summary, includeHeader bool, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeSummariesTable(w, items, includeHeader)
	case "plain":
		return writeSummariesPlain(w, items, includeHeader)
	case "json":
		return writeSummariesJSON(w, items)
	case "jsonl":
		return writeSummariesJSONL(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeSummariesPlain(w io.Writer, items []archive.Summary, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "index\tcreated\tmessages\timages\tsource\ttitle"); err != nil {
			return err
		}
	}

	for _, item := range items {
		line := fmt.Sprintf(
			"%d\t%s\t%d\t%d\t%s\t%s",
			item.Index,
			formatTime(item.CreatedAt),
			item.Messages,
			item.Images,
			filepath.Base(item.Source),
			escapeNewlines(item.Title),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeSummariesJSON(w io.Writer, items []archive.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func writeSummariesJSONL(w io.Writer, items []archive.Summary) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func escapeNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", "\\n")
}

func writeSummariesTable(w io.Writer, items []archive.Summary, includeHeader bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"#", "Created", "Messages", "Images", "Source", "Title"})
	}

	for _, item := range items {
		tw.AppendRow(table.Row{
			item.Index,
			formatTime(item.CreatedAt),
			item.Messages,
			item.Images,
			filepath.Base(item.Source),
			clip(escapeNewlines(item.Title), TitleWidth),
		})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "-", 0, 0, "-", "(no conversations)"})
	}

	_ = tw.Render()
	return nil
}

// clip shortens s to width display cells, counting wide runes twice.
func clip(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
