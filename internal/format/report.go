package format

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"chatexport/internal/archive"
	"chatexport/internal/attach"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteReport writes the run summary of a walk, followed by a table of
// failures when there are any.
func WriteReport(w io.Writer, report archive.Report, outDir string) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Export completed")
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	tw.AppendRows([]table.Row{
		{"Output", outDir},
		{"Files", report.Files},
		{"Conversations", report.Conversations},
		{"Documents", report.Documents},
		{"Images", report.Attachments[attach.KindImage]},
		{"Files attached", report.Attachments[attach.KindFile]},
		{"Failures", len(report.Failures)},
		{"Duration", report.Duration.Round(time.Millisecond).String()},
		{"Run ID", report.RunID},
	})
	_ = tw.Render()

	if len(report.Failures) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	ft := table.NewWriter()
	ft.SetOutputMirror(w)
	ft.SetStyle(table.StyleRounded)
	ft.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 5, WidthMax: 80},
	})
	ft.AppendHeader(table.Row{"Source", "Record", "Title", "Kind", "Error"})
	for _, f := range report.Failures {
		record := "-"
		if f.Record >= 0 {
			record = fmt.Sprint(f.Record)
		}
		kind := "failed"
		if f.Partial {
			kind = "partial"
		}
		ft.AppendRow(table.Row{
			filepath.Base(f.Source),
			record,
			clip(f.Title, TitleWidth),
			kind,
			escapeNewlines(f.Err.Error()),
		})
	}
	_ = ft.Render()
	return nil
}
