// Package progress draws the per-file progress bar of an export run.
package progress

import (
	"io"
	"os"
	"strconv"
	"time"

	pretty "github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const description = "Processing conversations"

// Bar renders export progress on a terminal.
type Bar struct {
	out     io.Writer
	width   int
	writer  pretty.Writer
	tracker *pretty.Tracker
}

// New returns a Bar drawing to out.
func New(out *os.File) *Bar {
	return &Bar{out: out, width: determineWidth(out)}
}

// Enabled reports whether out is a terminal a bar can be drawn on.
func Enabled(out *os.File) bool {
	if out == nil {
		return false
	}
	fd := out.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Start begins rendering a bar over total files.
func (b *Bar) Start(total int) {
	pw := pretty.NewWriter()
	pw.SetOutputWriter(b.out)
	pw.SetAutoStop(true)
	pw.SetStyle(pretty.StyleBlocks)
	pw.SetTrackerLength(trackerLength(b.width))
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Value = true

	b.tracker = &pretty.Tracker{
		Message: description,
		Total:   int64(total),
		Units:   pretty.UnitsDefault,
	}
	pw.AppendTracker(b.tracker)
	b.writer = pw
	go pw.Render()
}

// Advance marks one more file as processed.
func (b *Bar) Advance(string) {
	if b.tracker != nil {
		b.tracker.Increment(1)
	}
}

// Stop completes the bar and waits for the final frame.
func (b *Bar) Stop() {
	if b.writer == nil {
		return
	}
	b.tracker.MarkAsDone()
	for b.writer.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}

// trackerLength leaves room for the message, percentage and counters.
func trackerLength(width int) int {
	n := width - len(description) - 40
	if n < 10 {
		return 10
	}
	if n > 60 {
		return 60
	}
	return n
}

func determineWidth(out *os.File) int {
	if out != nil {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 80
}
