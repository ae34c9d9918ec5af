// Package logging builds the structured logger shared by a run.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/phuslu/log"
)

// Options controls logger construction.
type Options struct {
	Level  string // trace, debug, info, warn, error
	JSON   bool   // force JSON lines even on a terminal
	Writer io.Writer
	RunID  string
}

// New returns a logger writing human-readable lines to a terminal and JSON
// lines everywhere else. Every entry carries the run id when one is set.
func New(opts Options) *log.Logger {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}

	level := log.InfoLevel
	if opts.Level != "" {
		level = log.ParseLevel(opts.Level)
	}

	logger := &log.Logger{
		Level:      level,
		TimeFormat: "15:04:05",
	}
	if !opts.JSON && isTerminal(out) {
		logger.Writer = &log.ConsoleWriter{
			Writer:      out,
			ColorOutput: os.Getenv("NO_COLOR") == "",
		}
	} else {
		logger.TimeFormat = ""
		logger.Writer = &log.IOWriter{Writer: out}
	}
	if opts.RunID != "" {
		logger.Context = log.NewContext(nil).Str("run_id", opts.RunID).Value()
	}
	return logger
}

// Discard returns a logger that drops every entry.
func Discard() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
