// Package view renders a single conversation of an export to the terminal.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"chatexport/internal/archive"
	"chatexport/internal/attach"
	"chatexport/internal/config"
	"chatexport/internal/format"
	"chatexport/internal/logging"
	"chatexport/internal/transcript"

	"github.com/mattn/go-isatty"
	"github.com/phuslu/log"
	"golang.org/x/term"
)

const (
	ansiReset     = "\x1b[0m"
	ansiBold      = "\x1b[1m"
	ansiTimestamp = "\x1b[38;5;245m"
	ansiSeparator = "\x1b[38;5;240m"
	ansiAssistant = "\x1b[38;5;44m"
	ansiUser      = "\x1b[38;5;220m"
	ansiTool      = "\x1b[38;5;207m"
)

// Options defines the configurable parameters for rendering a view.
type Options struct {
	ExportDir    string
	Selector     string // 1-based index or title
	Config       config.Config
	Format       string // markdown, text or chat
	Wrap         int
	ForceColor   bool
	ForceNoColor bool
	NoPager      bool
	Logger       *log.Logger
	Out          io.Writer
	OutFile      *os.File
}

// Run renders the selected conversation. Attachments are resolved into a
// temporary output tree that is removed afterwards, so the export itself is
// never modified.
func Run(opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	rec, summary, err := archive.Find(opts.ExportDir, opts.Selector)
	if err != nil {
		return err
	}

	tmp, err := os.MkdirTemp("", "chatexport-view-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	layout := attach.NewLayout(tmp)
	if err := layout.EnsureDirs(); err != nil {
		return err
	}
	walker, err := archive.NewWalker(opts.ExportDir, opts.Config, layout, opts.Logger)
	if err != nil {
		return err
	}
	tr := walker.Transformer()

	doc, err := tr.Build(rec.Conversation)
	if err != nil {
		if !errors.Is(err, transcript.ErrPartial) {
			return err
		}
		opts.Logger.Warn().Err(err).Str("title", doc.Title).Msg("some attachments could not be resolved")
	}

	useColor := resolveColorChoice(opts)
	var lines []string
	switch strings.ToLower(opts.Format) {
	case "", "markdown":
		var buf bytes.Buffer
		if err := tr.Render(&buf, doc); err != nil {
			return err
		}
		lines = strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	case "text":
		lines = append(lines, colorize(useColor, ansiBold, summary.Title), "")
		for idx, entry := range doc.Entries {
			if idx > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, strings.Split(format.RenderEntry(entry, opts.Wrap), "\n")...)
		}
	case "chat":
		width := determineWidth(opts.OutFile, opts.Wrap)
		lines = append(lines, colorize(useColor, ansiBold, summary.Title), "")
		lines = append(lines, renderChatTranscript(doc.Entries, width, useColor)...)
	default:
		return fmt.Errorf("unsupported view format: %s", opts.Format)
	}

	if !opts.NoPager && opts.OutFile != nil && isTerminal(opts.OutFile) {
		return pipeThroughPager(lines, useColor)
	}
	return writeLines(opts.Out, lines)
}

func determineWidth(out *os.File, wrap int) int {
	if wrap > 0 {
		return wrap
	}
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

func pipeThroughPager(lines []string, colorEnabled bool) error {
	text := strings.Join(lines, "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	pagerCmd := os.Getenv("PAGER")
	var cmd *exec.Cmd
	if pagerCmd == "" {
		args := []string{"less"}
		if colorEnabled {
			args = append(args, "-R")
		}
		cmd = exec.Command(args[0], args[1:]...) // #nosec G204
	} else {
		cmd = exec.Command("sh", "-c", pagerCmd) // #nosec G204
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create pager pipe: %w", err)
	}
	go func() {
		defer stdin.Close()
		io.WriteString(stdin, text) //nolint:errcheck
	}()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}

	return nil
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func colorize(enabled bool, code string, text string) string {
	if !enabled {
		return text
	}
	return code + text + ansiReset
}

func roleColor(role string) string {
	switch role {
	case "assistant":
		return ansiAssistant
	case "user":
		return ansiUser
	case "tool", "system":
		return ansiTool
	default:
		return ansiSeparator
	}
}

func resolveColorChoice(opts Options) bool {
	if opts.ForceColor {
		return true
	}
	if opts.ForceNoColor {
		return false
	}
	return shouldUseColorAuto(opts.Out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isTerminal(file)
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
