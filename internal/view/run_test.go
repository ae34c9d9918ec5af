package view

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chatexport/internal/archive"
	"chatexport/internal/config"
	"chatexport/internal/model"
	"chatexport/internal/transcript"

	"github.com/mattn/go-runewidth"
)

var exportDir = filepath.Join("..", "..", "testdata", "export")

func TestRenderChatLinesAlignment(t *testing.T) {
	entries := []transcript.Entry{
		{
			Role: model.RoleUser,
			Name: "User",
			Time: time.Date(2025, 10, 27, 12, 0, 0, 0, time.UTC),
			Text: "hello there",
		},
		{
			Role: model.RoleAssistant,
			Name: "ChatGPT",
			Time: time.Date(2025, 10, 27, 12, 0, 5, 0, time.UTC),
			Text: "hi, how can I help you today?",
		},
		{
			Role: model.RoleTool,
			Name: "ChatGPT",
			Time: time.Date(2025, 10, 27, 12, 0, 10, 0, time.UTC),
			Text: `{"result":"ok"}`,
		},
	}

	lines := renderChatTranscript(entries, 80, false)
	if len(lines) == 0 {
		t.Fatal("expected chat lines")
	}

	userTop := findPrefix(lines, "╭")
	if userTop < 0 {
		t.Fatalf("failed to locate user bubble: %v", lines)
	}

	next := findPrefix(lines[userTop+1:], "╭")
	if next < 0 {
		t.Fatalf("failed to locate assistant bubble: %v", lines)
	}
	assistantTop := next + userTop + 1

	if idx := strings.Index(lines[userTop], "╭"); idx <= 2 {
		t.Fatalf("user bubble should be right aligned, got index %d line %q", idx, lines[userTop])
	}

	if !strings.HasPrefix(lines[assistantTop], "  ╭") {
		t.Fatalf("assistant bubble should be left aligned: %q", lines[assistantTop])
	}

	if !strings.Contains(lines[userTop+1], "User · Oct 27 12:00") {
		t.Fatalf("user header unexpected: %q", lines[userTop+1])
	}
}

func TestChatBubbleWrapsLongLines(t *testing.T) {
	entries := []transcript.Entry{
		{Role: model.RoleAssistant, Name: "ChatGPT", Text: strings.Repeat("a", 100)},
		{Role: model.RoleTool, Name: "Tool", Text: "done"},
	}

	lines := renderChatTranscript(entries, 40, false)

	var first []string
	for _, line := range lines {
		if line == "" {
			break
		}
		first = append(first, line)
	}
	if len(first) < 5 {
		t.Fatalf("expected wrapped body rows, got %d lines: %v", len(first), first)
	}
	width := runewidth.StringWidth(first[0])
	for _, line := range first {
		if got := runewidth.StringWidth(line); got != width {
			t.Fatalf("bubble rows differ in width: %d vs %d in %q", got, width, line)
		}
		if width > 40 {
			t.Fatalf("bubble wider than terminal: %d", width)
		}
	}
	if !strings.Contains(first[1], "ChatGPT · -") {
		t.Fatalf("untimed header unexpected: %q", first[1])
	}

	toolTop := lines[len(first)+1]
	idx := strings.Index(toolTop, "╭")
	if idx <= bubbleMargin || idx >= 40-runewidth.StringWidth(strings.TrimSpace(toolTop)) {
		t.Fatalf("tool bubble should be centered, got index %d in %q", idx, toolTop)
	}
}

func findPrefix(lines []string, prefix string) int {
	for i, line := range lines {
		if strings.HasPrefix(line, prefix) || strings.Contains(line, prefix) {
			return i
		}
	}
	return -1
}

func TestRunMarkdown(t *testing.T) {
	cfg := config.Default()
	cfg.IncludeDate = false

	var buf bytes.Buffer
	err := Run(Options{ExportDir: exportDir, Selector: "1", Config: cfg, Out: &buf})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := strings.Join([]string{
		"**User**: ![Image](../00attachments/images/file-Q7xZ2map-route.png)",
		"Where should I go with this map?",
		"",
		"**ChatGPT**: Lisbon in May is lovely.",
		"Pack light layers.",
	}, "\n") + "\n"
	if buf.String() != want {
		t.Fatalf("markdown output mismatch\nwant:\n%q\n\ngot:\n%q", want, buf.String())
	}
}

func TestRunTextByTitle(t *testing.T) {
	var buf bytes.Buffer
	err := Run(Options{
		ExportDir: exportDir,
		Selector:  "explain goroutines...",
		Config:    config.Default(),
		Format:    "text",
		Out:       &buf,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "Explain goroutines...\n") {
		t.Fatalf("text view should start with the title: %q", out)
	}
	if !strings.Contains(out, "  \"status\": \"ok\"") {
		t.Fatalf("tool output should be indented JSON: %q", out)
	}
}

func TestRunChat(t *testing.T) {
	var buf bytes.Buffer
	err := Run(Options{
		ExportDir:    exportDir,
		Selector:     "Trip planning",
		Config:       config.Default(),
		Format:       "chat",
		Wrap:         60,
		ForceNoColor: true,
		Out:          &buf,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if strings.Count(buf.String(), "╭") != 2 {
		t.Fatalf("expected two bubbles, empty system message skipped:\n%s", buf.String())
	}
}

func TestRunLeavesExportUntouched(t *testing.T) {
	before, err := os.ReadDir(exportDir)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	if err := Run(Options{ExportDir: exportDir, Selector: "1", Config: config.Default(), Out: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	after, err := os.ReadDir(exportDir)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(before) != len(after) {
		t.Fatalf("export directory changed: %d entries before, %d after", len(before), len(after))
	}
}

func TestRunErrors(t *testing.T) {
	err := Run(Options{ExportDir: exportDir, Selector: "42", Config: config.Default(), Out: &bytes.Buffer{}})
	if !errors.Is(err, archive.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}

	err = Run(Options{ExportDir: exportDir, Selector: "1", Config: config.Default(), Format: "html", Out: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "unsupported view format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestDetermineWidth(t *testing.T) {
	if got := determineWidth(nil, 42); got != 42 {
		t.Fatalf("explicit wrap should win, got %d", got)
	}
	t.Setenv("COLUMNS", "101")
	if got := determineWidth(nil, 0); got != 101 {
		t.Fatalf("COLUMNS fallback expected 101, got %d", got)
	}
}
