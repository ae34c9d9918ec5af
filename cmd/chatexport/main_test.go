package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var exportDir = filepath.Join("..", "..", "testdata", "export")

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestCollapseWhitespace(t *testing.T) {
	text := "  line one\n\nline\t two  "
	if got := collapseWhitespace(text); got != "line one line two" {
		t.Fatalf("collapseWhitespace failed: %q", got)
	}
}

func TestConvertCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ChatGPT")
	cfgPath := writeConfig(t, `{"include_date": false}`)

	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"convert", "-e", exportDir, "-c", cfgPath, "-o", out, "--no-progress", "--log-json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	doc, err := os.ReadFile(filepath.Join(out, "conversations", "Trip_planning.md"))
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	if !strings.HasPrefix(string(doc), "**User**: ![Image](../00attachments/images/file-Q7xZ2map-route.png)\n") {
		t.Fatalf("unexpected document:\n%s", doc)
	}
	if _, err := os.Stat(filepath.Join(out, "00attachments", "images", "file-Q7xZ2map-route.png")); err != nil {
		t.Fatalf("image not copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "conversations", "Explain_goroutines....md")); err != nil {
		t.Fatalf("inferred-title document missing: %v", err)
	}

	report := buf.String()
	if !strings.Contains(report, "Export completed") || !strings.Contains(report, "failed") {
		t.Fatalf("report missing summary or failure:\n%s", report)
	}
}

func TestConvertMissingConfigIsFatal(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"convert", "-e", exportDir, "-c", filepath.Join(t.TempDir(), "absent.json"), "-o", t.TempDir()})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "configuration error") {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestListCommandPlain(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"list", exportDir, "--format", "plain", "--no-header"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 conversations, got %d: %q", len(lines), lines)
	}
	if !strings.HasSuffix(lines[0], "\tTrip planning") || !strings.HasSuffix(lines[1], "\tExplain goroutines...") {
		t.Fatalf("unexpected list output: %q", lines)
	}
}

func TestListCommandInvalidAfter(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"list", exportDir, "--after", "yesterday"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for invalid --after")
	}
}

func TestViewCommandMarkdown(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"view", exportDir, "2", "--no-pager"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if !strings.Contains(buf.String(), "**User**: Explain goroutines\nwith an example") {
		t.Fatalf("unexpected view output:\n%s", buf.String())
	}
}

func TestViewCommandColorFlagsConflict(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"view", exportDir, "1", "--color", "--no-color"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for conflicting color flags")
	}
}

func TestInfoCommandJSON(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"info", exportDir, "Trip planning", "--format", "json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("info failed: %v", err)
	}

	var payload infoPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if payload.Index != 1 || payload.MessageCount != 3 || payload.ImageCount != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.FileName != "Trip_planning.md" {
		t.Fatalf("unexpected document name: %q", payload.FileName)
	}
}
