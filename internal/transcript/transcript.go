// Package transcript renders one conversation into a Markdown document.
package transcript

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chatexport/internal/attach"
	"chatexport/internal/config"
	"chatexport/internal/content"
	"chatexport/internal/fsname"
	"chatexport/internal/model"

	"github.com/ncruces/go-strftime"
	"github.com/phuslu/log"
)

// ErrPartial marks a conversation whose document was written but some of
// whose attachments could not be copied.
var ErrPartial = errors.New("conversation exported with errors")

var titleSeparators = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// Entry is one message as it appears in a transcript.
type Entry struct {
	Role model.Role
	Name string
	Time time.Time // zero when the message has no timestamp
	Text string
}

// Document is a conversation ready to render. Entries exclude messages
// skipped as empty.
type Document struct {
	Title    string
	Date     time.Time // first message timestamp, zero when absent
	Messages int
	Entries  []Entry
}

// Result describes a written document.
type Result struct {
	Path     string
	HTMLPath string
	Title    string
	Messages int // messages found in the conversation
	Written  int // messages written after empty ones were skipped
}

// Transformer writes conversation documents into a Layout.
type Transformer struct {
	cfg       config.Config
	layout    attach.Layout
	extractor *content.Extractor
	logger    *log.Logger
}

// New returns a Transformer that renders with cfg.
func New(cfg config.Config, layout attach.Layout, extractor *content.Extractor, logger *log.Logger) *Transformer {
	return &Transformer{cfg: cfg, layout: layout, extractor: extractor, logger: logger}
}

// Build linearizes conv and extracts every message once, copying referenced
// attachments into the layout. Copy failures are returned wrapped in
// ErrPartial alongside a complete Document.
func (t *Transformer) Build(conv model.Conversation) (Document, error) {
	messages := model.Linearize(conv)

	var errs []error
	contents := make([]string, len(messages))
	for i, msg := range messages {
		text, err := t.extractor.Extract(msg.Content)
		if err != nil {
			errs = append(errs, err)
		}
		contents[i] = text
	}

	first := Untitled
	if len(contents) > 0 {
		first = contents[0]
	}
	doc := Document{
		Title:    InferTitle(conv.Title, first),
		Messages: len(messages),
	}
	if len(messages) > 0 {
		if ts, ok := messages[0].Timestamp(); ok {
			doc.Date = ts
		}
	}

	for i, msg := range messages {
		if t.cfg.SkipEmptyMessages && strings.TrimSpace(contents[i]) == "" {
			continue
		}
		ts, _ := msg.Timestamp()
		doc.Entries = append(doc.Entries, Entry{
			Role: msg.Author.Role,
			Name: t.cfg.RoleName(msg.Author.Role),
			Time: ts,
			Text: contents[i],
		})
	}

	if len(errs) > 0 {
		return doc, fmt.Errorf("%w: %w", ErrPartial, errors.Join(errs...))
	}
	return doc, nil
}

// Transform builds conv and writes it to the documents directory, replacing
// any earlier document with the same name. An ErrPartial error comes with a
// valid Result: the document was written without the failed attachments.
func (t *Transformer) Transform(conv model.Conversation) (Result, error) {
	doc, buildErr := t.Build(conv)
	if buildErr != nil && !errors.Is(buildErr, ErrPartial) {
		return Result{}, buildErr
	}

	var buf bytes.Buffer
	if err := t.Render(&buf, doc); err != nil {
		return Result{}, fmt.Errorf("render conversation: %w", err)
	}

	path := filepath.Join(t.layout.Documents, t.FileName(doc.Title))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return Result{}, fmt.Errorf("write document: %w", err)
	}

	result := Result{
		Path:     path,
		Title:    doc.Title,
		Messages: doc.Messages,
		Written:  len(doc.Entries),
	}

	errs := []error{buildErr}
	if t.cfg.HTMLCopy {
		htmlPath, err := writeHTML(path, doc.Title, buf.Bytes())
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrPartial, err))
		} else {
			result.HTMLPath = htmlPath
		}
	}

	t.logger.Debug().
		Str("title", doc.Title).
		Str("path", path).
		Int("messages", result.Messages).
		Int("written", result.Written).
		Msg("conversation written")

	return result, errors.Join(errs...)
}

// FileName builds the document name for title from the configured format.
func (t *Transformer) FileName(title string) string {
	safe := titleSeparators.Replace(fsname.Sanitize(title))
	return strings.ReplaceAll(t.cfg.FileNameFormat, config.TitlePlaceholder, safe) + ".md"
}

// Render writes the Markdown transcript of doc.
func (t *Transformer) Render(w io.Writer, doc Document) error {
	sep := t.cfg.MessageSeparator

	if t.cfg.IncludeDate && !doc.Date.IsZero() {
		date := strftime.Format(t.cfg.DateFormat, doc.Date)
		if _, err := fmt.Fprintf(w, "<sub>%s</sub>%s", date, sep); err != nil {
			return err
		}
	}

	for _, entry := range doc.Entries {
		if _, err := fmt.Fprintf(w, "**%s**: %s%s", entry.Name, entry.Text, sep); err != nil {
			return err
		}
	}
	return nil
}
