package archive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chatexport/internal/content"
	"chatexport/internal/logging"
	"chatexport/internal/model"
	"chatexport/internal/transcript"
)

// ErrConversationNotFound is returned by Find when no conversation matches.
var ErrConversationNotFound = errors.New("conversation not found")

// Summary describes one conversation of an export without writing anything.
type Summary struct {
	Index     int // 1-based position across the whole export
	Source    string
	Record    int
	ID        string
	Title     string
	CreatedAt time.Time
	Messages  int
	Images    int
}

// ListOptions controls how conversations are enumerated.
type ListOptions struct {
	Dir      string
	After    *time.Time
	Before   *time.Time
	Limit    int
	MaxTitle int
}

// ListResult contains conversation summaries and non-fatal warnings.
type ListResult struct {
	Summaries []Summary
	Warnings  []error
}

// List summarizes every conversation under opts.Dir in export order.
// Indexes are assigned before filtering, so an index always names the same
// conversation.
func List(opts ListOptions) (ListResult, error) {
	if opts.Dir == "" {
		return ListResult{}, errors.New("export directory is required")
	}

	var result ListResult
	err := walkRecords(opts.Dir, func(index int, rec Record) {
		if rec.Err != nil {
			result.Warnings = append(result.Warnings, rec.Err)
			return
		}
		s := summarize(index, rec)
		if opts.After != nil && s.CreatedAt.Before(*opts.After) {
			return
		}
		if opts.Before != nil && s.CreatedAt.After(*opts.Before) {
			return
		}
		if opts.MaxTitle > 0 {
			s.Title = truncate(s.Title, opts.MaxTitle)
		}
		result.Summaries = append(result.Summaries, s)
	}, func(err error) {
		result.Warnings = append(result.Warnings, err)
	})
	if err != nil {
		return result, err
	}

	if opts.Limit > 0 && len(result.Summaries) > opts.Limit {
		result.Summaries = result.Summaries[:opts.Limit]
	}
	return result, nil
}

// Find returns the conversation selected by a 1-based index or, failing
// that, by a case-insensitive title match.
func Find(dir, selector string) (Record, Summary, error) {
	want, byIndex := 0, false
	if n, err := strconv.Atoi(selector); err == nil {
		want, byIndex = n, true
	}

	var (
		found   Record
		summary Summary
		ok      bool
	)
	err := walkRecords(dir, func(index int, rec Record) {
		if ok || rec.Err != nil {
			return
		}
		s := summarize(index, rec)
		if (byIndex && index == want) || (!byIndex && strings.EqualFold(s.Title, selector)) {
			found, summary, ok = rec, s, true
		}
	}, func(error) {})
	if err != nil {
		return Record{}, Summary{}, err
	}
	if !ok {
		return Record{}, Summary{}, fmt.Errorf("%w: %s", ErrConversationNotFound, selector)
	}
	return found, summary, nil
}

// walkRecords calls fn for every record in export order with its 1-based
// index. Unreadable files go to warn and take no index.
func walkRecords(dir string, fn func(int, Record), warn func(error)) error {
	files, err := Files(dir)
	if err != nil {
		return err
	}
	index := 0
	for _, path := range files {
		records, err := ReadFile(path)
		if err != nil {
			warn(err)
			continue
		}
		for _, rec := range records {
			index++
			fn(index, rec)
		}
	}
	return nil
}

// previewExtractor renders text without a pool, so image references are
// dropped and nothing is copied.
var previewExtractor = content.NewExtractor(nil, nil, logging.Discard())

func summarize(index int, rec Record) Summary {
	conv := rec.Conversation
	messages := model.Linearize(conv)

	first := transcript.Untitled
	if len(messages) > 0 {
		first, _ = previewExtractor.Extract(messages[0].Content)
	}

	images := 0
	for _, msg := range messages {
		for _, part := range msg.Content.Parts {
			if part.Kind == model.PartImage {
				images++
			}
		}
	}

	created, ok := model.FromEpoch(conv.CreateTime)
	if !ok && len(messages) > 0 {
		created, _ = messages[0].Timestamp()
	}

	return Summary{
		Index:     index,
		Source:    rec.Source,
		Record:    rec.Index,
		ID:        conv.ID,
		Title:     transcript.InferTitle(conv.Title, first),
		CreatedAt: created,
		Messages:  len(messages),
		Images:    images,
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}
