// Package archive reads conversation export files and walks an export
// directory into the output tree.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chatexport/internal/model"
)

// ErrNotConversation reports a JSON value that is not a conversation object.
var ErrNotConversation = errors.New("not a conversation object")

// RecordParseError reports input that could not be decoded. Index is the
// position of the record in its file, or -1 when the whole file is unreadable.
type RecordParseError struct {
	Source string
	Index  int
	Err    error
}

func (e *RecordParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("parse %s record %d: %v", e.Source, e.Index, e.Err)
}

func (e *RecordParseError) Unwrap() error { return e.Err }

// Record is one conversation read from an export file. Err is set when the
// record did not decode; Conversation is then empty.
type Record struct {
	Source       string
	Index        int
	Conversation model.Conversation
	Err          error
}

// Decode reads an export file body holding either a single conversation
// object or an array of them. Array elements are decoded one by one, so a
// malformed element only fails its own record.
func Decode(source string, r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &RecordParseError{Source: source, Index: -1, Err: err}
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, &RecordParseError{Source: source, Index: -1, Err: err}
		}
		records := make([]Record, 0, len(raws))
		for i, raw := range raws {
			rec := Record{Source: source, Index: i}
			if err := decodeConversation(raw, &rec.Conversation); err != nil {
				rec.Err = &RecordParseError{Source: source, Index: i, Err: err}
			}
			records = append(records, rec)
		}
		return records, nil
	}

	rec := Record{Source: source}
	if err := decodeConversation(data, &rec.Conversation); err != nil {
		return nil, &RecordParseError{Source: source, Index: -1, Err: err}
	}
	return []Record{rec}, nil
}

func decodeConversation(raw []byte, conv *model.Conversation) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		if err := json.Unmarshal(raw, new(any)); err != nil {
			return err
		}
		return ErrNotConversation
	}
	return json.Unmarshal(raw, conv)
}

// ReadFile opens and decodes the export file at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &RecordParseError{Source: path, Index: -1, Err: err}
	}
	defer f.Close() //nolint:errcheck

	return Decode(path, f)
}

// Files returns the *.json files at the top level of dir, sorted by name.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read export directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
