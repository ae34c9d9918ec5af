package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "info", Writer: &buf, RunID: "run-1"})

	logger.Info().Str("path", "a.json").Int("records", 3).Msg("decoded")
	logger.Debug().Msg("hidden")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "decoded", entry["message"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "a.json", entry["path"])
	assert.EqualValues(t, 3, entry["records"])
	assert.Equal(t, "info", entry["level"])
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error().Msg("nothing happens")
}
