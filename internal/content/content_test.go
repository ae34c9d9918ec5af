package content

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chatexport/internal/attach"
	"chatexport/internal/logging"
	"chatexport/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	exportDir string
	layout    attach.Layout
	extractor *Extractor
}

func newFixture(t *testing.T, files map[string]string) fixture {
	t.Helper()
	exportDir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(exportDir, name), []byte(body), 0o644))
	}
	pool, err := attach.NewPool(exportDir)
	require.NoError(t, err)

	layout := attach.NewLayout(filepath.Join(t.TempDir(), "ChatGPT"))
	require.NoError(t, layout.EnsureDirs())

	return fixture{
		exportDir: exportDir,
		layout:    layout,
		extractor: NewExtractor(pool, attach.NewResolver(layout), logging.Discard()),
	}
}

func decodeContent(t *testing.T, raw string) model.Content {
	t.Helper()
	var c model.Content
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	return c
}

func TestToken(t *testing.T) {
	cases := []struct {
		ref   string
		token string
		ok    bool
	}{
		{"https://files.example/file-abc123-x", "abc123", true},
		{"file-service://file-def456", "def456", true},
		{"file-abc123", "abc123", true},
		{"https://example.com/image.png", "", false},
		{"file--broken", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		token, ok := Token(tc.ref)
		assert.Equal(t, tc.token, token, tc.ref)
		assert.Equal(t, tc.ok, ok, tc.ref)
	}
}

func TestExtractFlatShapes(t *testing.T) {
	fx := newFixture(t, nil)

	got, err := fx.extractor.Extract(decodeContent(t, `{"content_type":"code","text":"print(1)\n\n"}`))
	require.NoError(t, err)
	assert.Equal(t, "print(1)", got)

	got, err = fx.extractor.Extract(decodeContent(t, `{"result":"  tool output  "}`))
	require.NoError(t, err)
	assert.Equal(t, "  tool output", got)

	got, err = fx.extractor.Extract(decodeContent(t, `{"content_type":"mystery"}`))
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestExtractPartsWithImage(t *testing.T) {
	fx := newFixture(t, map[string]string{"photo-abc123-x.png": "png"})

	c := decodeContent(t, `{"parts": [
		"Look at this:",
		{"content_type": "image_asset_pointer", "image_url": "https://x/file-abc123-ignored"},
		{"text": "what is it?"},
		7
	]}`)

	got, err := fx.extractor.Extract(c)
	require.NoError(t, err)
	assert.Equal(t, "Look at this:\n![Image](../00attachments/images/photo-abc123-x.png)\nwhat is it?\n7", got)
	assert.FileExists(t, filepath.Join(fx.layout.Images, "photo-abc123-x.png"))
}

func TestExtractUnmatchedImageIsSilent(t *testing.T) {
	fx := newFixture(t, map[string]string{"other-file.png": "png"})

	got, err := fx.extractor.Extract(decodeContent(t, `{"parts": [
		"before",
		{"image_url": "https://x/file-nomatch"},
		{"image_url": "https://x/no-token-here"}
	]}`))
	require.NoError(t, err)
	assert.Equal(t, "before", got)
	assert.NotContains(t, got, "![Image]")
}

func TestExtractSeparateCallsCopyAgain(t *testing.T) {
	fx := newFixture(t, map[string]string{"photo-abc123-x.png": "png"})
	c := decodeContent(t, `{"parts": [{"image_url": "file-service://file-abc123"}]}`)

	first, err := fx.extractor.Extract(c)
	require.NoError(t, err)
	second, err := fx.extractor.Extract(c)
	require.NoError(t, err)

	assert.Equal(t, "![Image](../00attachments/images/photo-abc123-x.png)", first)
	assert.Equal(t, "![Image](../00attachments/images/photo-abc123-x_1.png)", second)
}

func TestExtractNonImageAttachmentGoesToFiles(t *testing.T) {
	fx := newFixture(t, map[string]string{"file-report-abc999.pdf": "pdf"})

	got, err := fx.extractor.Extract(decodeContent(t, `{"parts": [{"image_url": "file-abc999"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "![Image](../00attachments/files/file-report-abc999.pdf)", got)
}

func TestExtractLinkWithSpaces(t *testing.T) {
	fx := newFixture(t, map[string]string{"my photo abc123.png": "png"})

	got, err := fx.extractor.Extract(decodeContent(t, `{"parts": [{"image_url": "file-abc123"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "![Image](<../00attachments/images/my photo abc123.png>)", got)
}

func TestExtractCopyFailureKeepsText(t *testing.T) {
	fx := newFixture(t, map[string]string{"photo-abc123-x.png": "png"})
	require.NoError(t, os.RemoveAll(fx.layout.Images))

	got, err := fx.extractor.Extract(decodeContent(t, `{"parts": ["caption", {"image_url": "file-abc123"}]}`))
	assert.Equal(t, "caption", got)

	var ioErr *attach.AttachmentIOError
	require.True(t, errors.As(err, &ioErr))
}
