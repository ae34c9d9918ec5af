package transcript

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Transcripts carry raw <sub> markup and single-newline breaks, so the
// renderer keeps inline HTML and turns soft breaks into <br>.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(),
		gmhtml.WithHardWraps(),
	),
)

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

// writeHTML renders source next to mdPath with an .html extension. Relative
// attachment links stay valid because both files share a directory.
func writeHTML(mdPath, title string, source []byte) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert(source, &body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	path := strings.TrimSuffix(mdPath, ".md") + ".html"
	page := fmt.Sprintf(htmlPage, html.EscapeString(title), body.String())
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return "", fmt.Errorf("write html: %w", err)
	}
	return path, nil
}
