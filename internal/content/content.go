// Package content turns a message payload into the text written to a
// transcript, copying any referenced images along the way.
package content

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"chatexport/internal/attach"
	"chatexport/internal/model"

	"github.com/phuslu/log"
)

const tokenMarker = "file-"

// Extractor renders message content. Image references are looked up in the
// export's loose-file pool and resolved into the output tree.
type Extractor struct {
	pool     *attach.Pool
	resolver *attach.Resolver
	logger   *log.Logger
}

// NewExtractor returns an Extractor backed by pool and resolver.
func NewExtractor(pool *attach.Pool, resolver *attach.Resolver, logger *log.Logger) *Extractor {
	return &Extractor{pool: pool, resolver: resolver, logger: logger}
}

// Extract returns the textual form of c with trailing whitespace removed.
// References that match no file are dropped silently. Failed copies are also
// dropped from the text and reported through the returned error; the text is
// valid either way.
func (e *Extractor) Extract(c model.Content) (string, error) {
	switch c.Shape {
	case model.ShapeParts:
		return e.extractParts(c.Parts)
	case model.ShapeText:
		return strings.TrimRightFunc(c.Text, unicode.IsSpace), nil
	case model.ShapeResult:
		return strings.TrimRightFunc(c.Result, unicode.IsSpace), nil
	default:
		e.logger.Debug().Str("content_type", c.Type).Msg("content has no recognised shape")
		return "", nil
	}
}

func (e *Extractor) extractParts(parts []model.Part) (string, error) {
	var (
		b    strings.Builder
		errs []error
	)
	for _, part := range parts {
		switch part.Kind {
		case model.PartText:
			b.WriteString(part.Text)
			b.WriteString("\n")
		case model.PartImage:
			link, err := e.resolveImage(part.Ref)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if link != "" {
				b.WriteString(imageMarkdown(link))
				b.WriteString("\n")
			}
		default:
			b.WriteString(part.Raw)
			b.WriteString("\n")
		}
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace), errors.Join(errs...)
}

// resolveImage returns "" without error when the reference carries no token
// or the token matches nothing in the pool.
func (e *Extractor) resolveImage(ref string) (string, error) {
	token, ok := Token(ref)
	if !ok {
		return "", nil
	}
	src, err := e.pool.Lookup(token)
	if err != nil {
		e.logger.Debug().Str("token", token).Msg("attachment not found, skipping embed")
		return "", nil
	}
	link, err := e.resolver.Resolve(src, filepath.Base(src))
	if err != nil {
		e.logger.Warn().Err(err).Str("token", token).Msg("attachment copy failed")
		return "", fmt.Errorf("resolve attachment %s: %w", token, err)
	}
	return link, nil
}

// Token extracts the attachment token from an image reference: the text
// following the last "file-" up to the next "-".
func Token(ref string) (string, bool) {
	idx := strings.LastIndex(ref, tokenMarker)
	if idx < 0 {
		return "", false
	}
	token := ref[idx+len(tokenMarker):]
	if end := strings.IndexByte(token, '-'); end >= 0 {
		token = token[:end]
	}
	return token, token != ""
}

func imageMarkdown(link string) string {
	if strings.ContainsAny(link, " ()") {
		return "![Image](<" + link + ">)"
	}
	return "![Image](" + link + ")"
}
