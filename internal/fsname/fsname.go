// Package fsname turns arbitrary text into names that are safe to use as
// filesystem entries.
package fsname

import (
	"strconv"
	"strings"
)

// MaxLen is the maximum number of runes Sanitize keeps.
const MaxLen = 255

var reserved = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"/", "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// Sanitize replaces every reserved character (< > : " / \ | ? *) with an
// underscore and truncates the result to MaxLen runes.
func Sanitize(name string) string {
	out := reserved.Replace(name)
	runes := []rune(out)
	if len(runes) > MaxLen {
		out = string(runes[:MaxLen])
	}
	return out
}

// SplitExt splits name into stem and extension, where the extension keeps its
// leading dot. Leading dots do not start an extension, so ".env" has none.
func SplitExt(name string) (stem, ext string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || strings.Trim(name[:idx], ".") == "" {
		return name, ""
	}
	return name[:idx], name[idx:]
}

// WithCounter inserts _n between the stem and the extension of name.
func WithCounter(name string, n int) string {
	stem, ext := SplitExt(name)
	return stem + "_" + strconv.Itoa(n) + ext
}
