package transcript

import (
	"strings"
	"unicode"
)

// Untitled stands in for the first message of an empty conversation.
const Untitled = "Untitled"

// InferTitle returns explicit when it is set. Otherwise it returns the first
// line of firstContent with an ellipsis appended, marking the title as an
// excerpt.
func InferTitle(explicit, firstContent string) string {
	if explicit != "" {
		return explicit
	}
	line, _, _ := strings.Cut(firstContent, "\n")
	return strings.TrimRightFunc(line, unicode.IsSpace) + "..."
}
