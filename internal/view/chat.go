package view

import (
	"strings"

	"chatexport/internal/format"
	"chatexport/internal/model"
	"chatexport/internal/transcript"

	"github.com/mattn/go-runewidth"
)

const (
	bubbleMargin   = 2
	minBubbleWidth = 8
)

type alignment int

const (
	alignLeft alignment = iota
	alignCenter
	alignRight
)

// User messages sit on the right, assistant replies on the left and tool or
// system output in between.
func alignmentFor(role model.Role) alignment {
	switch role {
	case model.RoleUser:
		return alignRight
	case model.RoleTool, model.RoleSystem:
		return alignCenter
	default:
		return alignLeft
	}
}

// bubble holds one entry laid out as plain text. Color is applied only when
// drawing, after every width has been measured.
type bubble struct {
	role  model.Role
	label string
	stamp string
	body  []string
	width int
	align alignment
}

func newBubble(entry transcript.Entry, maxWidth int) bubble {
	b := bubble{
		role:  entry.Role,
		label: entry.Name,
		stamp: "-",
		align: alignmentFor(entry.Role),
	}
	if b.label == "" {
		b.label = "Message"
	}
	if !entry.Time.IsZero() {
		b.stamp = entry.Time.Format("Jan 02 15:04")
	}

	for _, line := range format.RenderEntryLines(entry, 0) {
		b.body = append(b.body, hardWrap(line, maxWidth)...)
	}

	b.width = runewidth.StringWidth(b.header())
	for _, line := range b.body {
		b.width = max(b.width, runewidth.StringWidth(line))
	}
	b.width = min(b.width, maxWidth)
	return b
}

func (b bubble) header() string {
	return b.label + " · " + b.stamp
}

// indent returns the left offset of a bubble drawn in a terminal of the given
// width. The box adds four columns: two borders and a space on each side.
func (b bubble) indent(total int) int {
	free := max(total-b.width-4, 0)
	switch b.align {
	case alignRight:
		return free
	case alignCenter:
		return min(max(free/2, bubbleMargin), free)
	default:
		return min(bubbleMargin, free)
	}
}

func (b bubble) draw(total int, useColor bool) []string {
	pad := strings.Repeat(" ", b.indent(total))
	rule := strings.Repeat("─", b.width+2)
	side := colorize(useColor, ansiSeparator, "│")

	row := func(plain, styled string) string {
		fill := b.width - runewidth.StringWidth(plain)
		if fill < 0 {
			plain = runewidth.Truncate(plain, b.width, "")
			styled, fill = plain, 0
		}
		return pad + side + " " + styled + strings.Repeat(" ", fill) + " " + side
	}

	header := b.header()
	styled := header
	if useColor {
		styled = colorize(true, roleColor(string(b.role)), b.label) + " · " + colorize(true, ansiTimestamp, b.stamp)
	}

	lines := make([]string, 0, len(b.body)+3)
	lines = append(lines, pad+"╭"+rule+"╮", row(header, styled))
	for _, line := range b.body {
		lines = append(lines, row(line, line))
	}
	return append(lines, pad+"╰"+rule+"╯")
}

func renderChatTranscript(entries []transcript.Entry, width int, useColor bool) []string {
	if width <= 0 {
		width = 80
	}
	maxWidth := max(width-bubbleMargin*2-10, minBubbleWidth)

	var lines []string
	for i, entry := range entries {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, newBubble(entry, maxWidth).draw(width, useColor)...)
	}
	return lines
}

// hardWrap breaks line into chunks of at most width display columns. Blank
// lines are kept so paragraphs stay separated inside a bubble.
func hardWrap(line string, width int) []string {
	line = strings.TrimRight(line, " ")
	if line == "" || runewidth.StringWidth(line) <= width {
		return []string{line}
	}

	var out []string
	var cur strings.Builder
	used := 0
	for _, r := range line {
		w := runewidth.RuneWidth(r)
		if used+w > width && cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
			used = 0
		}
		cur.WriteRune(r)
		used += w
	}
	return append(out, cur.String())
}
