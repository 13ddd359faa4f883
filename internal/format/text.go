package format

import (
	"strings"
	"unicode/utf8"
)

// DefaultGap fills the space between the columns of a justified line.
const DefaultGap = '.'

// JustifyLine places left and right flush against the margins of a line of
// the given width and fills the space between them with gap. When the two
// parts do not fit with at least one gap character, right is appended to left
// without padding.
func JustifyLine(left, right string, width int, gap rune) string {
	if gap == 0 {
		gap = DefaultGap
	}
	used := utf8.RuneCountInString(left) + utf8.RuneCountInString(right)
	if used >= width {
		return left + right
	}
	return left + strings.Repeat(string(gap), width-used) + right
}

// Truncate shortens s to at most width runes.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}

// Wrap breaks s into lines of at most width runes on word boundaries.
// Words longer than width are split. Existing line breaks are kept.
func Wrap(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}

	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var cur []rune
		for _, w := range words {
			word := []rune(w)
			for len(word) > width {
				if len(cur) > 0 {
					lines = append(lines, string(cur))
					cur = nil
				}
				lines = append(lines, string(word[:width]))
				word = word[width:]
			}
			if len(word) == 0 {
				continue
			}

			switch {
			case len(cur) == 0:
				cur = append(cur, word...)
			case len(cur)+1+len(word) <= width:
				cur = append(cur, ' ')
				cur = append(cur, word...)
			default:
				lines = append(lines, string(cur))
				cur = append([]rune(nil), word...)
			}
		}
		if len(cur) > 0 {
			lines = append(lines, string(cur))
		}
	}
	return lines
}

// Box frames lines in a border of the given total width. Content that does
// not fit inside the border is wrapped.
func Box(lines []string, width int) []string {
	if width < 4 {
		return lines
	}
	inner := width - 4
	edge := "+" + strings.Repeat("-", width-2) + "+"

	out := []string{edge}
	for _, l := range lines {
		for _, w := range Wrap(l, inner) {
			pad := inner - utf8.RuneCountInString(w)
			out = append(out, "| "+w+strings.Repeat(" ", pad)+" |")
		}
	}
	return append(out, edge)
}

// Indent prefixes every line with prefix.
func Indent(lines []string, prefix string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = prefix + l
	}
	return out
}
