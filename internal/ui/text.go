package ui

import (
	"strings"
	"unicode/utf8"
)

// DefaultTitleWidth is the content width shown in list rows.
const DefaultTitleWidth = 60

// Truncate collapses s onto one line and cuts it to maxRunes, breaking at a
// word boundary when one is close and appending "...".
func Truncate(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxRunes <= 3 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	cut := maxRunes - 3
	for i := cut; i >= cut*3/4; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimRight(string(runes[:cut]), " ") + "..."
}

// Indent prefixes every line of s.
func Indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
