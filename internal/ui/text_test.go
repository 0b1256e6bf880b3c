package ui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short unchanged", "hello", 10, "hello"},
		{"collapses whitespace", "a\n  b\tc", 10, "a b c"},
		{"breaks at word", "the quick brown fox jumps", 16, "the quick..."},
		{"hard cut without nearby space", "abcdefghijklmnop", 8, "abcde..."},
		{"tiny limit leaves text alone", "abcdef", 3, "abcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	in := strings.Repeat("é", 100)
	out := Truncate(in, 20)
	assert.Equal(t, 20, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  a\n  b", Indent("a\nb", "  "))
}
