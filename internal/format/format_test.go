package format

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{1, "$0.01"},
		{99, "$0.99"},
		{100, "$1.00"},
		{1250, "$12.50"},
		{123456, "$1234.56"},
		{-150, "-$1.50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(tt.cents))
		})
	}
}

func TestFormatMoneySymbol(t *testing.T) {
	assert.Equal(t, "€5.05", FormatMoney(505, "€"))
	assert.Equal(t, "0.00", FormatMoney(0, ""))
}

func TestFormatDate(t *testing.T) {
	assert.Empty(t, FormatDate(time.Time{}))
	assert.Equal(t, "2024-03-09 18:05", FormatDate(time.Date(2024, 3, 9, 18, 5, 30, 0, time.UTC)))
}

func TestJustifyLine(t *testing.T) {
	tests := []struct {
		name        string
		left, right string
		width       int
		gap         rune
		want        string
	}{
		{"padded", "1x Burger", "$8.00", 20, '.', "1x Burger......$8.00"},
		{"space gap", "TOTAL", "$6.00", 12, ' ', "TOTAL  $6.00"},
		{"default gap", "A", "B", 4, 0, "A..B"},
		{"exact fit", "abcde", "fghij", 10, '.', "abcdefghij"},
		{"overflow", "a very long item name", "$100.00", 16, '.', "a very long item name$100.00"},
		{"one short", "abcd", "efghi", 10, '-', "abcd-efghi"},
		{"multibyte", "Café", "€1", 8, '.', "Café..€1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JustifyLine(tt.left, tt.right, tt.width, tt.gap)
			assert.Equal(t, tt.want, got)
			if utf8.RuneCountInString(tt.left)+utf8.RuneCountInString(tt.right) < tt.width {
				assert.Equal(t, tt.width, utf8.RuneCountInString(got))
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 3))
	assert.Equal(t, "", Truncate("ab", 0))
	assert.Equal(t, "Ca", Truncate("Café", 2))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{"fits", "no onions", 20, []string{"no onions"}},
		{"breaks on words", "extra sauce on the side please", 12, []string{"extra sauce", "on the side", "please"}},
		{"splits long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"keeps newlines", "one\ntwo", 10, []string{"one", "two"}},
		{"blank paragraph", "a\n\nb", 10, []string{"a", "", "b"}},
		{"zero width", "as is", 0, []string{"as is"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.in, tt.width))
		})
	}
}

func TestBox(t *testing.T) {
	got := Box([]string{"Hi", "no nuts at all"}, 12)
	assert.Equal(t, []string{
		"+----------+",
		"| Hi       |",
		"| no nuts  |",
		"| at all   |",
		"+----------+",
	}, got)

	for _, l := range got {
		assert.Equal(t, 12, utf8.RuneCountInString(l))
	}
}

func TestIndent(t *testing.T) {
	assert.Equal(t, []string{"  a", "  b"}, Indent([]string{"a", "b"}, "  "))
}
