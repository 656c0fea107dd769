package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSection(t *testing.T) {
	text := "Intro.\nData Cleaning Report: 2 nulls in sales.\nTrend: up."

	assert.Equal(t, "Cleaning Report: 2 nulls in sales.\nTrend: up.", Section(text, "clean", 100))
	assert.Equal(t, "Trend", Section(text, "TREND", 5))
	assert.Equal(t, "", Section(text, "answer", 100))
	assert.Equal(t, "", Section(text, "", 100))
	assert.Equal(t, "", Section("", "clean", 100))
}

func TestSection_KeywordIsLiteral(t *testing.T) {
	assert.Equal(t, "a.b tail", Section("xx a.b tail", "a.b", 100))
	assert.Equal(t, "", Section("xx axb", "a.b", 100))
}

func TestSection_DefaultMaxLen(t *testing.T) {
	text := "answer " + strings.Repeat("x", 2000)
	assert.Len(t, Section(text, "answer", 0), DefaultMaxLen)
}

func TestFirstSection(t *testing.T) {
	text := "The DATA ISSUE list is short."
	assert.Equal(t, "DATA ISSUE list", FirstSection(text, 15, "clean", "data issue"))
	assert.Equal(t, "", FirstSection(text, 15, "trend"))
}

func TestHeadTail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		head string
		tail string
	}{
		{"short", "abc", 5, "abc", "abc"},
		{"exact", "abc", 3, "abc", "abc"},
		{"ascii", "abcdef", 2, "ab", "ef"},
		{"multibyte", "héllo wörld", 3, "hél", "rld"},
		{"empty", "", 3, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.head, Head(tt.in, tt.n))
			assert.Equal(t, tt.tail, Tail(tt.in, tt.n))
		})
	}
}
