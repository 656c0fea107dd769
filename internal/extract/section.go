// Package extract recovers structured fields from free-form model output.
// Every function here is pure and never panics on malformed input.
package extract

import (
	"regexp"
	"unicode/utf8"
)

// DefaultMaxLen bounds extracted sections and raw-text fallbacks, in runes.
const DefaultMaxLen = 1200

// Section returns up to maxLen runes of text starting at the first
// case-insensitive occurrence of keyword. It returns "" when keyword is absent.
func Section(text, keyword string, maxLen int) string {
	if keyword == "" || text == "" {
		return ""
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(keyword))
	if err != nil {
		return ""
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	return Head(text[loc[0]:], maxLen)
}

// FirstSection returns the section for the first keyword that is present.
func FirstSection(text string, maxLen int, keywords ...string) string {
	for _, kw := range keywords {
		if s := Section(text, kw, maxLen); s != "" {
			return s
		}
	}
	return ""
}

// Head returns the first n runes of s.
func Head(s string, n int) string {
	if n <= 0 {
		n = DefaultMaxLen
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Tail returns the last n runes of s.
func Tail(s string, n int) string {
	if n <= 0 {
		n = DefaultMaxLen
	}
	count := utf8.RuneCountInString(s)
	if count <= n {
		return s
	}
	skip := count - n
	i := 0
	for pos := range s {
		if i == skip {
			return s[pos:]
		}
		i++
	}
	return ""
}
