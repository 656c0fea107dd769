package extract

import (
	"regexp"
	"strings"
)

// Sections are the four labeled blocks recovered from loosely structured text.
type Sections struct {
	Summary    string
	DataIssues string
	Trends     string
	Answer     string
}

// Placeholders for labels that are missing from heuristic text.
const (
	NoDataIssues = "No specific data issues found."
	NoTrends     = "No specific trends found."
)

var (
	emphasisRe = regexp.MustCompile(`\*\*|__`)
	headingRe  = regexp.MustCompile(`(?m)^[ \t]*#+[ \t]*`)
	bulletRe   = regexp.MustCompile(`[*\x{2022}\-]+`)

	// terminatorRe marks the start of the next label line: one of the known
	// labels in any case, or any all-caps label.
	terminatorRe = regexp.MustCompile(
		`\n(?:[ \t]*-?[ \t]*(?i:SUMMARY|DATA[_ ]ISSUES|TRENDS|ANSWER)[ \t]*[:\n]|[A-Z][A-Z_ ]*[:\n])`)

	summaryLabel    = newLabel(`SUMMARY`)
	dataIssuesLabel = newLabel(`DATA[_ ]ISSUES`)
	trendsLabel     = newLabel(`TRENDS`)
	answerLabel     = newLabel(`ANSWER`)
)

// label matches a section heading, preferring one that starts a line over a
// mention inside another section's prose.
type label struct {
	lineStart *regexp.Regexp
	anywhere  *regexp.Regexp
}

func newLabel(pattern string) label {
	return label{
		lineStart: regexp.MustCompile(`(?im)^[ \t]*-?[ \t]*` + pattern + `[ \t]*[:\n]`),
		anywhere:  regexp.MustCompile(`(?i)\b` + pattern + `[ \t]*[:\n]`),
	}
}

func (l label) find(text string) []int {
	if loc := l.lineStart.FindStringIndex(text); loc != nil {
		return loc
	}
	return l.anywhere.FindStringIndex(text)
}

// Normalize strips markdown emphasis and heading markers and collapses runs
// of bullet characters into a single "-".
func Normalize(text string) string {
	text = emphasisRe.ReplaceAllString(text, "")
	text = headingRe.ReplaceAllString(text, "")
	return bulletRe.ReplaceAllString(text, "-")
}

// ParseSections extracts SUMMARY, DATA_ISSUES, TRENDS and ANSWER blocks from
// text. Missing summary and answer fall back to the first and last maxLen
// runes of the normalized text; missing issues and trends get placeholders.
func ParseSections(text string, maxLen int) Sections {
	cleaned := Normalize(text)

	s := Sections{
		Summary:    block(cleaned, summaryLabel),
		DataIssues: block(cleaned, dataIssuesLabel),
		Trends:     block(cleaned, trendsLabel),
		Answer:     block(cleaned, answerLabel),
	}
	if s.Summary == "" {
		s.Summary = Head(cleaned, maxLen)
	}
	if s.DataIssues == "" {
		s.DataIssues = NoDataIssues
	}
	if s.Trends == "" {
		s.Trends = NoTrends
	}
	if s.Answer == "" {
		s.Answer = Tail(cleaned, maxLen)
	}
	return s
}

// block returns the trimmed body after the first match of label, ending at
// the next all-caps label line or the end of text.
func block(text string, l label) string {
	loc := l.find(text)
	if loc == nil {
		return ""
	}

	// Keep a newline separator in view so an immediately following label
	// terminates an empty body.
	from := loc[1]
	if text[from-1] == '\n' {
		from--
	}
	body := text[from:]
	if end := terminatorRe.FindStringIndex(body); end != nil {
		body = body[:end[0]]
	}
	return strings.TrimSpace(body)
}
