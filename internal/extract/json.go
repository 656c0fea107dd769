package extract

import (
	"encoding/json"
	"sort"
	"strings"
)

// RecoverJSON best-effort parses a JSON object out of model output.
//
// In order: the whole text (markdown fences stripped), then each balanced
// {...} candidate outermost-first, then each balanced [...] candidate. A
// top-level array is returned as {"items": array}. The second result is false
// when nothing parses.
func RecoverJSON(text string) (map[string]any, bool) {
	trimmed := stripFences(text)
	if trimmed == "" {
		return nil, false
	}

	var whole any
	if err := json.Unmarshal([]byte(trimmed), &whole); err == nil {
		switch v := whole.(type) {
		case map[string]any:
			return v, true
		case []any:
			return map[string]any{"items": v}, true
		}
	}

	for _, cand := range balanced(text, '{', '}') {
		var obj map[string]any
		if err := json.Unmarshal([]byte(cand), &obj); err == nil && obj != nil {
			return obj, true
		}
	}

	for _, cand := range balanced(text, '[', ']') {
		var arr []any
		if err := json.Unmarshal([]byte(cand), &arr); err == nil && arr != nil {
			return map[string]any{"items": arr}, true
		}
	}

	return nil, false
}

// stripFences trims whitespace and removes a surrounding ``` or ```json fence.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "{[") {
		text = text[nl+1:] // language tag line
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// maxCandidates bounds how many balanced spans are tried per delimiter kind.
const maxCandidates = 64

// balanced returns the substrings that open with open and close at their
// matching close, ordered by opening position. It makes one pass over text
// with a stack of opener offsets. Delimiters inside JSON strings are ignored;
// string state is only tracked while some opener is unmatched.
func balanced(text string, open, close byte) []string {
	type span struct{ start, end int }

	var stack []int
	var spans []span
	inString := false
	escape := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escape:
				escape = false
			case c == '\\':
				escape = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if len(stack) > 0 {
				inString = true
			}
		case open:
			stack = append(stack, i)
		case close:
			if len(stack) == 0 {
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			spans = append(spans, span{start: start, end: i})
		}
	}

	sort.Slice(spans, func(a, b int) bool { return spans[a].start < spans[b].start })
	if len(spans) > maxCandidates {
		spans = spans[:maxCandidates]
	}

	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = text[sp.start : sp.end+1]
	}
	return out
}
