// Package frame holds uploaded tabular data in memory and renders it into
// bounded text snapshots for prompts.
package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Kind is the inferred type of a column.
type Kind int

const (
	// KindText holds free-form strings (and columns that are entirely null).
	KindText Kind = iota
	// KindNumber holds columns whose non-null cells all parse as floats.
	KindNumber
	// KindTime holds columns whose non-null cells all parse as timestamps.
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "datetime"
	default:
		return "text"
	}
}

// Value is a single cell.
type Value struct {
	Raw  string
	Null bool
	Num  float64
	Time time.Time
}

// Column is a named, typed column of cells.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// Frame is an in-memory table. Column names are unique and keep upload order.
type Frame struct {
	Columns []Column
	rows    int
}

// nullTokens are cell values treated as missing.
var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
	"#n/a": true,
}

// timeLayouts are tried in order when inferring datetime columns.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// New builds a Frame from a header row and data records. Short records are
// padded with nulls; records longer than the header are rejected.
func New(header []string, records [][]string) (*Frame, error) {
	if len(header) == 0 {
		return nil, eris.New("frame: no columns to parse")
	}

	names := uniqueNames(header)
	f := &Frame{
		Columns: make([]Column, len(names)),
		rows:    len(records),
	}
	for i, name := range names {
		f.Columns[i] = Column{Name: name, Values: make([]Value, len(records))}
	}

	for r, rec := range records {
		if len(rec) > len(names) {
			return nil, eris.Errorf("frame: row %d: expected %d fields, saw %d", r+1, len(names), len(rec))
		}
		for c := range names {
			raw := ""
			if c < len(rec) {
				raw = rec[c]
			}
			f.Columns[c].Values[r] = Value{Raw: raw, Null: isNull(raw)}
		}
	}

	for i := range f.Columns {
		inferKind(&f.Columns[i])
	}

	return f, nil
}

// NumRows returns the number of data rows.
func (f *Frame) NumRows() int {
	return f.rows
}

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Head returns a new Frame sharing cells with the first n rows of f.
func (f *Frame) Head(n int) *Frame {
	if n < 0 {
		n = 0
	}
	if n > f.rows {
		n = f.rows
	}
	out := &Frame{Columns: make([]Column, len(f.Columns)), rows: n}
	for i, c := range f.Columns {
		out.Columns[i] = Column{Name: c.Name, Kind: c.Kind, Values: c.Values[:n]}
	}
	return out
}

// String renders a cell for human-readable output.
func (v Value) String() string {
	if v.Null {
		return ""
	}
	return strings.TrimSpace(v.Raw)
}

func isNull(raw string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(raw))]
}

// uniqueNames fills blank headers and suffixes duplicates with ".1", ".2", ...
func uniqueNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for seen[name] > 0 {
			name = fmt.Sprintf("%s.%d", base, seen[base])
			seen[base]++
		}
		seen[name]++
		names[i] = name
	}
	return names
}

func inferKind(c *Column) {
	nonNull := 0
	numeric, temporal := true, true
	for _, v := range c.Values {
		if v.Null {
			continue
		}
		nonNull++
		s := strings.TrimSpace(v.Raw)
		if numeric {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				numeric = false
			}
		}
		if temporal {
			if _, ok := parseTime(s); !ok {
				temporal = false
			}
		}
		if !numeric && !temporal {
			break
		}
	}

	switch {
	case nonNull == 0:
		c.Kind = KindText
	case numeric:
		c.Kind = KindNumber
		for i := range c.Values {
			if !c.Values[i].Null {
				c.Values[i].Num, _ = strconv.ParseFloat(strings.TrimSpace(c.Values[i].Raw), 64)
			}
		}
	case temporal:
		c.Kind = KindTime
		for i := range c.Values {
			if !c.Values[i].Null {
				c.Values[i].Time, _ = parseTime(strings.TrimSpace(c.Values[i].Raw))
			}
		}
	default:
		c.Kind = KindText
	}
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatNumber renders floats compactly and deterministically.
func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 0):
		if v > 0 {
			return "inf"
		}
		return "-inf"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return strconv.FormatFloat(v, 'f', 0, 64)
	default:
		return strconv.FormatFloat(v, 'g', 6, 64)
	}
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
