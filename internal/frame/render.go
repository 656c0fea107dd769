package frame

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Markdown renders the frame as a pipe table with a row-index column.
func (f *Frame) Markdown() string {
	header := append([]string{""}, f.ColumnNames()...)
	rows := make([][]string, f.rows)
	for r := 0; r < f.rows; r++ {
		row := make([]string, 0, len(f.Columns)+1)
		row = append(row, strconv.Itoa(r))
		for _, c := range f.Columns {
			row = append(row, c.Values[r].String())
		}
		rows[r] = row
	}
	return markdownTable(header, rows)
}

// Markdown renders the summary as a pipe table, one row per statistic.
func (s *Summary) Markdown() string {
	header := append([]string{""}, s.Columns...)
	rows := make([][]string, len(s.Stats))
	for i, stat := range s.Stats {
		row := make([]string, 0, len(s.Columns)+1)
		row = append(row, stat)
		for _, cell := range s.Values[i] {
			row = append(row, cell.String())
		}
		rows[i] = row
	}
	return markdownTable(header, rows)
}

// HeadJSON renders the frame as a JSON array of row objects with keys in
// column order. Numbers stay numeric, nulls become null.
func (f *Frame) HeadJSON() (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for r := 0; r < f.rows; r++ {
		if r > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for i, c := range f.Columns {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeKV(&buf, c.Name, cellJSON(c.Kind, c.Values[r])); err != nil {
				return "", err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

// JSON renders the summary as {"column": {"stat": value}} with keys in order.
// Statistics that do not apply to a column are null.
func (s *Summary) JSON() (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for c, col := range s.Columns {
		if c > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return "", eris.Wrap(err, "frame: marshal column name")
		}
		buf.Write(key)
		buf.WriteString(":{")
		for i, stat := range s.Stats {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeKV(&buf, stat, summaryCellJSON(s.Values[i][c])); err != nil {
				return "", err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func writeKV(buf *bytes.Buffer, key string, val any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return eris.Wrap(err, "frame: marshal key")
	}
	v, err := json.Marshal(val)
	if err != nil {
		return eris.Wrapf(err, "frame: marshal value for %q", key)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

func cellJSON(kind Kind, v Value) any {
	if v.Null {
		return nil
	}
	switch kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return nil
		}
		return v.Num
	case KindTime:
		return formatTime(v.Time)
	default:
		return v.String()
	}
}

func summaryCellJSON(c Cell) any {
	switch {
	case !c.Present:
		return nil
	case c.IsText:
		return c.Text
	case math.IsNaN(c.Num) || math.IsInf(c.Num, 0):
		return nil
	default:
		return c.Num
	}
}

func markdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, cell := range cells {
			b.WriteString(" ")
			b.WriteString(escapeCell(cell))
			b.WriteString(" |")
		}
		b.WriteByte('\n')
	}

	writeRow(header)
	b.WriteString("|")
	for i := range header {
		if i == 0 {
			b.WriteString(":---|")
		} else {
			b.WriteString("---:|")
		}
	}
	b.WriteByte('\n')
	for _, row := range rows {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
