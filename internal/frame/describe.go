package frame

import (
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
)

// Stat names in output order.
const (
	StatCount  = "count"
	StatUnique = "unique"
	StatTop    = "top"
	StatFreq   = "freq"
	StatMean   = "mean"
	StatStd    = "std"
	StatMin    = "min"
	StatP25    = "25%"
	StatP50    = "50%"
	StatP75    = "75%"
	StatMax    = "max"
)

var statOrder = []string{
	StatCount, StatUnique, StatTop, StatFreq, StatMean, StatStd,
	StatMin, StatP25, StatP50, StatP75, StatMax,
}

// Cell is one entry of a summary table. A zero Cell (Present false) marks a
// statistic that does not apply to the column's kind.
type Cell struct {
	Present bool
	Num     float64
	Text    string
	IsText  bool
}

// Summary is a per-column statistical description of a Frame.
type Summary struct {
	Columns []string
	Stats   []string
	// Values is indexed [stat][column].
	Values [][]Cell
}

// Describe computes count/unique/top/freq for every column, and
// mean/std/min/quartiles/max for numeric and datetime columns.
func Describe(f *Frame) (*Summary, error) {
	if f == nil || len(f.Columns) == 0 {
		return nil, eris.New("frame: describe needs at least one column")
	}

	perCol := make([]map[string]Cell, len(f.Columns))
	for i, c := range f.Columns {
		switch c.Kind {
		case KindNumber:
			perCol[i] = describeNumbers(numbers(c))
		case KindTime:
			perCol[i] = describeTimes(c)
		default:
			perCol[i] = describeText(c)
		}
	}

	s := &Summary{Columns: f.ColumnNames()}
	for _, stat := range statOrder {
		row := make([]Cell, len(f.Columns))
		used := false
		for i := range f.Columns {
			if cell, ok := perCol[i][stat]; ok {
				row[i] = cell
				used = true
			}
		}
		if used {
			s.Stats = append(s.Stats, stat)
			s.Values = append(s.Values, row)
		}
	}

	return s, nil
}

// String renders a summary cell.
func (c Cell) String() string {
	if !c.Present {
		return ""
	}
	if c.IsText {
		return c.Text
	}
	return formatNumber(c.Num)
}

func numCell(v float64) Cell {
	if math.IsNaN(v) {
		return Cell{}
	}
	return Cell{Present: true, Num: v}
}

func textCell(s string) Cell {
	return Cell{Present: true, Text: s, IsText: true}
}

func numbers(c Column) []float64 {
	vals := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Null {
			vals = append(vals, v.Num)
		}
	}
	return vals
}

func describeNumbers(vals []float64) map[string]Cell {
	out := map[string]Cell{StatCount: numCell(float64(len(vals)))}
	if len(vals) == 0 {
		return out
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	std := math.NaN()
	if len(sorted) > 1 {
		var ss float64
		for _, v := range sorted {
			ss += (v - mean) * (v - mean)
		}
		std = math.Sqrt(ss / float64(len(sorted)-1))
	}

	out[StatMean] = numCell(mean)
	out[StatStd] = numCell(std)
	out[StatMin] = numCell(sorted[0])
	out[StatP25] = numCell(quantile(sorted, 0.25))
	out[StatP50] = numCell(quantile(sorted, 0.50))
	out[StatP75] = numCell(quantile(sorted, 0.75))
	out[StatMax] = numCell(sorted[len(sorted)-1])
	return out
}

func describeTimes(c Column) map[string]Cell {
	var secs []float64
	for _, v := range c.Values {
		if !v.Null {
			secs = append(secs, float64(v.Time.Unix()))
		}
	}
	out := map[string]Cell{StatCount: numCell(float64(len(secs)))}
	if len(secs) == 0 {
		return out
	}
	sort.Float64s(secs)

	var sum float64
	for _, s := range secs {
		sum += s
	}
	at := func(s float64) Cell {
		return textCell(formatTime(time.Unix(int64(math.Round(s)), 0).UTC()))
	}

	out[StatMean] = at(sum / float64(len(secs)))
	out[StatMin] = at(secs[0])
	out[StatP25] = at(quantile(secs, 0.25))
	out[StatP50] = at(quantile(secs, 0.50))
	out[StatP75] = at(quantile(secs, 0.75))
	out[StatMax] = at(secs[len(secs)-1])
	return out
}

func describeText(c Column) map[string]Cell {
	counts := make(map[string]int)
	var order []string
	n := 0
	for _, v := range c.Values {
		if v.Null {
			continue
		}
		n++
		s := v.String()
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}

	out := map[string]Cell{
		StatCount:  numCell(float64(n)),
		StatUnique: numCell(float64(len(counts))),
	}
	if n == 0 {
		return out
	}

	// Ties resolve to the value seen first.
	top := order[0]
	for _, s := range order[1:] {
		if counts[s] > counts[top] {
			top = s
		}
	}
	out[StatTop] = textCell(top)
	out[StatFreq] = numCell(float64(counts[top]))
	return out
}

// quantile uses linear interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
