package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := ReadCSV([]byte("region,sales\nNorth,100\nSouth,200\nEast,300\n"))
	require.NoError(t, err)
	return f
}

func statCell(t *testing.T, s *Summary, stat, col string) Cell {
	t.Helper()
	si, ci := -1, -1
	for i, name := range s.Stats {
		if name == stat {
			si = i
		}
	}
	for i, name := range s.Columns {
		if name == col {
			ci = i
		}
	}
	require.NotEqual(t, -1, si, "stat %q missing", stat)
	require.NotEqual(t, -1, ci, "column %q missing", col)
	return s.Values[si][ci]
}

func TestDescribe_Numeric(t *testing.T) {
	s, err := Describe(salesFrame(t))
	require.NoError(t, err)

	assert.Equal(t, statOrder, s.Stats)

	assert.InDelta(t, 3.0, statCell(t, s, StatCount, "sales").Num, 0.0001)
	assert.InDelta(t, 200.0, statCell(t, s, StatMean, "sales").Num, 0.0001)
	assert.InDelta(t, 100.0, statCell(t, s, StatStd, "sales").Num, 0.0001)
	assert.InDelta(t, 100.0, statCell(t, s, StatMin, "sales").Num, 0.0001)
	assert.InDelta(t, 150.0, statCell(t, s, StatP25, "sales").Num, 0.0001)
	assert.InDelta(t, 200.0, statCell(t, s, StatP50, "sales").Num, 0.0001)
	assert.InDelta(t, 250.0, statCell(t, s, StatP75, "sales").Num, 0.0001)
	assert.InDelta(t, 300.0, statCell(t, s, StatMax, "sales").Num, 0.0001)
	assert.False(t, statCell(t, s, StatTop, "sales").Present)
}

func TestDescribe_Text(t *testing.T) {
	f, err := New([]string{"city"}, [][]string{{"Austin"}, {"Dallas"}, {"Dallas"}, {""}})
	require.NoError(t, err)

	s, err := Describe(f)
	require.NoError(t, err)

	assert.Equal(t, []string{StatCount, StatUnique, StatTop, StatFreq}, s.Stats)
	assert.Equal(t, "3", statCell(t, s, StatCount, "city").String())
	assert.Equal(t, "2", statCell(t, s, StatUnique, "city").String())
	assert.Equal(t, "Dallas", statCell(t, s, StatTop, "city").String())
	assert.Equal(t, "2", statCell(t, s, StatFreq, "city").String())
}

func TestDescribe_TextTieKeepsFirstSeen(t *testing.T) {
	f, err := New([]string{"c"}, [][]string{{"b"}, {"a"}})
	require.NoError(t, err)

	s, err := Describe(f)
	require.NoError(t, err)
	assert.Equal(t, "b", statCell(t, s, StatTop, "c").Text)
}

func TestDescribe_SingleValueHasNoStd(t *testing.T) {
	f, err := New([]string{"x"}, [][]string{{"7"}})
	require.NoError(t, err)

	s, err := Describe(f)
	require.NoError(t, err)
	assert.False(t, statCell(t, s, StatStd, "x").Present)
	assert.InDelta(t, 7.0, statCell(t, s, StatP75, "x").Num, 0.0001)
}

func TestDescribe_Dates(t *testing.T) {
	f, err := New([]string{"day"}, [][]string{{"2024-01-01"}, {"2024-01-03"}})
	require.NoError(t, err)

	s, err := Describe(f)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", statCell(t, s, StatMin, "day").String())
	assert.Equal(t, "2024-01-02", statCell(t, s, StatMean, "day").String())
	assert.Equal(t, "2024-01-03", statCell(t, s, StatMax, "day").String())
}

func TestDescribe_NoColumns(t *testing.T) {
	_, err := Describe(&Frame{})
	assert.Error(t, err)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(sorted, 0.25), 0.0001)
	assert.InDelta(t, 2.5, quantile(sorted, 0.5), 0.0001)
	assert.InDelta(t, 4.0, quantile(sorted, 1), 0.0001)
}
