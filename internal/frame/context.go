package frame

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Row caps used when none is configured.
const (
	DefaultPrimaryRows  = 10
	DefaultFallbackRows = 500
)

// Placeholders used when a fallback context part cannot be serialized.
const (
	headUnavailable     = "Could not serialize head."
	describeUnavailable = "Could not serialize describe."
)

// BuildContext renders the primary data context: a markdown sample of the
// first rows plus a markdown summary table. If statistics cannot be computed
// it degrades to a plain column listing.
func BuildContext(f *Frame, rows int) string {
	if rows <= 0 {
		rows = DefaultPrimaryRows
	}
	head := f.Head(rows)

	sample := head.Markdown()
	desc, err := describeMarkdown(f)
	if err != nil {
		zap.L().Debug("frame: describe unavailable, using column listing", zap.Error(err))
		desc = columnListing(f)
	}

	return fmt.Sprintf(`Here is a sample of the uploaded business data (first %d rows):

%s

And here is a statistical/summary description:

%s
`, rows, sample, desc)
}

// FallbackContext is the larger JSON snapshot given to the secondary provider.
type FallbackContext struct {
	Rows         int
	HeadJSON     string
	DescribeJSON string
	Columns      []string
}

// ColumnsJSON renders the column list as a JSON array.
func (fc FallbackContext) ColumnsJSON() string {
	b, err := json.Marshal(fc.Columns)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// BuildFallbackContext renders the secondary-provider context with a larger
// row sample. Serialization failures become fixed placeholder strings.
func BuildFallbackContext(f *Frame, rows int) FallbackContext {
	if rows <= 0 {
		rows = DefaultFallbackRows
	}
	fc := FallbackContext{Rows: rows, Columns: f.ColumnNames()}

	head, err := f.Head(rows).HeadJSON()
	if err != nil {
		zap.L().Warn("frame: serialize head failed", zap.Error(err))
		head = headUnavailable
	}
	fc.HeadJSON = head

	fc.DescribeJSON = describeUnavailable
	if s, err := Describe(f); err == nil {
		if js, err := s.JSON(); err == nil {
			fc.DescribeJSON = js
		} else {
			zap.L().Warn("frame: serialize describe failed", zap.Error(err))
		}
	}

	return fc
}

func describeMarkdown(f *Frame) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("frame: describe panicked: %v", r)
		}
	}()
	s, err := Describe(f)
	if err != nil {
		return "", err
	}
	return s.Markdown(), nil
}

func columnListing(f *Frame) string {
	if len(f.Columns) == 0 {
		return "(no columns)"
	}
	parts := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		parts[i] = fmt.Sprintf("%s (%s)", c.Name, c.Kind)
	}
	return "Columns: " + strings.Join(parts, ", ")
}
