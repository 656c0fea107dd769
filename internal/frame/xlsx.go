package frame

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSX parses spreadsheet bytes into a Frame using the first sheet. The
// first non-empty row is the header.
func ReadXLSX(data []byte) (*Frame, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	sheet := f.Sheets[0]

	var header []string
	var records [][]string
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := rowToStrings(row)
		if header == nil {
			if isBlank(cells) {
				continue
			}
			header = trimTrailingEmpty(cells, 0)
			continue
		}
		if isBlank(cells) {
			continue
		}
		records = append(records, trimTrailingEmpty(cells, len(header)))
	}

	if header == nil {
		return nil, eris.Errorf("xlsx: sheet %q has no header row", sheet.Name)
	}

	fr, err := New(header, records)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: build frame")
	}
	return fr, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = cell.String()
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// trimTrailingEmpty drops empty cells past the header width; spreadsheets
// often carry formatted-but-empty cells to the right of the data.
func trimTrailingEmpty(cells []string, width int) []string {
	end := len(cells)
	for end > width && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	return cells[:end]
}
