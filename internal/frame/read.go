package frame

import (
	"github.com/rotisserie/eris"
)

// Read parses an upload, trying comma-separated text first and then a
// spreadsheet. When both fail the returned error carries both causes, the
// spreadsheet error last.
func Read(data []byte) (*Frame, error) {
	f, csvErr := ReadCSV(data)
	if csvErr == nil {
		return f, nil
	}

	f, xlsxErr := ReadXLSX(data)
	if xlsxErr == nil {
		return f, nil
	}

	return nil, eris.Errorf("%s (csv attempt: %s)", xlsxErr.Error(), csvErr.Error())
}
