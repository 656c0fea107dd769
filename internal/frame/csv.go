package frame

import (
	"bytes"
	"encoding/csv"
	"io"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	zipMagic   = []byte("PK\x03\x04")
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// ReadCSV parses comma-separated bytes into a Frame. The first record is the
// header. A UTF-8 or UTF-16 byte order mark is honoured and stripped.
func ReadCSV(data []byte) (*Frame, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1 // validated against the header in New
	reader.LazyQuotes = true

	var header []string
	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		if header == nil {
			header = record
			continue
		}
		records = append(records, record)
	}

	if header == nil {
		return nil, eris.New("csv: no columns to parse from file")
	}

	f, err := New(header, records)
	if err != nil {
		return nil, eris.Wrap(err, "csv: build frame")
	}
	return f, nil
}

func decodeText(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return nil, eris.New("csv: input is a zip container, not delimited text")
	}
	isUTF16 := bytes.HasPrefix(data, utf16LEBOM) || bytes.HasPrefix(data, utf16BEBOM)
	if !isUTF16 && !utf8.Valid(data) {
		return nil, eris.New("csv: input is not valid UTF-8 text")
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return nil, eris.Wrap(err, "csv: decode text")
	}
	return out, nil
}
