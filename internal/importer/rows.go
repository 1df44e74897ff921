// Package importer reads roster spreadsheets (XLSX workbooks, or JSON and CSV
// exports) and normalizes their loosely named columns into students.
package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Format names a supported input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a format name such as "csv" or "XLSX".
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

var (
	// ErrUnsupportedFormat is returned for inputs that are not JSON, CSV or XLSX.
	ErrUnsupportedFormat = errors.New("importer: unsupported format")
	// ErrMalformed wraps decoding failures of the uploaded file.
	ErrMalformed = errors.New("importer: malformed input")
)

// Field is one column of a row. Rows keep their columns in input order
// because the first matching alias wins.
type Field struct {
	Key   string
	Value any
}

// Row is one record of the input.
type Row []Field

// lookup returns the value of the first column whose lower-cased name is one
// of aliases.
func (r Row) lookup(aliases ...string) any {
	for _, f := range r {
		key := strings.ToLower(strings.TrimSpace(f.Key))
		for _, alias := range aliases {
			if key == alias {
				return f.Value
			}
		}
	}
	return nil
}

// ReadRows decodes r according to format. Decoding failures wrap
// ErrMalformed.
func ReadRows(format Format, r io.Reader) ([]Row, error) {
	var (
		rows []Row
		err  error
	)
	switch format {
	case FormatJSON:
		rows, err = ReadJSON(r)
	case FormatCSV:
		rows, err = ReadCSV(r)
	case FormatXLSX:
		rows, err = ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return rows, nil
}

// ReadJSON decodes an array of objects. Numbers are kept as json.Number so
// long registration numbers survive unchanged.
func ReadJSON(r io.Reader) ([]Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	rows := make([]Row, 0)
	for dec.More() {
		row, err := readObject(dec)
		if err != nil {
			return nil, fmt.Errorf("importer: row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return rows, nil
}

func readObject(dec *json.Decoder) (Row, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	row := make(Row, 0, 4)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		row = append(row, Field{Key: key, Value: value})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return row, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("importer: decode json: %w", err)
	}
	if got, ok := tok.(json.Delim); !ok || got != want {
		return fmt.Errorf("importer: decode json: expected %q, got %v", want, tok)
	}
	return nil
}

// ReadCSV decodes a header row followed by records. Comma and semicolon
// separated files are both accepted.
func ReadCSV(r io.Reader) ([]Row, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("importer: read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comma = detectComma(raw)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("importer: read csv header: %w", err)
	}

	rows := make([]Row, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: read csv: %w", err)
		}
		row := make(Row, 0, len(header))
		for i, key := range header {
			if i >= len(record) {
				break
			}
			row = append(row, Field{Key: key, Value: record[i]})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// detectComma picks ';' when the header line has more semicolons than commas,
// as spreadsheets in pt-BR locales export.
func detectComma(raw []byte) rune {
	line := raw
	if idx := bytes.IndexByte(raw, '\n'); idx >= 0 {
		line = raw[:idx]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}
