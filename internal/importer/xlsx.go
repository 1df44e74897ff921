package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first worksheet of a workbook. The first non-empty row
// names the columns; empty cells and fully empty rows are left out, and
// columns with a blank header are ignored.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("importer: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []Row{}, nil
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("importer: read sheet %q: %w", sheets[0], err)
	}

	var header []string
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		if header == nil {
			if !blankRecord(record) {
				header = record
			}
			continue
		}
		row := make(Row, 0, len(header))
		for i, value := range record {
			if i >= len(header) || strings.TrimSpace(header[i]) == "" || value == "" {
				continue
			}
			row = append(row, Field{Key: header[i], Value: value})
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
