package ingest

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"chartkit-backend/internal/model"

	"github.com/xuri/excelize/v2"
)

// parseSpreadsheet reads the first sheet. The first row is the header; blank
// header cells become "__EMPTY", "__EMPTY_1", ... and repeated names get a
// numeric suffix. Blank cells are omitted from a row and blank rows skipped.
func parseSpreadsheet(r io.Reader) (*table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Format: FormatSpreadsheet, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &table{}, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Format: FormatSpreadsheet, Err: err}
	}
	if len(rows) == 0 {
		return &table{}, nil
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	header := headerNames(rows[0], width)

	t := &table{order: header}
	for _, row := range rows[1:] {
		rec := model.Record{}
		for i, cell := range row {
			if cell == "" {
				continue
			}
			rec[header[i]] = cellValue(cell)
		}
		if len(rec) > 0 {
			t.rows = append(t.rows, rec)
		}
	}
	return t, nil
}

func headerNames(first []string, width int) []string {
	names := make([]string, width)
	seen := map[string]int{}
	for i := 0; i < width; i++ {
		name := ""
		if i < len(first) {
			name = first[i]
		}
		if name == "" {
			name = "__EMPTY"
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

// cellValue returns int64 for integers, float64 for decimals, otherwise the
// raw string.
func cellValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}
