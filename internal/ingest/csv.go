package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"chartkit-backend/internal/model"
)

// parseCSV reads a header line followed by data rows. Values stay strings.
// Header names are made unique the same way as spreadsheet headers. A short
// row simply lacks the trailing columns; cells beyond the header are keyed
// "_<index>".
func parseCSV(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &table{}, nil
	}
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	header = headerNames(header, len(header))

	t := &table{order: append([]string(nil), header...)}
	extra := map[int]bool{}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: FormatCSV, Err: err}
		}

		rec := make(model.Record, len(fields))
		for i, v := range fields {
			if i < len(header) {
				rec[header[i]] = v
				continue
			}
			rec["_"+strconv.Itoa(i)] = v
			extra[i] = true
		}
		t.rows = append(t.rows, rec)
	}

	for i := len(header); len(extra) > 0; i++ {
		if extra[i] {
			t.order = append(t.order, "_"+strconv.Itoa(i))
			delete(extra, i)
		}
	}
	return t, nil
}
