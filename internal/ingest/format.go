package ingest

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatCSV         Format = "csv"
	FormatSpreadsheet Format = "spreadsheet"
)

// FormatForExtension maps an asserted file extension (with or without the
// leading dot, any case) to a parser.
func FormatForExtension(ext string) (Format, error) {
	e := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	switch e {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "xlsm", "xls":
		return FormatSpreadsheet, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
