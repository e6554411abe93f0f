package ingest

import (
	"errors"
	"fmt"
)

var ErrUnsupportedFormat = errors.New("unsupported file format (use .csv or .xlsx)")

// ParseError wraps the underlying parser failure for a malformed upload.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
