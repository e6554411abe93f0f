package chart

import "errors"

var (
	ErrMissingDataReference = errors.New("missing data reference")
	ErrUnknownChartType     = errors.New("unknown chart type")
	ErrMissingColumn        = errors.New("missing required column")
)
