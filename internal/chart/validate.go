package chart

import (
	"fmt"
	"strings"

	"chartkit-backend/internal/model"
)

// Validate checks req and returns a normalized copy: the chart type is
// lower-cased, ignored columns are cleared and the title is defaulted.
// Whether the named columns exist in the dataset is left to the renderer.
func Validate(req model.ChartRequest) (model.ChartRequest, error) {
	if strings.TrimSpace(req.DataPath) == "" {
		return req, ErrMissingDataReference
	}

	t, ok := Parse(req.ChartType)
	if !ok {
		return req, fmt.Errorf("%w: %q", ErrUnknownChartType, req.ChartType)
	}
	policy := policies[t]
	req.ChartType = string(t)

	switch policy.YColumn {
	case Required:
		if req.YColumn == "" {
			return req, fmt.Errorf("%w: %s chart needs yColumn", ErrMissingColumn, t)
		}
	case Ignored:
		req.YColumn = ""
	}
	if policy.GroupColumn == Ignored {
		req.GroupColumn = ""
	}

	if req.Title == "" {
		req.Title = DefaultTitle(t)
	}
	return req, nil
}
