package chart

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Type string

const (
	Boxplot   Type = "boxplot"
	Scatter   Type = "scatter"
	Line      Type = "line"
	Bar       Type = "bar"
	Histogram Type = "histogram"
	Violin    Type = "violin"
	Density   Type = "density"
	Heatmap   Type = "heatmap"
	Ridgeline Type = "ridgeline"
	Pie       Type = "pie"
)

// ColumnUse says how a chart type treats an optional column.
type ColumnUse int

const (
	Ignored ColumnUse = iota
	Used
	Required
)

func (u ColumnUse) String() string {
	switch u {
	case Used:
		return "used"
	case Required:
		return "required"
	default:
		return "ignored"
	}
}

type Policy struct {
	YColumn     ColumnUse
	GroupColumn ColumnUse
}

// Types lists the enumeration in route order.
var Types = []Type{Boxplot, Scatter, Line, Bar, Histogram, Violin, Density, Heatmap, Ridgeline, Pie}

var policies = map[Type]Policy{
	Histogram: {YColumn: Ignored, GroupColumn: Used},
	Density:   {YColumn: Ignored, GroupColumn: Used},
	Heatmap:   {YColumn: Ignored, GroupColumn: Ignored},
	Pie:       {YColumn: Ignored, GroupColumn: Ignored},
	Boxplot:   {YColumn: Required, GroupColumn: Used},
	Scatter:   {YColumn: Required, GroupColumn: Used},
	Line:      {YColumn: Required, GroupColumn: Used},
	Bar:       {YColumn: Required, GroupColumn: Used},
	Violin:    {YColumn: Required, GroupColumn: Used},
	Ridgeline: {YColumn: Required, GroupColumn: Used},
}

// Parse maps a route segment to a chart type.
func Parse(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	_, ok := policies[t]
	return t, ok
}

func PolicyFor(t Type) (Policy, bool) {
	p, ok := policies[t]
	return p, ok
}

// DefaultTitle is "<CapitalizedChartType> Chart".
func DefaultTitle(t Type) string {
	s := string(t)
	if s == "" {
		return "Chart"
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:] + " Chart"
}
