package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"chartkit-backend/internal/ingest"
	"chartkit-backend/internal/model"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const histogramBins = 30

var accent = drawing.ColorFromHex("667eea")

// NativeRenderer draws a subset of chart types in-process with go-chart. It
// reads the snapshot named in the parameter contract just like the external
// backends do.
type NativeRenderer struct {
	name   string
	width  int
	height int
}

func NewNativeRenderer(name string) *NativeRenderer {
	if name == "" {
		name = "native"
	}
	return &NativeRenderer{name: name, width: 1024, height: 640}
}

func (r *NativeRenderer) Name() string {
	return r.name
}

// Supports reports whether the chart type can be drawn natively.
func (r *NativeRenderer) Supports(chartType string) bool {
	switch chartType {
	case "bar", "line", "scatter", "pie", "histogram":
		return true
	}
	return false
}

type pngRenderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func (r *NativeRenderer) Render(ctx context.Context, p model.RenderParams) error {
	if !r.Supports(p.ChartType) {
		return invocationError(r.name, ErrUnsupportedChart, fmt.Sprintf("%s charts are not supported natively", p.ChartType))
	}
	if err := ctx.Err(); err != nil {
		return invocationError(r.name, err, "")
	}

	snap, err := ingest.ReadSnapshot(p.DataPath)
	if err != nil {
		return invocationError(r.name, err, fmt.Sprintf("read data: %v", err))
	}
	if err := requireColumn(snap.Rows, p.XColumn); err != nil {
		return invocationError(r.name, err, err.Error())
	}
	if p.YColumn != "" && (p.ChartType == "bar" || p.ChartType == "line" || p.ChartType == "scatter") {
		if err := requireColumn(snap.Rows, p.YColumn); err != nil {
			return invocationError(r.name, err, err.Error())
		}
	}

	var c pngRenderable
	switch p.ChartType {
	case "bar":
		c = r.barChart(snap.Rows, p)
	case "pie":
		c = r.pieChart(snap.Rows, p)
	case "histogram":
		c, err = r.histogram(snap.Rows, p)
	case "line":
		c, err = r.xyChart(snap.Rows, p, false)
	case "scatter":
		c, err = r.xyChart(snap.Rows, p, true)
	}
	if err != nil {
		return invocationError(r.name, err, err.Error())
	}

	out, err := os.Create(p.OutputPath)
	if err != nil {
		return invocationError(r.name, err, "")
	}
	if err := c.Render(chart.PNG, out); err != nil {
		out.Close()
		os.Remove(p.OutputPath)
		return invocationError(r.name, err, err.Error())
	}
	return out.Close()
}

// barChart sums y per distinct x in first-seen order.
func (r *NativeRenderer) barChart(rows []model.Record, p model.RenderParams) *chart.BarChart {
	sums := map[string]float64{}
	var labels []string
	for _, row := range rows {
		x, ok := row[p.XColumn]
		if !ok {
			continue
		}
		y, ok := toFloat(row[p.YColumn])
		if !ok {
			continue
		}
		l := label(x)
		if _, seen := sums[l]; !seen {
			labels = append(labels, l)
		}
		sums[l] += y
	}

	bars := make([]chart.Value, 0, len(labels))
	for _, l := range labels {
		bars = append(bars, chart.Value{Label: l, Value: sums[l], Style: chart.Style{FillColor: accent, StrokeColor: accent}})
	}
	return &chart.BarChart{
		Title:      p.Title,
		Width:      r.width,
		Height:     r.height,
		BarWidth:   barWidth(r.width, len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		Bars:       bars,
	}
}

// pieChart counts occurrences of each x value, largest first.
func (r *NativeRenderer) pieChart(rows []model.Record, p model.RenderParams) *chart.PieChart {
	counts := map[string]int{}
	var labels []string
	for _, row := range rows {
		x, ok := row[p.XColumn]
		if !ok {
			continue
		}
		l := label(x)
		if counts[l] == 0 {
			labels = append(labels, l)
		}
		counts[l]++
	}
	sort.SliceStable(labels, func(i, j int) bool { return counts[labels[i]] > counts[labels[j]] })

	values := make([]chart.Value, 0, len(labels))
	for _, l := range labels {
		values = append(values, chart.Value{Label: l, Value: float64(counts[l])})
	}
	return &chart.PieChart{
		Title:  p.Title,
		Width:  r.height,
		Height: r.height,
		Values: values,
	}
}

func (r *NativeRenderer) histogram(rows []model.Record, p model.RenderParams) (*chart.BarChart, error) {
	var xs []float64
	for _, row := range rows {
		if v, ok := toFloat(row[p.XColumn]); ok {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("column %q has no numeric values", p.XColumn)
	}

	lo, hi := xs[0], xs[0]
	for _, v := range xs {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	bins := histogramBins
	if hi == lo {
		bins = 1
	}
	// divided before subtracting so extreme ranges stay finite
	step := hi/float64(bins) - lo/float64(bins)
	counts := make([]int, bins)
	for _, v := range xs {
		i := bins - 1
		if step > 0 {
			pos := v/step - lo/step
			switch {
			case math.IsNaN(pos) || pos < 0:
				i = 0
			case pos < float64(bins):
				i = int(pos)
			}
		}
		counts[i]++
	}

	bars := make([]chart.Value, bins)
	for i := range counts {
		bars[i] = chart.Value{
			Label: strconv.FormatFloat(lo+float64(i)*step, 'g', 3, 64),
			Value: float64(counts[i]),
			Style: chart.Style{FillColor: accent, StrokeColor: accent},
		}
	}
	return &chart.BarChart{
		Title:      p.Title,
		Width:      r.width,
		Height:     r.height,
		BarWidth:   barWidth(r.width, bins),
		BarSpacing: 2,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{Name: "Frequency"},
		Bars:       bars,
	}, nil
}

// xyChart draws one series per group (or a single series). Non-numeric x
// values are plotted at their row position and labelled with ticks.
func (r *NativeRenderer) xyChart(rows []model.Record, p model.RenderParams, points bool) (*chart.Chart, error) {
	numericX := true
	for _, row := range rows {
		if _, ok := toFloat(row[p.XColumn]); !ok {
			numericX = false
			break
		}
	}

	type series struct {
		xs, ys []float64
	}
	groups := map[string]*series{}
	var order []string
	var ticks []chart.Tick
	for i, row := range rows {
		y, ok := toFloat(row[p.YColumn])
		if !ok {
			continue
		}
		x, ok := toFloat(row[p.XColumn])
		if !numericX {
			x = float64(i)
			ticks = append(ticks, chart.Tick{Value: x, Label: label(row[p.XColumn])})
		} else if !ok {
			continue
		}

		g := ""
		if p.GroupColumn != "" {
			g = label(row[p.GroupColumn])
		}
		s, seen := groups[g]
		if !seen {
			s = &series{}
			groups[g] = s
			order = append(order, g)
		}
		s.xs = append(s.xs, x)
		s.ys = append(s.ys, y)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("no numeric values for %q", p.YColumn)
	}

	c := &chart.Chart{
		Title:      p.Title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: p.XColumn, Ticks: ticks},
		YAxis:      chart.YAxis{Name: p.YColumn},
	}
	for i, g := range order {
		s := groups[g]
		xs, ys := s.xs, s.ys
		// go-chart needs a non-zero range on both axes
		if len(xs) == 1 {
			xs, ys = []float64{xs[0], xs[0] + 1}, []float64{ys[0], ys[0]}
		}
		col := accent
		if p.GroupColumn != "" {
			col = chart.GetDefaultColor(i)
		}
		style := chart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 3}
		if points {
			style = chart.Style{StrokeWidth: chart.Disabled, DotColor: col, DotWidth: 4}
		}
		name := g
		if name == "" {
			name = p.YColumn
		}
		c.Series = append(c.Series, chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: style})
	}
	if p.GroupColumn != "" {
		c.Elements = []chart.Renderable{chart.Legend(c)}
	}
	return c, nil
}

func requireColumn(rows []model.Record, col string) error {
	if col == "" {
		return fmt.Errorf("column name is empty")
	}
	for _, row := range rows {
		if _, ok := row[col]; ok {
			return nil
		}
	}
	return fmt.Errorf("column %q not found in data", col)
}

func barWidth(width, n int) int {
	if n <= 0 {
		return 40
	}
	w := (width-120)/n - 10
	if w < 4 {
		return 4
	}
	if w > 80 {
		return 80
	}
	return w
}

func label(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}
