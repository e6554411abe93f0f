package chart

import (
	"strings"

	"chartkit-backend/internal/model"
)

type detectEntry struct {
	Type     string
	Name     string
	Label    string
	Keywords []string
}

// detectTable is a filename heuristic, not a classifier: the first entry with
// a keyword contained in the lower-cased filename wins. "area" is recognised
// here even though it cannot be rendered.
var detectTable = []detectEntry{
	{"bar", "Bar Chart", "Bar Chart (Sütun Grafik)", []string{"bar", "막대", "막대그래프"}},
	{"line", "Line Chart", "Line Chart (Çizgi Grafik)", []string{"line", "çizgi", "trend"}},
	{"scatter", "Scatter Plot", "Scatter Plot (Nokta Grafik)", []string{"scatter", "nokta", "dağılım"}},
	{"pie", "Pie Chart", "Pie Chart (Pasta Grafik)", []string{"pie", "pasta", "dilim"}},
	{"histogram", "Histogram", "Histogram (Dağılım Grafik)", []string{"histogram", "dağılım", "frekans"}},
	{"boxplot", "Box Plot", "Box Plot (Kutu Grafik)", []string{"box", "kutu", "boxplot"}},
	{"violin", "Violin Plot", "Violin Plot (Keman Grafik)", []string{"violin", "keman"}},
	{"heatmap", "Heatmap", "Heatmap (Isı Haritası)", []string{"heat", "ısı", "heatmap"}},
	{"density", "Density Plot", "Density Plot (Yoğunluk Grafik)", []string{"density", "yoğunluk"}},
	{"area", "Area Chart", "Area Chart (Alan Grafik)", []string{"area", "alan", "alansal"}},
}

// DetectFromFilename guesses a chart type from an image filename, or nil.
func DetectFromFilename(filename string) *model.ChartTypeInfo {
	lower := strings.ToLower(filename)
	for _, e := range detectTable {
		for _, kw := range e.Keywords {
			if strings.Contains(lower, kw) {
				return &model.ChartTypeInfo{Type: e.Type, Name: e.Name}
			}
		}
	}
	return nil
}

// SupportedImageTypes lists the detector table with display labels.
func SupportedImageTypes() []model.ChartTypeInfo {
	out := make([]model.ChartTypeInfo, 0, len(detectTable))
	for _, e := range detectTable {
		out = append(out, model.ChartTypeInfo{Type: e.Type, Name: e.Label})
	}
	return out
}
