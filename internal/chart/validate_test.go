package chart

import (
	"errors"
	"testing"

	"chartkit-backend/internal/model"
)

func TestValidateYColumnPolicy(t *testing.T) {
	optionalY := map[Type]bool{Histogram: true, Density: true, Heatmap: true, Pie: true}

	for _, ct := range Types {
		t.Run(string(ct), func(t *testing.T) {
			req := model.ChartRequest{ChartType: string(ct), DataPath: "uploads/data/x.json", XColumn: "region"}
			_, err := Validate(req)
			if optionalY[ct] {
				if err != nil {
					t.Errorf("%s without yColumn should validate, got %v", ct, err)
				}
				return
			}
			if !errors.Is(err, ErrMissingColumn) {
				t.Errorf("%s without yColumn: err = %v, want ErrMissingColumn", ct, err)
			}

			req.YColumn = "amount"
			if _, err := Validate(req); err != nil {
				t.Errorf("%s with yColumn should validate, got %v", ct, err)
			}
		})
	}
}

func TestValidateMissingDataReference(t *testing.T) {
	for _, dp := range []string{"", "   "} {
		_, err := Validate(model.ChartRequest{ChartType: "bar", DataPath: dp, YColumn: "y"})
		if !errors.Is(err, ErrMissingDataReference) {
			t.Errorf("DataPath %q: err = %v, want ErrMissingDataReference", dp, err)
		}
	}
}

func TestValidateUnknownChartType(t *testing.T) {
	for _, ct := range []string{"", "area", "treemap"} {
		_, err := Validate(model.ChartRequest{ChartType: ct, DataPath: "d.json"})
		if !errors.Is(err, ErrUnknownChartType) {
			t.Errorf("type %q: err = %v, want ErrUnknownChartType", ct, err)
		}
	}
}

func TestValidateNormalizes(t *testing.T) {
	got, err := Validate(model.ChartRequest{
		ChartType:   "Pie",
		DataPath:    "d.json",
		XColumn:     "region",
		YColumn:     "amount",
		GroupColumn: "year",
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.ChartType != "pie" {
		t.Errorf("ChartType = %q, want pie", got.ChartType)
	}
	if got.YColumn != "" || got.GroupColumn != "" {
		t.Errorf("ignored columns kept: y=%q group=%q", got.YColumn, got.GroupColumn)
	}
	if got.Title != "Pie Chart" {
		t.Errorf("Title = %q, want %q", got.Title, "Pie Chart")
	}

	got, err = Validate(model.ChartRequest{ChartType: "histogram", DataPath: "d.json", XColumn: "a", GroupColumn: "g", Title: "Mine"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.GroupColumn != "g" {
		t.Errorf("histogram should keep groupColumn, got %q", got.GroupColumn)
	}
	if got.Title != "Mine" {
		t.Errorf("explicit title overwritten: %q", got.Title)
	}
}

func TestDefaultTitle(t *testing.T) {
	tests := map[Type]string{
		Bar:       "Bar Chart",
		Boxplot:   "Boxplot Chart",
		Ridgeline: "Ridgeline Chart",
	}
	for ct, want := range tests {
		if got := DefaultTitle(ct); got != want {
			t.Errorf("DefaultTitle(%s) = %q, want %q", ct, got, want)
		}
	}
}
