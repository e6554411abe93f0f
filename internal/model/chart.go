package model

// ChartRequest is built per request from client input and never persisted.
type ChartRequest struct {
	ChartType   string
	DataPath    string
	XColumn     string
	YColumn     string
	GroupColumn string
	Title       string
	UsePrimary  bool
}

// RenderParams is the parameter contract shared by every rendering backend.
// The field set is fixed; optional columns are sent as empty strings.
type RenderParams struct {
	ChartType   string `json:"chartType"`
	DataPath    string `json:"dataPath"`
	OutputPath  string `json:"outputPath"`
	XColumn     string `json:"xColumn"`
	YColumn     string `json:"yColumn"`
	GroupColumn string `json:"groupColumn"`
	Title       string `json:"title"`
}

// ChartResult is the outcome of a successful dispatch.
type ChartResult struct {
	ChartType  string
	DataURI    string
	OutputPath string
	Backend    string
}
