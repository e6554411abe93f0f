package model

// ChartRequestBody is the JSON body of POST /api/chart/:type.
type ChartRequestBody struct {
	DataPath    string `json:"dataPath"`
	DatasetID   string `json:"datasetId"`
	XColumn     string `json:"xColumn"`
	YColumn     string `json:"yColumn"`
	GroupColumn string `json:"groupColumn"`
	Title       string `json:"title"`
	UseR        bool   `json:"useR"`
}
