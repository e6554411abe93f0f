package model

type DataUploadResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Filename  string   `json:"filename"`
	RowCount  int      `json:"rowCount"`
	Columns   []string `json:"columns"`
	Preview   []Record `json:"preview"`
	DataPath  string   `json:"dataPath"`
	DatasetID string   `json:"datasetId"`
}

type ChartTypeInfo struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type ImageUploadResponse struct {
	Success             bool            `json:"success"`
	Message             string          `json:"message"`
	Filename            string          `json:"filename"`
	OriginalName        string          `json:"originalName"`
	Path                string          `json:"path"`
	Size                int64           `json:"size"`
	DetectedChartType   *ChartTypeInfo  `json:"detectedChartType"`
	SupportedChartTypes []ChartTypeInfo `json:"supportedChartTypes"`
	Info                string          `json:"info"`
}

type AudioUploadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

type ChartResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ChartType string `json:"chartType"`
	Image     string `json:"image"`
	ImagePath string `json:"imagePath"`
	Backend   string `json:"backend,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type DatasetListResponse struct {
	Datasets []*DatasetEntry `json:"datasets"`
}

type DatasetResponse struct {
	DatasetEntry
	Preview []Record `json:"preview"`
}
