package model

import "time"

// Record is one row of an ingested dataset. Rows from heterogeneous sources
// may lack some columns.
type Record map[string]interface{}

// UploadedDataset is the immutable result of ingesting one upload.
type UploadedDataset struct {
	DataPath string   `json:"dataPath"`
	Columns  []string `json:"columns"`
	RowCount int      `json:"rowCount"`
	Rows     []Record `json:"-"`
}

// Preview returns at most n leading rows.
func (d *UploadedDataset) Preview(n int) []Record {
	if len(d.Rows) < n {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// DatasetEntry is the catalog record kept for every successful ingest.
type DatasetEntry struct {
	ID           string    `json:"id"`
	DataPath     string    `json:"dataPath"`
	OriginalName string    `json:"originalName"`
	Format       string    `json:"format"`
	RowCount     int       `json:"rowCount"`
	Columns      []string  `json:"columns"`
	CreatedAt    time.Time `json:"createdAt"`
}
