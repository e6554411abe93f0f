package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"chartkit-backend/internal/model"
	"chartkit-backend/internal/utils"
	"chartkit-backend/pkg/logger"
)

const PreviewRows = 5

// Ingestor turns uploaded tabular files into normalized snapshots.
type Ingestor struct {
	dataDir string
}

func NewIngestor(dataDir string) *Ingestor {
	return &Ingestor{dataDir: dataDir}
}

// DataDir is where uploads and their snapshots are written.
func (i *Ingestor) DataDir() string {
	return i.dataDir
}

// Result describes one ingested upload.
type Result struct {
	Dataset    *model.UploadedDataset
	Format     Format
	Filename   string
	UploadPath string
}

// Ingest stores the upload under the data directory and ingests it. The
// extension is checked before anything is written or parsed.
func (i *Ingestor) Ingest(ctx context.Context, r io.Reader, originalName string) (*Result, error) {
	ext := filepath.Ext(originalName)
	format, err := FormatForExtension(ext)
	if err != nil {
		return nil, err
	}

	if err := utils.EnsureDirs(i.dataDir); err != nil {
		return nil, err
	}
	filename := utils.UploadFilename(originalName)
	uploadPath := filepath.Join(i.dataDir, filename)
	if err := saveUpload(uploadPath, r); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	ds, err := i.parseAndSnapshot(ctx, uploadPath, format)
	if err != nil {
		return nil, err
	}
	return &Result{Dataset: ds, Format: format, Filename: filename, UploadPath: uploadPath}, nil
}

func (i *Ingestor) parseAndSnapshot(ctx context.Context, uploadPath string, format Format) (*model.UploadedDataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(uploadPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := parse(f, format)
	if err != nil {
		return nil, err
	}

	snapPath := SnapshotPath(uploadPath)
	if err := WriteSnapshot(snapPath, t.order, t.rows); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"upload":   uploadPath,
		"snapshot": snapPath,
		"format":   format,
		"rows":     len(t.rows),
	}).Debug("dataset ingested")

	return &model.UploadedDataset{
		DataPath: snapPath,
		Columns:  t.columns(),
		RowCount: len(t.rows),
		Rows:     t.rows,
	}, nil
}

// parse dispatches to the parser for format.
func parse(r io.Reader, format Format) (*table, error) {
	switch format {
	case FormatCSV:
		return parseCSV(r)
	case FormatSpreadsheet:
		return parseSpreadsheet(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func saveUpload(path string, r io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
