package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chartkit-backend/internal/chart"
	"chartkit-backend/internal/ingest"
	"chartkit-backend/internal/middleware"
	"chartkit-backend/internal/model"
	"chartkit-backend/internal/render"
	"chartkit-backend/internal/storage"
	"chartkit-backend/internal/utils"
	"chartkit-backend/pkg/logger"

	"github.com/google/uuid"
)

// UploadKind selects the uploads subtree a plain file is stored in.
type UploadKind string

const (
	KindData  UploadKind = "data"
	KindImage UploadKind = "images"
	KindAudio UploadKind = "audio"
)

// StoredFile describes an image or audio upload saved verbatim.
type StoredFile struct {
	Filename string
	Path     string
	Size     int64
}

// IngestOutcome is an ingested upload together with its catalog entry.
type IngestOutcome struct {
	*ingest.Result
	Entry *model.DatasetEntry
}

// ChartService ties ingest, the dataset catalog and the render dispatcher
// together. It holds no per-request state.
type ChartService struct {
	ingestor   *ingest.Ingestor
	dispatcher *render.Dispatcher
	catalog    storage.Storage
	uploadsDir string
	now        func() time.Time
}

func NewChartService(uploadsDir string, ingestor *ingest.Ingestor, dispatcher *render.Dispatcher, catalog storage.Storage) *ChartService {
	return &ChartService{
		ingestor:   ingestor,
		dispatcher: dispatcher,
		catalog:    catalog,
		uploadsDir: uploadsDir,
		now:        time.Now,
	}
}

// UploadsDir is the root of the uploads tree served under /uploads.
func (s *ChartService) UploadsDir() string {
	return s.uploadsDir
}

// TempDir is where rendered charts are written, served under /temp.
func (s *ChartService) TempDir() string {
	return s.dispatcher.TempDir()
}

// IngestUpload ingests a tabular upload and records it in the catalog.
func (s *ChartService) IngestUpload(ctx context.Context, r io.Reader, originalName string) (*IngestOutcome, error) {
	res, err := s.ingestor.Ingest(ctx, r, originalName)
	if err != nil {
		return nil, err
	}

	entry := &model.DatasetEntry{
		ID:           uuid.NewString(),
		DataPath:     res.Dataset.DataPath,
		OriginalName: originalName,
		Format:       string(res.Format),
		RowCount:     res.Dataset.RowCount,
		Columns:      res.Dataset.Columns,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.catalog.AddDataset(entry); err != nil {
		return nil, fmt.Errorf("record dataset: %w", err)
	}

	fields := middleware.LogFields(ctx)
	fields["dataset_id"] = entry.ID
	fields["original_name"] = originalName
	fields["rows"] = entry.RowCount
	logger.WithFields(fields).Info("dataset uploaded")

	return &IngestOutcome{Result: res, Entry: entry}, nil
}

// StoreFile saves an image or audio upload under its kind's subtree.
func (s *ChartService) StoreFile(ctx context.Context, kind UploadKind, r io.Reader, originalName string) (*StoredFile, error) {
	if kind != KindImage && kind != KindAudio {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.uploadsDir, string(kind))
	if err := utils.EnsureDirs(dir); err != nil {
		return nil, err
	}
	filename := utils.UploadFilename(originalName)
	out, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(filepath.Join(dir, filename))
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return &StoredFile{
		Filename: filename,
		Path:     "/uploads/" + string(kind) + "/" + filename,
		Size:     size,
	}, nil
}

// RenderChart resolves the dataset reference, validates req and dispatches
// it. A datasetID takes precedence over req.DataPath.
func (s *ChartService) RenderChart(ctx context.Context, req model.ChartRequest, datasetID string) (*model.ChartResult, error) {
	if datasetID != "" {
		entry, err := s.catalog.GetDataset(datasetID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, datasetID)
		}
		req.DataPath = entry.DataPath
	}

	req, err := chart.Validate(req)
	if err != nil {
		return nil, err
	}
	if req.DataPath, err = s.resolveDataPath(req.DataPath); err != nil {
		return nil, err
	}

	res, err := s.dispatcher.Dispatch(ctx, req)
	if err != nil {
		fields := middleware.LogFields(ctx)
		fields["chart_type"] = req.ChartType
		fields["data_path"] = req.DataPath
		logger.WithFields(fields).Errorf("chart render failed: %v", err)
		return nil, err
	}
	return res, nil
}

// resolveDataPath accepts only snapshots written by the ingestor: a path
// recorded in the catalog, or a snapshot inside the data directory (which
// covers datasets ingested before a restart of the memory catalog).
func (s *ChartService) resolveDataPath(dataPath string) (string, error) {
	notFound := fmt.Errorf("%w: %s", storage.ErrDatasetNotFound, dataPath)

	path := filepath.Clean(dataPath)
	entry, err := s.catalog.GetDatasetByPath(path)
	if errors.Is(err, storage.ErrDatasetNotFound) && path != dataPath {
		entry, err = s.catalog.GetDatasetByPath(dataPath)
	}
	switch {
	case err == nil:
		path = entry.DataPath
	case !errors.Is(err, storage.ErrDatasetNotFound):
		return "", err
	case !s.inDataDir(path) || filepath.Ext(path) != ".json":
		return "", notFound
	}

	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return "", notFound
	}
	return path, nil
}

func (s *ChartService) inDataDir(path string) bool {
	dir, err := filepath.Abs(s.ingestor.DataDir())
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *ChartService) ListDatasets() ([]*model.DatasetEntry, error) {
	return s.catalog.ListDatasets()
}

// GetDataset returns a catalog entry with a preview re-read from its
// snapshot.
func (s *ChartService) GetDataset(id string) (*model.DatasetResponse, error) {
	entry, err := s.catalog.GetDataset(id)
	if err != nil {
		return nil, err
	}
	snap, err := ingest.ReadSnapshot(entry.DataPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: snapshot %s is gone", storage.ErrDatasetNotFound, entry.DataPath)
		}
		return nil, err
	}
	ds := model.UploadedDataset{Rows: snap.Rows}
	return &model.DatasetResponse{DatasetEntry: *entry, Preview: ds.Preview(ingest.PreviewRows)}, nil
}

// ImagePath is the URL path under which a rendered chart is served.
func (s *ChartService) ImagePath(outputPath string) string {
	rel, err := filepath.Rel(s.TempDir(), outputPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "/" + filepath.ToSlash(outputPath)
	}
	return "/temp/" + filepath.ToSlash(rel)
}
