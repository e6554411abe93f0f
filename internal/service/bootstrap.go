package service

import (
	"fmt"
	"path/filepath"

	"chartkit-backend/internal/config"
	"chartkit-backend/internal/ingest"
	"chartkit-backend/internal/render"
	"chartkit-backend/internal/storage"
	"chartkit-backend/internal/utils"
)

// NewFromConfig wires the ingestor, catalog and dispatcher described by cfg.
// The caller owns the returned catalog and must Close it.
func NewFromConfig(cfg *config.Config) (*ChartService, storage.Storage, error) {
	dataDir := filepath.Join(cfg.Storage.UploadsDir, string(KindData))
	if err := utils.EnsureDirs(
		dataDir,
		filepath.Join(cfg.Storage.UploadsDir, string(KindImage)),
		filepath.Join(cfg.Storage.UploadsDir, string(KindAudio)),
		cfg.Storage.TempDir,
	); err != nil {
		return nil, nil, fmt.Errorf("create storage dirs: %w", err)
	}

	catalog, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	dispatcher, err := render.NewDispatcherFromConfig(cfg.Renderer, cfg.Storage.TempDir)
	if err != nil {
		catalog.Close()
		return nil, nil, err
	}

	svc := NewChartService(cfg.Storage.UploadsDir, ingest.NewIngestor(dataDir), dispatcher, catalog)
	return svc, catalog, nil
}
