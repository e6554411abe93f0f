package storage

import (
	"fmt"

	"chartkit-backend/internal/config"
	"chartkit-backend/internal/model"
)

// Storage is the dataset catalog. Entries are immutable once added.
type Storage interface {
	// 数据集管理
	AddDataset(entry *model.DatasetEntry) error
	GetDataset(id string) (*model.DatasetEntry, error)
	GetDatasetByPath(dataPath string) (*model.DatasetEntry, error)
	ListDatasets() ([]*model.DatasetEntry, error)

	// 存储管理
	Init() error
	Close() error
}

// New builds the catalog selected by cfg.Catalog and initializes it.
func New(cfg config.StorageConfig) (Storage, error) {
	var s Storage
	switch cfg.Catalog {
	case "", "memory":
		s = NewMemoryStorage()
	case "sqlite":
		s = NewSQLiteStorage(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: unknown catalog %q", ErrStorageInit, cfg.Catalog)
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}
