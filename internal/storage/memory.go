package storage

import (
	"sync"

	"chartkit-backend/internal/model"
)

type MemoryStorage struct {
	datasets map[string]*model.DatasetEntry
	byPath   map[string]string
	order    []string
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		datasets: make(map[string]*model.DatasetEntry),
		byPath:   make(map[string]string),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) AddDataset(entry *model.DatasetEntry) error {
	if entry == nil || entry.ID == "" || entry.DataPath == "" {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.datasets[entry.ID]; exists {
		return ErrDuplicateID
	}
	cp := *entry
	cp.Columns = append([]string(nil), entry.Columns...)
	m.datasets[entry.ID] = &cp
	m.byPath[entry.DataPath] = entry.ID
	m.order = append(m.order, entry.ID)
	return nil
}

func (m *MemoryStorage) GetDataset(id string) (*model.DatasetEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.datasets[id]
	if !exists {
		return nil, ErrDatasetNotFound
	}
	cp := *entry
	return &cp, nil
}

func (m *MemoryStorage) GetDatasetByPath(dataPath string) (*model.DatasetEntry, error) {
	m.mu.RLock()
	id, exists := m.byPath[dataPath]
	m.mu.RUnlock()
	if !exists {
		return nil, ErrDatasetNotFound
	}
	return m.GetDataset(id)
}

// ListDatasets returns entries newest first.
func (m *MemoryStorage) ListDatasets() ([]*model.DatasetEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*model.DatasetEntry, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		cp := *m.datasets[m.order[i]]
		entries = append(entries, &cp)
	}
	return entries, nil
}
