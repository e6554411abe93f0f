package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"chartkit-backend/internal/model"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS datasets (
	id            TEXT PRIMARY KEY,
	data_path     TEXT NOT NULL,
	original_name TEXT NOT NULL DEFAULT '',
	format        TEXT NOT NULL DEFAULT '',
	row_count     INTEGER NOT NULL DEFAULT 0,
	columns       TEXT NOT NULL DEFAULT '[]',
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_datasets_data_path ON datasets(data_path);
CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets(created_at);
`

const datasetColumns = `id, data_path, original_name, format, row_count, columns, created_at`

// SQLiteStorage keeps the catalog in a single SQLite file so it survives
// restarts.
type SQLiteStorage struct {
	path string
	db   *sql.DB
}

func NewSQLiteStorage(path string) *SQLiteStorage {
	return &SQLiteStorage{path: path}
}

func (s *SQLiteStorage) Init() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create catalog dir: %v", ErrStorageInit, err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+s.path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return fmt.Errorf("%w: open catalog db: %v", ErrStorageInit, err)
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return fmt.Errorf("%w: migrate catalog db: %v", ErrStorageInit, err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) AddDataset(entry *model.DatasetEntry) error {
	if entry == nil || entry.ID == "" || entry.DataPath == "" {
		return ErrInvalidData
	}
	cols, err := json.Marshal(entry.Columns)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if entry.Columns == nil {
		cols = []byte("[]")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM datasets WHERE id = ?`, entry.ID).Scan(&n); err != nil {
		return fmt.Errorf("check dataset: %w", err)
	}
	if n > 0 {
		return ErrDuplicateID
	}

	_, err = tx.Exec(
		`INSERT INTO datasets (`+datasetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.DataPath, entry.OriginalName, entry.Format, entry.RowCount,
		string(cols), entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStorage) GetDataset(id string) (*model.DatasetEntry, error) {
	row := s.db.QueryRow(`SELECT `+datasetColumns+` FROM datasets WHERE id = ?`, id)
	return scanDataset(row)
}

// GetDatasetByPath returns the most recent entry for dataPath.
func (s *SQLiteStorage) GetDatasetByPath(dataPath string) (*model.DatasetEntry, error) {
	row := s.db.QueryRow(
		`SELECT `+datasetColumns+` FROM datasets WHERE data_path = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		dataPath,
	)
	return scanDataset(row)
}

func (s *SQLiteStorage) ListDatasets() ([]*model.DatasetEntry, error) {
	rows, err := s.db.Query(`SELECT ` + datasetColumns + ` FROM datasets ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var entries []*model.DatasetEntry
	for rows.Next() {
		e, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(sc scanner) (*model.DatasetEntry, error) {
	var (
		e         model.DatasetEntry
		cols      string
		createdAt string
	)
	err := sc.Scan(&e.ID, &e.DataPath, &e.OriginalName, &e.Format, &e.RowCount, &cols, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}
	if err := json.Unmarshal([]byte(cols), &e.Columns); err != nil {
		return nil, fmt.Errorf("decode columns: %w", err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	return &e, nil
}
