package storage

import "errors"

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrDuplicateID     = errors.New("dataset id already exists")
	ErrInvalidData     = errors.New("invalid data")
	ErrStorageInit     = errors.New("storage initialization failed")
)
