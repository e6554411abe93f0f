package service

import "errors"

var (
	ErrNoFile      = errors.New("no file uploaded")
	ErrInvalidKind = errors.New("invalid upload kind")
)
