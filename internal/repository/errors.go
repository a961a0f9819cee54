package repository

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")
)
