package repository

import "errors"

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means an optimistic write lost the race against a
	// concurrent update of the same record.
	ErrConflict = errors.New("write conflict")
)
