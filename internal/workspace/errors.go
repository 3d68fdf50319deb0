package workspace

import "errors"

var (
	ErrNotFound     = errors.New("workspace: not found")
	ErrInvalidInput = errors.New("workspace: invalid input")
	ErrConflict     = errors.New("workspace: conflict")
	ErrUnavailable  = errors.New("workspace: feature unavailable")
)
