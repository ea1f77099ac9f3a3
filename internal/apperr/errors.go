// Package apperr holds the sentinel errors shared by the service, API and
// MCP layers.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidLabel = errors.New("invalid label")
	ErrConflict     = errors.New("conflict")
)
