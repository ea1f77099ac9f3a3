package labelstore

import (
	"errors"
	"fmt"
)

var errNoParent = errors.New("label file has no parent directory")

// LoadError is returned by Open when the label file exists but cannot be
// read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("labelstore: load labels from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SaveError is returned by Save. Op names the failed step: "stat",
// "resolve parent", "encode" or "rename". TempPath is set once a temporary
// file name has been chosen.
type SaveError struct {
	Op       string
	Path     string
	TempPath string
	Err      error
}

func (e *SaveError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.TempPath == "" {
		return fmt.Sprintf("labelstore: save labels to %s: %s: %v", e.Path, e.Op, e.Err)
	}
	return fmt.Sprintf("labelstore: save labels to %s: %s via %s: %v", e.Path, e.Op, e.TempPath, e.Err)
}

func (e *SaveError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
