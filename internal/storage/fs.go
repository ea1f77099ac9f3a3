package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the wallet data directory
}

var _ Provider = (*FS)(nil)

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Dir returns a provider for root without requiring the directory to exist.
// Operations fail with fs.ErrNotExist until it is created.
func Dir(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	return &FS{root: abs}, nil
}

// Root implements Provider.
func (f *FS) Root() string { return f.root }

// Path resolves a relative name against the root and rejects any result
// that escapes it.
func (f *FS) Path(name string) (string, error) {
	if name == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", name)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes data dir: %s", name)
	}
	return abs, nil
}

// Exists implements Provider. Errors other than not-exist are returned.
func (f *FS) Exists(name string) (bool, error) {
	abs, err := f.Path(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return true, nil
}

// Rename implements Provider.
func (f *FS) Rename(oldName, newName string) error {
	absOld, err := f.Path(oldName)
	if err != nil {
		return err
	}
	absNew, err := f.Path(newName)
	if err != nil {
		return err
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

// Remove implements Provider.
func (f *FS) Remove(name string) error {
	abs, err := f.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: remove %s: %w", name, err)
	}
	return nil
}

// Glob implements Provider. Results are sorted names relative to root.
func (f *FS) Glob(pattern string) ([]string, error) {
	if strings.ContainsRune(pattern, os.PathSeparator) {
		return nil, fmt.Errorf("storage: glob pattern must not contain a separator: %s", pattern)
	}
	matches, err := filepath.Glob(filepath.Join(f.root, pattern))
	if err != nil {
		return nil, fmt.Errorf("storage: glob: %w", err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Base(m))
	}
	sort.Strings(out)
	return out, nil
}
