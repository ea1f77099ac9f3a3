// Package labelstore keeps a wallet's BIP-329 labels in memory and persists
// them to <data dir>/labels.jsonl.
//
// A Store is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access themselves.
package labelstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/starford/labelvault/internal/bip329"
	"github.com/starford/labelvault/internal/storage"
)

// FileName is the label file inside the wallet data directory.
const FileName = "labels.jsonl"

// Store owns the label collection of one wallet data directory.
type Store struct {
	labels *bip329.Labels
	path   string

	fs     storage.Provider
	codec  bip329.Codec
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCodec replaces the file codec.
func WithCodec(codec bip329.Codec) Option {
	return func(s *Store) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithProvider replaces the file system provider. The dir argument of Open
// is ignored when a provider is given.
func WithProvider(p storage.Provider) Option {
	return func(s *Store) {
		s.fs = p
	}
}

// WithClock sets the time source used to name temporary files.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads the label file in dir. A missing file yields an empty store;
// any other failure is returned as a *LoadError. Open never writes.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		codec:  bip329.FileCodec{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "labelstore")

	if s.fs == nil {
		fsys, err := storage.Dir(dir)
		if err != nil {
			return nil, &LoadError{Path: dir, Err: err}
		}
		s.fs = fsys
	}
	path, err := s.fs.Path(FileName)
	if err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	}
	s.path = path
	s.logger.Debug("label file path", slog.String("path", path))

	decoded, err := s.codec.DecodeFile(path)
	switch {
	case err == nil:
		s.labels = &bip329.Labels{}
		total := decoded.Len()
		for _, rec := range decoded.Drain() {
			s.labels.Set(rec)
		}
		if dups := total - s.labels.Len(); dups > 0 {
			s.logger.Warn("label file repeats refs, kept the last of each",
				slog.String("path", path),
				slog.Int("duplicates", dups))
		}
		s.logger.Info("loaded labels",
			slog.Int("count", s.labels.Len()),
			slog.String("path", path))
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("label file not found, starting with empty labels", slog.String("path", path))
		s.labels = &bip329.Labels{}
	default:
		return nil, &LoadError{Path: path, Err: err}
	}
	return s, nil
}

// Path returns the absolute path of the label file.
func (s *Store) Path() string { return s.path }

// Provider returns the file system provider of the data directory.
func (s *Store) Provider() storage.Provider { return s.fs }

// SetLabel inserts rec or replaces the record with the same ref.
func (s *Store) SetLabel(rec bip329.Record) {
	s.labels.Set(rec)
}

// ByRef returns the record for ref.
func (s *Store) ByRef(ref bip329.Ref) (bip329.Record, bool) {
	return s.labels.Get(ref)
}

// TextByRef returns the label text for ref. It reports false both when no
// record exists and when the record has no text; use ByRef to tell apart.
func (s *Store) TextByRef(ref bip329.Ref) (string, bool) {
	rec, ok := s.labels.Get(ref)
	if !ok {
		return "", false
	}
	return rec.Text()
}

// All returns the live collection. Callers must not mutate it and must not
// iterate it while the store is being modified.
func (s *Store) All() *bip329.Labels {
	return s.labels
}

// Import drains incoming into the store, upserting each record in order so
// incoming records win and the last duplicate within incoming wins. It
// returns the number of records processed, overwrites included.
func (s *Store) Import(incoming *bip329.Labels) int {
	count := 0
	for _, rec := range incoming.Drain() {
		s.labels.Set(rec)
		count++
	}
	return count
}

// Save writes the whole collection to a temporary file next to the label
// file and renames it over the label file. When the store is empty and no
// label file exists, Save does nothing.
func (s *Store) Save() error {
	if s.labels.IsEmpty() {
		exists, err := s.fs.Exists(FileName)
		if err != nil {
			return &SaveError{Op: "stat", Path: s.path, Err: err}
		}
		if !exists {
			s.logger.Debug("no labels to save and file doesn't exist, skipping save")
			return nil
		}
	}

	parent := filepath.Dir(s.path)
	if parent == "" || parent == s.path {
		return &SaveError{Op: "resolve parent", Path: s.path, Err: errNoParent}
	}

	tempName := fmt.Sprintf("%s%d", tempPrefix, s.now().UnixMilli())
	tempPath := filepath.Join(parent, tempName)

	s.logger.Debug("saving labels atomically",
		slog.String("path", s.path),
		slog.String("temp_path", tempPath))

	if err := s.codec.EncodeFile(s.labels, tempPath); err != nil {
		s.removeTemp(tempName, tempPath)
		return &SaveError{Op: "encode", Path: s.path, TempPath: tempPath, Err: err}
	}

	if err := s.fs.Rename(tempName, FileName); err != nil {
		s.removeTemp(tempName, tempPath)
		return &SaveError{Op: "rename", Path: s.path, TempPath: tempPath, Err: err}
	}

	s.logger.Info("labels saved",
		slog.Int("count", s.labels.Len()),
		slog.String("path", s.path))
	return nil
}

// removeTemp is best effort; a failure never replaces the caller's error.
func (s *Store) removeTemp(name, path string) {
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to clean up temporary label file",
			slog.String("temp_path", path),
			slog.String("error", err.Error()))
	}
}
