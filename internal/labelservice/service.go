// Package labelservice serializes access to a label store and keeps the
// search index and event listeners in step with it.
package labelservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/starford/labelvault/internal/apperr"
	"github.com/starford/labelvault/internal/bip329"
	"github.com/starford/labelvault/internal/checksum"
	"github.com/starford/labelvault/internal/index"
	"github.com/starford/labelvault/internal/labelstore"
)

// Event kinds passed to a Notifier.
const (
	EventSet            = "set"
	EventImported       = "imported"
	EventSaved          = "saved"
	EventExternalChange = "external_change"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Notifier receives label change events.
type Notifier interface {
	PublishLabelEvent(kind string, data any)
}

// LabelView is the JSON representation of one record.
type LabelView struct {
	Type      bip329.Type `json:"type"`
	Ref       string      `json:"ref"`
	Label     *string     `json:"label,omitempty"`
	Origin    *string     `json:"origin,omitempty"`
	Spendable *bool       `json:"spendable,omitempty"`
}

// LabelInput carries the mutable fields of a record. Origin is accepted for
// tx records only and Spendable for output records only.
type LabelInput struct {
	Label     *string `json:"label,omitempty"`
	Origin    *string `json:"origin,omitempty"`
	Spendable *bool   `json:"spendable,omitempty"`
}

// Stats summarizes the in-memory label set.
type Stats struct {
	Total    int                 `json:"total"`
	ByType   map[bip329.Type]int `json:"by_type"`
	Path     string              `json:"path"`
	Checksum string              `json:"checksum"`
	Dirty    bool                `json:"dirty"`
	Indexed  int                 `json:"indexed"`
}

// Service coordinates the store, the index and notifications. All methods
// are safe for concurrent use.
type Service struct {
	mu       sync.Mutex
	store    *labelstore.Store
	db       index.LabelIndex
	notifier Notifier
	logger   *slog.Logger
	autoSave bool

	// saved is the checksum of the label file as last loaded or saved.
	saved string
	dirty bool
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the event listener.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAutoSave makes Set and Import persist the store before returning.
func WithAutoSave(enabled bool) Option {
	return func(s *Service) { s.autoSave = enabled }
}

// NewService wraps store, fingerprints its label file and rebuilds the index.
func NewService(store *labelstore.Store, db index.LabelIndex, opts ...Option) (*Service, error) {
	s := &Service{store: store, db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	sum, err := checksum.File(store.Path())
	if err != nil {
		return nil, fmt.Errorf("labelservice: fingerprint label file: %w", err)
	}
	s.saved = sum
	if err := index.Sync(db, store.All(), s.logger); err != nil {
		return nil, fmt.Errorf("labelservice: sync index: %w", err)
	}
	return s, nil
}

// Get returns the record for ref.
func (s *Service) Get(_ context.Context, ref bip329.Ref) (*LabelView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.store.ByRef(ref)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	v := viewOf(rec)
	return &v, nil
}

// Set validates and upserts the record for ref.
func (s *Service) Set(_ context.Context, ref bip329.Ref, in LabelInput) (*LabelView, error) {
	rec, err := BuildRecord(ref, in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.SetLabel(rec)
	s.dirty = true
	if err := s.db.UpsertLabel(rec); err != nil {
		return nil, fmt.Errorf("labelservice: index label: %w", err)
	}
	v := viewOf(rec)
	s.notify(EventSet, v)

	if s.autoSave {
		if _, err := s.saveLocked(""); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

// List returns one page of records in insertion order, optionally filtered
// by type, with the total number of matching records.
func (s *Service) List(_ context.Context, typ bip329.Type, limit, offset int) ([]LabelView, int, error) {
	if typ != "" && !typ.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown type %q", apperr.ErrInvalidLabel, typ)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := []LabelView{}
	total := 0
	for rec := range s.store.All().All() {
		if typ != "" && rec.Ref().Type != typ {
			continue
		}
		if total >= offset && len(items) < limit {
			items = append(items, viewOf(rec))
		}
		total++
	}
	return items, total, nil
}

// Import decodes BIP-329 lines from r and merges them into the store.
// Incoming records win. It returns the number of records processed.
func (s *Service) Import(_ context.Context, r io.Reader) (int, error) {
	incoming, err := bip329.Decode(r)
	if err != nil {
		var perr *bip329.ParseError
		if errors.As(err, &perr) {
			return 0, fmt.Errorf("%w: %v", apperr.ErrInvalidLabel, err)
		}
		return 0, fmt.Errorf("labelservice: read import: %w", err)
	}
	if err := incoming.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", apperr.ErrInvalidLabel, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.store.Import(incoming)
	if n == 0 {
		return 0, nil
	}
	s.dirty = true
	if err := index.Sync(s.db, s.store.All(), s.logger); err != nil {
		return n, fmt.Errorf("labelservice: sync index: %w", err)
	}
	s.logger.Info("labels imported", slog.Int("count", n), slog.Int("total", s.store.All().Len()))
	s.notify(EventImported, map[string]int{"count": n, "total": s.store.All().Len()})

	if s.autoSave {
		if _, err := s.saveLocked(""); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Export writes every record to w as BIP-329 lines.
func (s *Service) Export(_ context.Context, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bip329.Encode(w, s.store.All())
}

// Save persists the store and returns the checksum of the written file.
// When ifMatch is non-empty it must equal the checksum of the label file
// currently on disk, otherwise apperr.ErrConflict is returned and nothing
// is written.
func (s *Service) Save(_ context.Context, ifMatch string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ifMatch)
}

// SaveIfDirty saves only when the store changed since the last save.
func (s *Service) SaveIfDirty(ctx context.Context) error {
	s.mu.Lock()
	dirty := s.dirty
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	_, err := s.Save(ctx, "")
	return err
}

func (s *Service) saveLocked(ifMatch string) (string, error) {
	if ifMatch != "" {
		onDisk, err := checksum.File(s.store.Path())
		if err != nil {
			return "", fmt.Errorf("labelservice: fingerprint label file: %w", err)
		}
		if onDisk != ifMatch {
			return "", apperr.ErrConflict
		}
	}
	if err := s.store.Save(); err != nil {
		return "", err
	}
	sum, err := checksum.File(s.store.Path())
	if err != nil {
		return "", fmt.Errorf("labelservice: fingerprint label file: %w", err)
	}
	s.saved = sum
	s.dirty = false
	s.notify(EventSaved, map[string]any{"count": s.store.All().Len(), "checksum": sum})
	return sum, nil
}

// Search runs a full-text query against the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	return results, nil
}

// Stats reports counts for the in-memory label set.
func (s *Service) Stats(_ context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	labels := s.store.All()
	indexed, err := s.db.Count()
	if err != nil {
		s.logger.Warn("counting indexed labels failed", slog.String("error", err.Error()))
	}
	return Stats{
		Total:    labels.Len(),
		ByType:   labels.CountByType(),
		Path:     s.store.Path(),
		Checksum: s.saved,
		Dirty:    s.dirty,
		Indexed:  indexed,
	}
}

// Checksum returns the checksum of the label file as last loaded or saved,
// or "" when there is none.
func (s *Service) Checksum() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// ExternalChange reports a change to the label file made outside this
// process. The in-memory labels are kept.
func (s *Service) ExternalChange(kind, path string) {
	s.logger.Warn("label file changed externally, next save will overwrite it",
		slog.String("kind", kind),
		slog.String("path", path))
	s.notify(EventExternalChange, map[string]string{"kind": kind, "path": path})
}

func (s *Service) notify(kind string, data any) {
	if s.notifier != nil {
		s.notifier.PublishLabelEvent(kind, data)
	}
}
