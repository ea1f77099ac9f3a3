package index

import "github.com/starford/labelvault/internal/bip329"

// LabelIndex is the part of the index the label service writes and queries.
type LabelIndex interface {
	UpsertLabel(rec bip329.Record) error
	ReplaceAll(labels *bip329.Labels) error
	Search(query string, limit int) ([]SearchResult, error)
	Count() (int, error)
	Close() error
}

var _ LabelIndex = (*DB)(nil)
