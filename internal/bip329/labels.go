package bip329

import (
	"fmt"
	"iter"
	"slices"
)

// Labels is an ordered collection of label records with a position index by
// Ref. Order carries no meaning beyond being stable for encoding.
//
// Set keeps at most one record per Ref. Append does not check and exists for
// collections that mirror a file verbatim, such as an import batch; when such
// a collection holds several records for one Ref, Get returns the first.
// Merging the batch into a store applies last-wins, so Get on the raw batch
// can differ from what the store ends up holding.
//
// The zero value is an empty collection ready to use.
type Labels struct {
	records []Record
	index   map[Ref]int
}

// NewLabels returns a collection holding recs, upserted in order.
func NewLabels(recs ...Record) *Labels {
	l := &Labels{}
	for _, r := range recs {
		l.Set(r)
	}
	return l
}

// Len returns the number of records.
func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}

// IsEmpty reports whether the collection holds no records.
func (l *Labels) IsEmpty() bool {
	return l.Len() == 0
}

// All iterates the records in order.
func (l *Labels) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if l == nil {
			return
		}
		for _, r := range l.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Records returns a copy of the records slice.
func (l *Labels) Records() []Record {
	if l == nil {
		return nil
	}
	return slices.Clone(l.records)
}

// Get returns the record for ref.
func (l *Labels) Get(ref Ref) (Record, bool) {
	if l == nil || l.index == nil {
		return nil, false
	}
	i, ok := l.index[ref]
	if !ok {
		return nil, false
	}
	return l.records[i], true
}

// Set inserts rec, or replaces the record already stored under rec.Ref().
// It reports whether an existing record was replaced.
func (l *Labels) Set(rec Record) bool {
	l.init()
	ref := rec.Ref()
	if i, ok := l.index[ref]; ok {
		l.records[i] = rec
		return true
	}
	l.index[ref] = len(l.records)
	l.records = append(l.records, rec)
	return false
}

// Append adds rec without checking for an existing record with the same Ref.
func (l *Labels) Append(rec Record) {
	l.init()
	ref := rec.Ref()
	if _, ok := l.index[ref]; !ok {
		l.index[ref] = len(l.records)
	}
	l.records = append(l.records, rec)
}

// Drain removes and returns every record, leaving the collection empty.
func (l *Labels) Drain() []Record {
	if l == nil {
		return nil
	}
	out := l.records
	l.records = nil
	l.index = nil
	return out
}

// Validate checks every record and reports the first invalid one by its
// 1-based position in the collection.
func (l *Labels) Validate() error {
	i := 0
	for rec := range l.All() {
		i++
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("bip329: record %d (%s): %w", i, rec.Ref(), err)
		}
	}
	return nil
}

// CountByType returns the number of records of each type.
func (l *Labels) CountByType() map[Type]int {
	out := make(map[Type]int, len(Types))
	for r := range l.All() {
		out[r.Ref().Type]++
	}
	return out
}

func (l *Labels) init() {
	if l.index == nil {
		l.index = make(map[Ref]int, len(l.records))
	}
}
