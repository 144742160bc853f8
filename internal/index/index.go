// Package index implements the engine's cross-reference indexes (C2):
// pick to amplitudes and pick to origins. Both are keyed by pick id and
// hold pointers to the amplitude and origin objects themselves, not their
// ids. Neither this package nor internal/cache imports the other; the
// engine registers Purge as the cache's eviction callback, which drops the
// entries keyed by an evicted pick id. An evicted amplitude or origin is
// not removed from other picks' lists.
package index

import "github.com/couchcryptid/seismag-engine/internal/domain"

// Indexes holds the two process-wide cross-reference maps described in
// spec.md §4.2.
type Indexes struct {
	// pickToAmplitudes preserves insertion order and forbids duplicate
	// amplitude public ids per pick.
	pickToAmplitudes map[string][]*domain.Amplitude
	amplitudeSeen    map[string]map[string]bool

	// pickToOrigins is nil for a pick never seen, and a non-nil
	// (possibly empty) slice once create_binding has been called —
	// this distinguishes "never queried" from "queried, no origins".
	pickToOrigins map[string][]*domain.Origin
}

// New returns empty indexes.
func New() *Indexes {
	return &Indexes{
		pickToAmplitudes: make(map[string][]*domain.Amplitude),
		amplitudeSeen:    make(map[string]map[string]bool),
		pickToOrigins:    make(map[string][]*domain.Origin),
	}
}

// CreateBinding establishes an empty origin list for pickID if none
// exists yet, distinguishing "never seen" from "seen but no origins".
func (idx *Indexes) CreateBinding(pickID string) {
	if _, ok := idx.pickToOrigins[pickID]; !ok {
		idx.pickToOrigins[pickID] = []*domain.Origin{}
	}
}

// HasBinding reports whether create_binding (or Bind) has ever run for pickID.
func (idx *Indexes) HasBinding(pickID string) bool {
	_, ok := idx.pickToOrigins[pickID]
	return ok
}

// Bind records that origin references pickID through an arrival. Binding
// establishes the pick's entry if it did not already exist, and appends
// origin unless it is already present.
func (idx *Indexes) Bind(pickID string, origin *domain.Origin) {
	idx.CreateBinding(pickID)
	for _, o := range idx.pickToOrigins[pickID] {
		if o.PublicID == origin.PublicID {
			return
		}
	}
	idx.pickToOrigins[pickID] = append(idx.pickToOrigins[pickID], origin)
}

// OriginsForPick returns the origins currently bound to pickID, in the
// order they were bound. Returns nil, false if the pick has never been
// bound (create_binding was never called for it).
func (idx *Indexes) OriginsForPick(pickID string) ([]*domain.Origin, bool) {
	origins, ok := idx.pickToOrigins[pickID]
	return origins, ok
}

// BindAmplitude adds amplitude to pickID's amplitude list, preserving
// insertion order and skipping duplicates by amplitude public id.
func (idx *Indexes) BindAmplitude(pickID string, amp *domain.Amplitude) {
	if idx.amplitudeSeen[pickID] == nil {
		idx.amplitudeSeen[pickID] = make(map[string]bool)
	}
	if idx.amplitudeSeen[pickID][amp.PublicID] {
		return
	}
	idx.amplitudeSeen[pickID][amp.PublicID] = true
	idx.pickToAmplitudes[pickID] = append(idx.pickToAmplitudes[pickID], amp)
}

// AmplitudesForPick returns the amplitudes bound to pickID, in insertion order.
func (idx *Indexes) AmplitudesForPick(pickID string) []*domain.Amplitude {
	return idx.pickToAmplitudes[pickID]
}

// Purge removes every entry keyed by id from both indexes. Registered as
// the cache's on_evict callback (invariant 5/6 of spec.md §3): once a
// pick is evicted, no index may still reference it.
func (idx *Indexes) Purge(id string) {
	delete(idx.pickToOrigins, id)
	delete(idx.pickToAmplitudes, id)
	delete(idx.amplitudeSeen, id)
}
