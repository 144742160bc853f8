// Package cache implements the engine's bounded-lifetime store of picks,
// amplitudes, and origins (C1 in the design), keyed by public id. The
// internal/index package keys its entries by pick id and holds pointers to
// the same amplitude and origin objects, not their ids.
package cache

import (
	"time"

	"github.com/couchcryptid/seismag-engine/internal/domain"
)

// EvictFunc is invoked once per evicted object, before it is dropped from
// the cache. It runs with notifications suppressed: implementations must
// not emit external change events from inside this callback.
type EvictFunc func(obj domain.PublicObject)

// Archive is the minimal lookup the cache falls back to on a miss.
// It mirrors the engine's external Archive collaborator but narrowed to
// single-object retrieval.
type Archive interface {
	Load(id string) (domain.PublicObject, bool, error)
}

type entry struct {
	obj      domain.PublicObject
	insertedAt time.Time
}

// Cache is an expiring store of domain.PublicObjects keyed by public id.
// It is not safe for concurrent use; the engine is single-threaded by
// design (see spec §5).
type Cache struct {
	clock   func() time.Time
	expiry  time.Duration
	entries map[string]entry
	onEvict EvictFunc

	suppressed bool
}

// New constructs a Cache with the given expiry and time source. clock
// defaults to time.Now when nil.
func New(expiry time.Duration, clock func() time.Time) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		clock:   clock,
		expiry:  expiry,
		entries: make(map[string]entry),
	}
}

// OnEvict registers the single eviction callback. A later call replaces
// the previous one, mirroring the spec's "single registered callback".
func (c *Cache) OnEvict(fn EvictFunc) { c.onEvict = fn }

// Suppressed reports whether eviction/insert notifications are currently
// suppressed — callers that need to emit their own change events can check
// this to decide whether to do so.
func (c *Cache) Suppressed() bool { return c.suppressed }

// WithSuppressedNotifications runs fn with the cache's suppression scope
// held, restoring the prior state on exit even if fn panics.
func (c *Cache) WithSuppressedNotifications(fn func()) {
	prev := c.suppressed
	c.suppressed = true
	defer func() { c.suppressed = prev }()
	fn()
}

// Feed inserts obj or refreshes its expiry if already present.
func (c *Cache) Feed(obj domain.PublicObject) {
	c.entries[obj.ID()] = entry{obj: obj, insertedAt: c.clock()}
}

// Get performs a typed lookup by id, expiring stale entries as it goes.
// On a miss it does not itself consult the archive — callers needing the
// archive fallback described in §4.1 should use GetOrLoad.
func (c *Cache) Get(id string) (domain.PublicObject, bool) {
	c.expireOne(id)
	e, ok := c.entries[id]
	if !ok {
		return domain.PublicObject{}, false
	}
	return e.obj, true
}

// GetOrLoad looks up id in the cache, falling back to the archive on a
// miss. A loaded object is inserted with the current timestamp.
func (c *Cache) GetOrLoad(id string, archive Archive) (domain.PublicObject, bool) {
	if obj, ok := c.Get(id); ok {
		return obj, true
	}
	if archive == nil {
		return domain.PublicObject{}, false
	}
	obj, ok, err := archive.Load(id)
	if err != nil || !ok {
		return domain.PublicObject{}, false
	}
	c.Feed(obj)
	return obj, true
}

// Remove evicts id immediately (manual removal), invoking on_evict under
// notification suppression just as expiry does.
func (c *Cache) Remove(id string) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	c.evict(id, e.obj)
}

// ExpireAll sweeps every entry older than the configured expiry, evicting
// each. Call periodically, or before a lookup that must reflect current age.
func (c *Cache) ExpireAll() {
	now := c.clock()
	var stale []string
	for id, e := range c.entries {
		if c.expiry > 0 && now.Sub(e.insertedAt) >= c.expiry {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		if e, ok := c.entries[id]; ok {
			c.evict(id, e.obj)
		}
	}
}

func (c *Cache) expireOne(id string) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	if c.expiry > 0 && c.clock().Sub(e.insertedAt) >= c.expiry {
		c.evict(id, e.obj)
	}
}

func (c *Cache) evict(id string, obj domain.PublicObject) {
	delete(c.entries, id)
	if c.onEvict == nil {
		return
	}
	c.WithSuppressedNotifications(func() {
		c.onEvict(obj)
	})
}

// Len reports the number of live entries, without triggering expiry.
func (c *Cache) Len() int { return len(c.entries) }
