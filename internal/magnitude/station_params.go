package magnitude

import "sync"

// StationParameterSource looks up configuration overrides for a station,
// keyed by (module name, network, station) per spec.md §6's Config
// collaborator. It is the slow path StationParameterResolver caches.
type StationParameterSource interface {
	StationSettings(moduleName, network, station string) StationSettings
}

// StationParameterResolver caches per-station parameter lookups keyed by
// station id, evicting least-recently-used entries once maxEntries is
// exceeded. A map plus a hand-rolled doubly-linked list kept in recency
// order, applied here to the per-station resolution spec.md §4.4 step 1
// requires be cached on first lookup.
type StationParameterResolver struct {
	source     StationParameterSource
	moduleName string
	maxEntries int

	mu      sync.Mutex
	entries map[string]*paramEntry
	head    *paramEntry
	tail    *paramEntry
}

type paramEntry struct {
	stationID string
	settings  StationSettings
	prev      *paramEntry
	next      *paramEntry
}

// NewStationParameterResolver builds a resolver backed by source, caching
// up to maxEntries station lookups.
func NewStationParameterResolver(source StationParameterSource, moduleName string, maxEntries int) *StationParameterResolver {
	return &StationParameterResolver{
		source:     source,
		moduleName: moduleName,
		maxEntries: maxEntries,
		entries:    make(map[string]*paramEntry),
	}
}

// Resolve returns the settings for (network, station), consulting the
// cache first and the underlying source on a miss.
func (r *StationParameterResolver) Resolve(network, station string) StationSettings {
	stationID := network + "." + station

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[stationID]; ok {
		r.moveToFront(e)
		return e.settings
	}

	settings := r.source.StationSettings(r.moduleName, network, station)
	e := &paramEntry{stationID: stationID, settings: settings}
	r.entries[stationID] = e
	r.addToFront(e)
	if len(r.entries) > r.maxEntries {
		r.evictTail()
	}
	return settings
}

func (r *StationParameterResolver) moveToFront(e *paramEntry) {
	if e == r.head {
		return
	}
	r.unlink(e)
	r.addToFront(e)
}

func (r *StationParameterResolver) addToFront(e *paramEntry) {
	e.next = r.head
	e.prev = nil
	if r.head != nil {
		r.head.prev = e
	}
	r.head = e
	if r.tail == nil {
		r.tail = e
	}
}

func (r *StationParameterResolver) unlink(e *paramEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		r.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		r.tail = e.prev
	}
}

func (r *StationParameterResolver) evictTail() {
	if r.tail == nil {
		return
	}
	delete(r.entries, r.tail.stationID)
	r.unlink(r.tail)
}
