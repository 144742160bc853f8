package engine

import (
	"time"

	"github.com/couchcryptid/seismag-engine/internal/domain"
)

// Record wraps an object retrieved from the Archive with the per-record
// indicators spec.md §6 requires for the retroactive-update race window:
// whether the record came from cache (always false through this
// collaborator — the engine's own cache is the cache layer) and when it
// was last modified in storage.
type Record struct {
	Object       domain.PublicObject
	Cached       bool
	LastModified time.Time
}

// Archive is the engine's external persistence collaborator (spec.md §6).
// Implementations must never block indefinitely: query failures are
// treated by the engine as empty results with a warning (§7,
// ArchiveUnavailable), so Archive methods should return promptly on error
// rather than retry internally.
type Archive interface {
	GetPicks(originID string) ([]Record, error)
	GetAmplitudesForOrigin(originID string) ([]Record, error)
	GetOriginsForAmplitude(amplitudeID string) ([]Record, error)
	LoadArrivals(origin *domain.Origin) error
	LoadMagnitudes(origin *domain.Origin) error
	LoadStationMagnitudes(origin *domain.Origin) error
	Load(id string) (Record, bool, error)
}

// Sink is the engine's external publication collaborator (spec.md §6).
type Sink interface {
	DumpOrigin(origin *domain.Origin) error
	LogObject(kind string, at time.Time)
}

// ConfigSource is the engine's external configuration collaborator: a
// hierarchical key/value store plus per-station setup lookups keyed by
// (module name, network, station), matching spec.md §6.
type ConfigSource interface {
	StationSettings(moduleName, network, station string) map[string]string
}
