// Package engine implements the magnitude engine's top-level pipeline:
// the origin processor (C7) and retroactive updater (C8), driving the
// cache (internal/cache), indexes (internal/index), and magnitude
// pipeline (internal/magnitude) behind the three ingress entry points
// feed_pick, feed_amplitude, and feed_origin (spec.md §6).
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/seismag-engine/internal/cache"
	"github.com/couchcryptid/seismag-engine/internal/domain"
	"github.com/couchcryptid/seismag-engine/internal/index"
	"github.com/couchcryptid/seismag-engine/internal/magnitude"
	"github.com/couchcryptid/seismag-engine/internal/observability"
)

// Engine is the single-threaded cooperative pipeline described in
// spec.md §5. It owns its cache and indexes exclusively; callers must
// never invoke its entry points concurrently.
type Engine struct {
	cache   *cache.Cache
	indexes *index.Indexes
	registry *magnitude.Registry
	resolver *magnitude.StationParameterResolver

	archive Archive
	sink    Sink

	cfg    Config
	logger *slog.Logger
	metrics *observability.Metrics

	processedAtLeastOne atomic.Bool
}

// New builds an Engine. archive and sink may be nil: the engine treats a
// nil archive as always-empty (spec.md §7, ArchiveUnavailable) and a nil
// sink as a no-op dump.
func New(cfg Config, registry *magnitude.Registry, resolver *magnitude.StationParameterResolver, archive Archive, sink Sink, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	c := cache.New(cfg.CacheExpiry, nil)
	idx := index.New()
	c.OnEvict(func(obj domain.PublicObject) {
		metrics.CacheEvictions.Inc()
		idx.Purge(obj.ID())
	})

	return &Engine{
		cache:    c,
		indexes:  idx,
		registry: registry,
		resolver: resolver,
		archive:  archive,
		sink:     sink,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness implements the ReadinessChecker interface the HTTP
// adapter's /readyz handler expects: the engine is ready once it has
// processed at least one origin.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.processedAtLeastOne.Load() {
		return errNotReady
	}
	return nil
}

var errNotReady = &notReadyError{}

type notReadyError struct{}

func (*notReadyError) Error() string { return "engine has not processed any origin yet" }

// CacheSize implements the HTTP adapter's StatsProvider interface.
func (e *Engine) CacheSize() int { return e.cache.Len() }

// FeedPick implements the feed_pick ingress entry point (spec.md §6):
// validate agency, insert into the cache, and seed an empty pick→origin
// binding so later lookups distinguish "never seen" from "seen, no origins".
func (e *Engine) FeedPick(p *domain.Pick) bool {
	e.metrics.PicksFed.Inc()
	if e.cfg.BlockedAgencies[p.AgencyID] {
		e.logger.Info("pick rejected: blocked agency", "pick", p.PublicID, "agency", p.AgencyID)
		return false
	}
	e.cache.Feed(domain.NewPickObject(p))
	e.indexes.CreateBinding(p.PublicID)
	e.metrics.CacheSize.Set(float64(e.cache.Len()))
	return true
}

func (e *Engine) now() domain.CreationInfo {
	now := domain.Now()
	return domain.CreationInfo{CreationTime: now, ModificationTime: &now}
}
