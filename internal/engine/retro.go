package engine

import (
	"time"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	"github.com/couchcryptid/seismag-engine/internal/magnitude"
)

// FeedAmplitude implements the feed_amplitude ingress entry point and the
// C8 retroactive updater described in spec.md §4.8. update mirrors the
// host's "this is a revision, not a first arrival" hint; it is forwarded
// to the station magnitude upsert as the insert-only/overwrite distinction.
func (e *Engine) FeedAmplitude(amp *domain.Amplitude, update bool) bool {
	e.metrics.AmplitudesFed.Inc()

	if e.cfg.BlockedAgencies[amp.AgencyID] {
		e.logger.Info("amplitude rejected: blocked agency", "amplitude", amp.PublicID, "agency", amp.AgencyID)
		return false
	}
	if len(e.registry.ProcessorsFor(amp.Type)) == 0 {
		e.logger.Debug("amplitude rejected: no processor for type", "amplitude", amp.PublicID, "type", amp.Type)
		return false
	}

	if _, ok := e.cache.Get(amp.PublicID); ok {
		return false // already fed; spec.md §4.8 step 2 dedup
	}
	e.cache.Feed(domain.NewAmplitudeObject(amp))
	e.indexes.BindAmplitude(amp.PickID, amp)
	e.touchPick(amp.PickID)

	origins := e.originsForLateAmplitude(amp)

	anyUpdated := false
	for _, origin := range origins {
		if e.applyRetroactiveUpdate(origin, amp, update) {
			anyUpdated = true
		}
	}

	if anyUpdated {
		e.metrics.RetroactiveUpdatesApplied.Inc()
	} else {
		e.metrics.RetroactiveUpdatesSkipped.Inc()
	}
	return anyUpdated
}

// touchPick re-inserts the pick into the cache to refresh its expiry,
// ensuring it stays retained as long as amplitudes keep referencing it
// (spec.md §4.8 step 2, "even if we only touch it").
func (e *Engine) touchPick(pickID string) {
	if obj, ok := e.cache.Get(pickID); ok {
		e.cache.Feed(obj)
	}
}

// originsForLateAmplitude implements C8 step 3: return the origins already
// bound to the amplitude's pick. Only when the pick has no binding at all
// (never fed and never queried) and an archive is available is the archive
// queried, under suppressed notifications, skipping any origin modified
// within the race-avoidance window (cache_expiry/2). A pick whose binding
// exists but is empty, such as one seeded by FeedPick, is not queried.
func (e *Engine) originsForLateAmplitude(amp *domain.Amplitude) []*domain.Origin {
	if origins, ok := e.indexes.OriginsForPick(amp.PickID); ok && len(origins) > 0 {
		return origins
	}
	if e.indexes.HasBinding(amp.PickID) {
		return nil // already queried the archive for this pick; don't repeat
	}
	if e.archive == nil {
		e.indexes.CreateBinding(amp.PickID)
		return nil
	}

	e.indexes.CreateBinding(amp.PickID)

	var fetched []*domain.Origin
	e.cache.WithSuppressedNotifications(func() {
		records, err := e.archive.GetOriginsForAmplitude(amp.PublicID)
		if err != nil {
			e.logger.Warn("archive get_origins_for_amplitude failed", "amplitude", amp.PublicID, "error", err)
			return
		}
		raceWindow := e.cfg.CacheExpiry / 2
		for _, rec := range records {
			origin, ok := rec.Object.Origin()
			if !ok {
				continue
			}
			if !rec.Cached && raceWindow > 0 && time.Since(rec.LastModified) < raceWindow {
				e.metrics.RaceDeferred.Inc()
				continue
			}
			if err := e.archive.LoadArrivals(origin); err != nil {
				e.logger.Warn("archive load_arrivals failed", "origin", origin.PublicID, "error", err)
			}
			if err := e.archive.LoadMagnitudes(origin); err != nil {
				e.logger.Warn("archive load_magnitudes failed", "origin", origin.PublicID, "error", err)
			}
			if err := e.archive.LoadStationMagnitudes(origin); err != nil {
				e.logger.Warn("archive load_station_magnitudes failed", "origin", origin.PublicID, "error", err)
			}
			e.cache.Feed(domain.NewOriginObject(origin))
			e.indexes.Bind(amp.PickID, origin)
			fetched = append(fetched, origin)
		}
	})
	return fetched
}

// applyRetroactiveUpdate implements C8 steps 4-6 for one bound origin:
// locate the matching arrival under the "first P" rule, run C4/C5/C6 for
// the affected type, and dump the origin.
func (e *Engine) applyRetroactiveUpdate(origin *domain.Origin, amp *domain.Amplitude, update bool) bool {
	arrival, ok := e.matchingArrival(origin, amp)
	if !ok {
		return false
	}

	results := magnitude.ComputeStationMagnitudes(e.registry, e.resolver, amp, arrival.Distance, depthOf(origin))
	if len(results) == 0 {
		return false
	}

	changedTypes := make(map[string]bool)
	for _, res := range results {
		magnitude.UpsertStationMagnitude(origin, origin.PublicID, amp.WaveformID, res.Type, res.Value, amp.PublicID, !update, e.now())
		changedTypes[res.Type] = true
		e.metrics.StationMagnitudesComputed.Inc()
	}

	for magType := range changedTypes {
		e.aggregateType(origin, magType)
	}
	e.computeSummary(origin)

	if e.sink != nil {
		if err := e.sink.DumpOrigin(origin); err != nil {
			e.logger.Warn("sink dump failed", "origin", origin.PublicID, "error", err)
		}
	}
	return true
}

// matchingArrival implements the "first P" rule of spec.md §4.8 step 4:
// among valid arrivals whose pick shares the amplitude's waveform
// (network, station, location), the matching arrival is the one whose
// pick id equals the amplitude's pick id and whose pick time is the
// earliest among them. Any other, earlier pick at the same
// network/station/location disqualifies the match.
func (e *Engine) matchingArrival(origin *domain.Origin, amp *domain.Amplitude) (domain.Arrival, bool) {
	var candidate domain.Arrival
	var candidateFound bool
	var candidateTime time.Time
	var earliestOther time.Time
	var haveOther bool

	for _, arr := range origin.Arrivals {
		if !domain.ValidArrival(arr, e.cfg.MinimumArrivalWeight) {
			continue
		}
		obj, ok := e.cache.Get(arr.PickID)
		if !ok {
			continue
		}
		pick, ok := obj.Pick()
		if !ok {
			continue
		}
		if pick.WaveformID.LocationID() != amp.WaveformID.LocationID() {
			continue
		}

		if arr.PickID == amp.PickID {
			candidate = arr
			candidateFound = true
			candidateTime = pick.Time
			continue
		}
		if !haveOther || pick.Time.Before(earliestOther) {
			earliestOther = pick.Time
			haveOther = true
		}
	}

	if !candidateFound {
		e.logger.Debug("no matching valid arrival for amplitude", "amplitude", amp.PublicID, "origin", origin.PublicID)
		return domain.Arrival{}, false
	}
	if haveOther && earliestOther.Before(candidateTime) {
		e.logger.Debug("another earlier pick exists at this station, skipping", "amplitude", amp.PublicID, "origin", origin.PublicID)
		return domain.Arrival{}, false
	}
	return candidate, true
}
