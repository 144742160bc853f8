package engine

import (
	"time"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	"github.com/couchcryptid/seismag-engine/internal/magnitude"
)

// FeedOrigin implements the feed_origin ingress entry point and drives the
// C7 origin processor pipeline described in spec.md §4.7.
func (e *Engine) FeedOrigin(origin *domain.Origin) bool {
	e.metrics.OriginsFed.Inc()

	start := time.Now()
	defer func() { e.metrics.OriginProcessingDuration.Observe(time.Since(start).Seconds()) }()

	origin = e.completeOrigin(origin)
	if origin == nil {
		return false
	}

	e.retrieveMissingPicksAndAmplitudes(origin)

	picksByStream := e.bindAndSelectCandidatePicks(origin)

	emittedTypes := e.computeStationMagnitudesForOrigin(origin, picksByStream)

	for magType := range emittedTypes {
		e.aggregateType(origin, magType)
	}

	e.computeSummary(origin)

	if e.sink != nil {
		if err := e.sink.DumpOrigin(origin); err != nil {
			e.logger.Warn("sink dump failed", "origin", origin.PublicID, "error", err)
		}
	}

	e.processedAtLeastOne.Store(true)
	e.metrics.OriginsProcessed.Inc()
	return true
}

// completeOrigin implements C7 step 1: adopt a cached instance on
// duplicate, reject if the evaluation status marks it rejected, and fill
// in missing arrivals/magnitudes/station-magnitudes from the archive.
func (e *Engine) completeOrigin(origin *domain.Origin) *domain.Origin {
	if cached, ok := e.cache.Get(origin.PublicID); ok {
		if existing, isOrigin := cached.Origin(); isOrigin {
			origin = existing
		}
	}

	if origin.Rejected() {
		e.logger.Info("origin rejected by evaluation status", "origin", origin.PublicID)
		return nil
	}

	if len(origin.Arrivals) == 0 && e.archive != nil {
		if err := e.archive.LoadArrivals(origin); err != nil {
			e.logger.Warn("archive load_arrivals failed", "origin", origin.PublicID, "error", err)
		}
	}
	if len(origin.Arrivals) == 0 {
		e.logger.Info("origin has no arrivals, skipping", "origin", origin.PublicID)
		return nil
	}

	if len(origin.NetworkMagnitudes) == 0 && e.archive != nil {
		if err := e.archive.LoadMagnitudes(origin); err != nil {
			e.logger.Warn("archive load_magnitudes failed", "origin", origin.PublicID, "error", err)
		}
	}
	if len(origin.StationMagnitudes) == 0 && e.archive != nil {
		if err := e.archive.LoadStationMagnitudes(origin); err != nil {
			e.logger.Warn("archive load_station_magnitudes failed", "origin", origin.PublicID, "error", err)
		}
	}

	e.cache.Feed(domain.NewOriginObject(origin))
	return origin
}

// retrieveMissingPicksAndAmplitudes implements C7 step 2: for every
// sufficiently-weighted arrival whose pick is neither cached nor already
// amplitude-bound, fetch it (and its amplitudes) from the archive and
// feed them in under notification suppression so this does not itself
// trigger a retroactive update (spec.md §4.8's suppression flag).
func (e *Engine) retrieveMissingPicksAndAmplitudes(origin *domain.Origin) {
	if e.archive == nil {
		return
	}

	var toFetch []string
	for _, arr := range origin.Arrivals {
		if !domain.ValidArrival(arr, e.cfg.MinimumArrivalWeight) {
			continue
		}
		if _, ok := e.cache.Get(arr.PickID); ok {
			continue
		}
		if len(e.indexes.AmplitudesForPick(arr.PickID)) > 0 {
			continue
		}
		toFetch = append(toFetch, arr.PickID)
	}
	if len(toFetch) == 0 {
		return
	}

	e.cache.WithSuppressedNotifications(func() {
		records, err := e.archive.GetPicks(origin.PublicID)
		if err != nil {
			e.logger.Warn("archive get_picks failed", "origin", origin.PublicID, "error", err)
			return
		}
		wanted := make(map[string]bool, len(toFetch))
		for _, id := range toFetch {
			wanted[id] = true
		}
		for _, rec := range records {
			pick, ok := rec.Object.Pick()
			if !ok || !wanted[pick.PublicID] {
				continue
			}
			e.cache.Feed(rec.Object)
		}

		ampRecords, err := e.archive.GetAmplitudesForOrigin(origin.PublicID)
		if err != nil {
			e.logger.Warn("archive get_amplitudes_for_origin failed", "origin", origin.PublicID, "error", err)
			return
		}
		for _, rec := range ampRecords {
			amp, ok := rec.Object.Amplitude()
			if !ok || !wanted[amp.PickID] {
				continue
			}
			e.cache.Feed(rec.Object)
			e.indexes.BindAmplitude(amp.PickID, amp)
		}
	})
}

// streamPick pairs a pick with the arrival that selected it, for use as
// the candidate picked per abstract stream.
type streamPick struct {
	pick    *domain.Pick
	arrival domain.Arrival
}

// bindAndSelectCandidatePicks implements C7 step 3: bind every arrival
// (including invalid-weight ones, to avoid archive round-trips later),
// then group valid arrivals' picks by abstract stream, keeping only the
// earliest pick per group.
func (e *Engine) bindAndSelectCandidatePicks(origin *domain.Origin) map[string]streamPick {
	for _, arr := range origin.Arrivals {
		e.indexes.Bind(arr.PickID, origin)
	}

	byStream := make(map[string]streamPick)
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
		stream := pick.WaveformID.AbstractStream()
		existing, seen := byStream[stream]
		if !seen || pick.Time.Before(existing.pick.Time) {
			byStream[stream] = streamPick{pick: pick, arrival: arr}
		}
	}
	return byStream
}

// selectedAmplitudesForPick picks the highest-priority amplitude per type for one
// pick, implementing C7 step 4's strict priority order.
func (e *Engine) selectedAmplitudesForPick(pickID string) map[string]*domain.Amplitude {
	best := make(map[string]*domain.Amplitude)
	for _, amp := range e.indexes.AmplitudesForPick(pickID) {
		current := best[amp.Type]
		if domain.HigherPriority(amp, current) {
			best[amp.Type] = amp
		}
	}
	return best
}

// computeStationMagnitudesForOrigin implements C7 steps 4-5: for each
// candidate pick's highest-priority amplitude per type, run C4 and upsert
// the results. Returns the set of magnitude types emitted.
func (e *Engine) computeStationMagnitudesForOrigin(origin *domain.Origin, byStream map[string]streamPick) map[string]bool {
	emitted := make(map[string]bool)
	for _, sp := range byStream {
		for _, amp := range e.selectedAmplitudesForPick(sp.pick.PublicID) {
			results := magnitude.ComputeStationMagnitudes(e.registry, e.resolver, amp, sp.arrival.Distance, depthOf(origin))
			for _, res := range results {
				magnitude.UpsertStationMagnitude(origin, origin.PublicID, amp.WaveformID, res.Type, res.Value, amp.PublicID, false, e.now())
				emitted[res.Type] = true
				e.metrics.StationMagnitudesComputed.Inc()
			}
		}
	}
	return emitted
}

// aggregateType implements C7 step 6: aggregate one magnitude type via C5,
// but only upsert when the existing network magnitude is not frozen.
func (e *Engine) aggregateType(origin *domain.Origin, magType string) {
	method := e.cfg.AverageMethodFor(magType)
	proc := e.registry.ProcessorForType(magType)

	if nm, _ := origin.NetworkMagnitudeByType(magType); nm != nil && nm.Frozen() {
		e.metrics.FrozenSkips.Inc()
		return
	}

	produced, ok := magnitude.AggregateNetworkMagnitude(origin, magType, method, proc, origin.PublicID, e.now)
	if !ok {
		return
	}
	e.metrics.NetworkMagnitudesComputed.Add(float64(len(produced)))
}

// computeSummary implements C7 step 7.
func (e *Engine) computeSummary(origin *domain.Origin) {
	if _, ok := magnitude.ComputeSummaryMagnitude(origin, origin.PublicID, e.cfg.Summary, e.now); ok {
		e.metrics.SummaryMagnitudesComputed.Inc()
	}
}

func depthOf(origin *domain.Origin) float64 {
	if origin.Depth == nil {
		return 0
	}
	return *origin.Depth
}
