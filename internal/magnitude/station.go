package magnitude

import "github.com/couchcryptid/seismag-engine/internal/domain"

// StationResult is one magnitude value emitted by the station magnitude
// computer for a single amplitude, ready for upsert by the caller (C7/C8).
type StationResult struct {
	Type        string
	Value       float64
	ProcessorMw bool // true when this result is the Mw estimate, not the primary type
}

// ComputeStationMagnitudes implements C4: given one amplitude and its
// origin's distance/depth, runs every processor registered for the
// amplitude's type and returns the magnitudes each successfully emits.
// Processor setup/compute failures are skipped, never surfaced as errors
// (spec.md §7, ProcessorFailure).
func ComputeStationMagnitudes(reg *Registry, resolver *StationParameterResolver, amp *domain.Amplitude, distanceKM, depthKM float64) []StationResult {
	var results []StationResult
	for _, proc := range reg.ProcessorsFor(amp.Type) {
		settings := StationSettings(nil)
		if resolver != nil {
			settings = resolver.Resolve(amp.WaveformID.Network, amp.WaveformID.Station)
		}
		if !proc.Setup(settings) {
			continue
		}
		value, status := proc.ComputeMagnitude(amp.Value, amp.Period, distanceKM, depthKM)
		if status != OK {
			continue
		}
		results = append(results, StationResult{Type: proc.Type(), Value: value})
	}
	return results
}
