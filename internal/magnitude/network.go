package magnitude

import "github.com/couchcryptid/seismag-engine/internal/domain"

// AggregateNetworkMagnitude implements C5: combine every StationMagnitude
// of type magType currently attached to origin into a NetworkMagnitude,
// reconciling its contributions in place. Returns false (a no-op) when no
// station magnitudes of this type exist, or when the existing network
// magnitude is frozen.
//
// When proc supports Mw estimation, the Mw-typed NetworkMagnitude is
// upserted as well, at the same station count, using max(mw_stderr, stdev)
// as its uncertainty per spec.md §4.5 step 8.
func AggregateNetworkMagnitude(origin *domain.Origin, magType string, method AverageMethod, proc Processor, originID string, now func() domain.CreationInfo) ([]*domain.NetworkMagnitude, bool) {
	var contributors []*domain.StationMagnitude
	var values []float64
	for i := range origin.StationMagnitudes {
		sm := &origin.StationMagnitudes[i]
		if sm.Type != magType {
			continue
		}
		contributors = append(contributors, sm)
		values = append(values, sm.Value)
	}
	if len(values) == 0 {
		return nil, false
	}

	result, ok := computeAverage(values, method)
	if !ok {
		return nil, false
	}

	nm, idx := origin.NetworkMagnitudeByType(magType)
	if nm != nil && nm.Frozen() {
		return nil, false
	}

	updated := upsertNetworkMagnitude(origin, idx, originID, magType, result, contributors, now)
	produced := []*domain.NetworkMagnitude{updated}

	if proc != nil && proc.TypeMw() != "" {
		mw, mwStderr, hasMw := proc.EstimateMw(result.value)
		if hasMw {
			uncertainty := mwStderr
			if result.stdev > uncertainty {
				uncertainty = result.stdev
			}
			mwResult := averageResult{value: mw, stdev: uncertainty, weights: result.weights, method: method}
			mwNM, mwIdx := origin.NetworkMagnitudeByType(proc.TypeMw())
			if mwNM == nil || !mwNM.Frozen() {
				updatedMw := upsertNetworkMagnitude(origin, mwIdx, originID, proc.TypeMw(), mwResult, contributors, now)
				produced = append(produced, updatedMw)
			}
		}
	}

	return produced, true
}

func upsertNetworkMagnitude(origin *domain.Origin, idx int, originID, magType string, result averageResult, contributors []*domain.StationMagnitude, now func() domain.CreationInfo) *domain.NetworkMagnitude {
	var nm *domain.NetworkMagnitude
	if idx >= 0 {
		nm = &origin.NetworkMagnitudes[idx]
	} else {
		origin.NetworkMagnitudes = append(origin.NetworkMagnitudes, domain.NetworkMagnitude{
			PublicID: domain.NetworkMagnitudeID(originID, magType),
			OriginID: originID,
			Type:     magType,
		})
		nm = &origin.NetworkMagnitudes[len(origin.NetworkMagnitudes)-1]
	}

	nm.Value = result.value
	nm.StdDev = result.stdev
	nm.MethodID = result.method.String()
	nm.EvaluationStatus = "" // never overwrite a frozen magnitude (gated above); clear on recompute

	contributions := make([]domain.Contribution, 0, len(contributors))
	stationCount := 0
	for i, sm := range contributors {
		w := result.weights[i]
		contributions = append(contributions, domain.Contribution{StationMagnitudeID: sm.PublicID, Weight: w})
		if w > 0 {
			stationCount++
		}
	}
	nm.Contributions = contributions
	nm.StationCount = stationCount
	nm.CreationInfo = now()
	return nm
}

// UpsertStationMagnitude implements the StationMagnitude upsert rule of
// spec.md §4.7: key is (origin, waveform stream id, type); the public id
// follows the deterministic naming scheme unless insertOnly is requested
// and an existing magnitude is already present, in which case this
// returns nil (skip, matching "insert-only" semantics).
func UpsertStationMagnitude(origin *domain.Origin, originID string, wfid domain.WaveformStreamID, magType string, value float64, amplitudeID string, insertOnly bool, info domain.CreationInfo) *domain.StationMagnitude {
	existing, _ := origin.StationMagnitudeByKey(wfid, magType)
	if existing != nil {
		if insertOnly {
			return nil
		}
		existing.Value = value
		existing.AmplitudeID = amplitudeID
		existing.CreationInfo = info
		return existing
	}

	sm := domain.StationMagnitude{
		PublicID:     domain.StationMagnitudeID(originID, magType, wfid),
		OriginID:     originID,
		WaveformID:   wfid,
		Type:         magType,
		Value:        value,
		AmplitudeID:  amplitudeID,
		CreationInfo: info,
	}
	origin.StationMagnitudes = append(origin.StationMagnitudes, sm)
	return &origin.StationMagnitudes[len(origin.StationMagnitudes)-1]
}
