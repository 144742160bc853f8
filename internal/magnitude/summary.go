package magnitude

import "github.com/couchcryptid/seismag-engine/internal/domain"

// Coefficients is a linear weight function w = A*n + B over station count n.
type Coefficients struct {
	A, B float64
}

// CoefficientsOverride carries a per-type weight-function override where
// either field may be left unset, matching the original's
// SummaryMagnitudeCoefficients(a, b) constructor where either argument can
// be omitted to fall back to the baseline default (spec.md §4.6). A nil
// field means "keep the baseline default component", not "use zero".
type CoefficientsOverride struct {
	A *float64
	B *float64
}

// Resolve merges an override onto base, substituting base's component for
// any field the override leaves unset.
func (o CoefficientsOverride) Resolve(base Coefficients) Coefficients {
	resolved := base
	if o.A != nil {
		resolved.A = *o.A
	}
	if o.B != nil {
		resolved.B = *o.B
	}
	return resolved
}

// SummaryConfig configures the summary magnitude combiner (C6).
type SummaryConfig struct {
	Enabled             bool
	Type                string
	MinStationCount     int
	DefaultCoefficients Coefficients
	TypeCoefficients    map[string]CoefficientsOverride
	Whitelist           map[string]bool // empty/nil = accept all
	Blacklist           map[string]bool
}

// ComputeSummaryMagnitude implements C6: a weighted linear combination of
// every eligible NetworkMagnitude on origin, weighted by station count.
// The summary's reported station_count is the maximum station count among
// contributors — a deliberately preserved placeholder (spec.md's Open
// Questions; see DESIGN.md) rather than a principled aggregate.
//
// Returns false when summary magnitudes are disabled, no contributor
// qualifies, or the computed change from any prior summary is below the
// 1e-4 publication threshold with an unchanged station count.
func ComputeSummaryMagnitude(origin *domain.Origin, originID string, cfg SummaryConfig, now func() domain.CreationInfo) (*domain.NetworkMagnitude, bool) {
	if !cfg.Enabled {
		return nil, false
	}

	var sumW, sumWM float64
	count := 0
	for i := range origin.NetworkMagnitudes {
		nm := &origin.NetworkMagnitudes[i]
		if nm.Type == cfg.Type {
			continue
		}
		if len(cfg.Whitelist) > 0 && !cfg.Whitelist[nm.Type] {
			continue
		}
		if cfg.Blacklist[nm.Type] {
			continue
		}
		if nm.StationCount < cfg.MinStationCount {
			continue
		}

		coeff := cfg.DefaultCoefficients
		if override, ok := cfg.TypeCoefficients[nm.Type]; ok {
			coeff = override.Resolve(cfg.DefaultCoefficients)
		}
		w := coeff.A*float64(nm.StationCount) + coeff.B
		if w <= 0 {
			continue
		}

		sumW += w
		sumWM += w * nm.Value
		if nm.StationCount > count {
			count = nm.StationCount
		}
	}

	if sumW <= 0 {
		return nil, false
	}
	value := sumWM / sumW

	existing, idx := origin.NetworkMagnitudeByType(cfg.Type)
	if existing != nil {
		delta := value - existing.Value
		if delta < 0 {
			delta = -delta
		}
		if delta < 1e-4 && existing.StationCount == count {
			return existing, false
		}
	}

	var nm *domain.NetworkMagnitude
	if idx >= 0 {
		nm = &origin.NetworkMagnitudes[idx]
	} else {
		origin.NetworkMagnitudes = append(origin.NetworkMagnitudes, domain.NetworkMagnitude{
			PublicID: domain.NetworkMagnitudeID(originID, cfg.Type),
			OriginID: originID,
			Type:     cfg.Type,
		})
		nm = &origin.NetworkMagnitudes[len(origin.NetworkMagnitudes)-1]
	}

	nm.Value = value
	nm.StationCount = count
	nm.MethodID = "weighted average"
	nm.EvaluationStatus = ""
	nm.CreationInfo = now()
	return nm, true
}
