package magnitude

import (
	"testing"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryWeightedAverageWithPerTypeOverride(t *testing.T) {
	origin := &domain.Origin{
		PublicID: "O1",
		NetworkMagnitudes: []domain.NetworkMagnitude{
			{PublicID: "O1#netMag.MLv", Type: "MLv", Value: 3.0, StationCount: 10},
			{PublicID: "O1#netMag.Mw(mB)", Type: "Mw(mB)", Value: 5.5, StationCount: 4},
		},
	}

	overrideA, overrideB := 0.4, -1.0
	cfg := SummaryConfig{
		Enabled:             true,
		Type:                "M",
		MinStationCount:     1,
		DefaultCoefficients: Coefficients{A: 0, B: 1},
		TypeCoefficients: map[string]CoefficientsOverride{
			"Mw(mB)": {A: &overrideA, B: &overrideB},
		},
	}

	nm, ok := ComputeSummaryMagnitude(origin, "O1", cfg, func() domain.CreationInfo { return domain.CreationInfo{} })
	require.True(t, ok)

	wMLv := 1.0
	wMw := 0.4*4 - 1
	expected := (wMLv*3.0 + wMw*5.5) / (wMLv + wMw)

	assert.InDelta(t, expected, nm.Value, 1e-9)
	assert.Equal(t, 10, nm.StationCount)
	assert.Equal(t, "weighted average", nm.MethodID)
}

func TestSummaryDisabledIsNoOp(t *testing.T) {
	origin := &domain.Origin{PublicID: "O1", NetworkMagnitudes: []domain.NetworkMagnitude{{Type: "MLv", Value: 3.0, StationCount: 5}}}
	cfg := SummaryConfig{Enabled: false}
	_, ok := ComputeSummaryMagnitude(origin, "O1", cfg, func() domain.CreationInfo { return domain.CreationInfo{} })
	assert.False(t, ok)
}

func TestSummarySuppressesTrivialDelta(t *testing.T) {
	origin := &domain.Origin{
		PublicID: "O1",
		NetworkMagnitudes: []domain.NetworkMagnitude{
			{Type: "MLv", Value: 3.0, StationCount: 5},
			{PublicID: "O1#netMag.M", Type: "M", Value: 3.0, StationCount: 5, MethodID: "weighted average"},
		},
	}
	cfg := SummaryConfig{Enabled: true, Type: "M", MinStationCount: 1, DefaultCoefficients: Coefficients{A: 0, B: 1}}

	_, changed := ComputeSummaryMagnitude(origin, "O1", cfg, func() domain.CreationInfo { return domain.CreationInfo{} })
	assert.False(t, changed)
}

func TestSummaryPartialCoefficientOverrideKeepsDefaultComponent(t *testing.T) {
	origin := &domain.Origin{
		PublicID: "O1",
		NetworkMagnitudes: []domain.NetworkMagnitude{
			{Type: "MLv", Value: 3.0, StationCount: 10},
			{Type: "mb", Value: 6.0, StationCount: 4},
		},
	}

	overrideB := 2.0
	cfg := SummaryConfig{
		Enabled:             true,
		Type:                "M",
		MinStationCount:     1,
		DefaultCoefficients: Coefficients{A: 0.5, B: 1},
		TypeCoefficients: map[string]CoefficientsOverride{
			// Only B is overridden; A must fall through to the default's 0.5,
			// not zero out, mirroring the original's
			// SummaryMagnitudeCoefficients(None, 2) partial-override shape.
			"mb": {B: &overrideB},
		},
	}

	nm, ok := ComputeSummaryMagnitude(origin, "O1", cfg, func() domain.CreationInfo { return domain.CreationInfo{} })
	require.True(t, ok)

	wMLv := 0.5*10 + 1
	wMb := 0.5*4 + 2
	expected := (wMLv*3.0 + wMb*6.0) / (wMLv + wMb)
	assert.InDelta(t, expected, nm.Value, 1e-9)
}

func TestSummaryWhitelistExcludesUnlistedTypes(t *testing.T) {
	origin := &domain.Origin{
		PublicID: "O1",
		NetworkMagnitudes: []domain.NetworkMagnitude{
			{Type: "MLv", Value: 3.0, StationCount: 10},
			{Type: "mb", Value: 6.0, StationCount: 10},
		},
	}
	cfg := SummaryConfig{
		Enabled:             true,
		Type:                "M",
		MinStationCount:     1,
		DefaultCoefficients: Coefficients{A: 0, B: 1},
		Whitelist:           map[string]bool{"MLv": true},
	}

	nm, ok := ComputeSummaryMagnitude(origin, "O1", cfg, func() domain.CreationInfo { return domain.CreationInfo{} })
	require.True(t, ok)
	assert.InDelta(t, 3.0, nm.Value, 1e-9)
}
