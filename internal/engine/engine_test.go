package engine

import (
	"testing"
	"time"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	"github.com/couchcryptid/seismag-engine/internal/magnitude"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	proc := magnitude.NewIdentityProcessor("MLv", "MLv")
	reg, _ := magnitude.NewRegistry([]magnitude.Processor{proc}, []string{"MLv"})

	cfg := Config{
		MagnitudeTypes:       []string{"MLv"},
		AverageMethods:       map[string]magnitude.AverageMethod{"MLv": {Kind: magnitude.MethodMean}},
		MinimumArrivalWeight: 0.5,
		CacheExpiry:          time.Hour,
		Summary:              magnitude.SummaryConfig{Enabled: false},
	}
	return New(cfg, reg, nil, nil, nil, nil, nil)
}

func feedPickAndArrival(t *testing.T, e *Engine, pickID, station string, at time.Time) domain.Arrival {
	t.Helper()
	pick := &domain.Pick{PublicID: pickID, WaveformID: domain.WaveformStreamID{Network: "GE", Station: station, Channel: "BHZ"}, Time: at}
	require.True(t, e.FeedPick(pick))
	return domain.Arrival{PickID: pickID, Weight: 1.0}
}

func TestScenarioS1PlainMeanThreeStations(t *testing.T) {
	e := newTestEngine(t)
	base := time.Now()

	a1 := feedPickAndArrival(t, e, "p1", "AAA", base)
	a1.Distance = 100
	a2 := feedPickAndArrival(t, e, "p2", "BBB", base)
	a2.Distance = 120
	a3 := feedPickAndArrival(t, e, "p3", "CCC", base)
	a3.Distance = 150

	e.indexes.BindAmplitude("p1", &domain.Amplitude{PublicID: "a1", Type: "MLv", PickID: "p1", Value: 3.0, WaveformID: domain.WaveformStreamID{Network: "GE", Station: "AAA"}})
	e.indexes.BindAmplitude("p2", &domain.Amplitude{PublicID: "a2", Type: "MLv", PickID: "p2", Value: 3.2, WaveformID: domain.WaveformStreamID{Network: "GE", Station: "BBB"}})
	e.indexes.BindAmplitude("p3", &domain.Amplitude{PublicID: "a3", Type: "MLv", PickID: "p3", Value: 3.4, WaveformID: domain.WaveformStreamID{Network: "GE", Station: "CCC"}})

	origin := &domain.Origin{
		PublicID: "O1",
		Depth:    floatPtr(10),
		Arrivals: []domain.Arrival{a1, a2, a3},
	}
	require.True(t, e.FeedOrigin(origin))

	require.Len(t, origin.StationMagnitudes, 3)
	nm, _ := origin.NetworkMagnitudeByType("MLv")
	require.NotNil(t, nm)
	assert.InDelta(t, 3.2, nm.Value, 1e-9)
	assert.Equal(t, "mean", nm.MethodID)
	assert.Equal(t, 3, nm.StationCount)
}

func TestScenarioS3ManualOverrideWinsPriority(t *testing.T) {
	e := newTestEngine(t)
	base := time.Now()
	a := feedPickAndArrival(t, e, "p1", "AAA", base)
	a.Distance = 100

	automatic := &domain.Amplitude{PublicID: "a_auto", Type: "MLv", PickID: "p1", Value: 3.0, EvaluationMode: domain.Automatic, CreationTime: base, WaveformID: domain.WaveformStreamID{Network: "GE", Station: "AAA"}}
	manual := &domain.Amplitude{PublicID: "a_manual", Type: "MLv", PickID: "p1", Value: 4.0, EvaluationMode: domain.Manual, CreationTime: base.Add(-time.Second), WaveformID: domain.WaveformStreamID{Network: "GE", Station: "AAA"}}
	e.indexes.BindAmplitude("p1", automatic)
	e.indexes.BindAmplitude("p1", manual)

	selected := e.selectedAmplitudesForPick("p1")
	require.NotNil(t, selected["MLv"])
	assert.Equal(t, "a_manual", selected["MLv"].PublicID)

	origin := &domain.Origin{PublicID: "O1", Depth: floatPtr(10), Arrivals: []domain.Arrival{a}}
	require.True(t, e.FeedOrigin(origin))

	sm, _ := origin.StationMagnitudeByKey(domain.WaveformStreamID{Network: "GE", Station: "AAA"}, "MLv")
	require.NotNil(t, sm)
	assert.Equal(t, 4.0, sm.Value)
}

func TestScenarioS4LateAmplitudeUpdatesHistoricalOrigin(t *testing.T) {
	e := newTestEngine(t)
	base := time.Now()
	a := feedPickAndArrival(t, e, "p1", "AAA", base)
	a.Distance = 100

	origin := &domain.Origin{PublicID: "O1", Depth: floatPtr(10), Arrivals: []domain.Arrival{a}}
	require.True(t, e.FeedOrigin(origin))
	assert.Empty(t, origin.StationMagnitudes)

	amp := &domain.Amplitude{PublicID: "amp1", Type: "MLv", PickID: "p1", Value: 3.5, CreationTime: base, WaveformID: domain.WaveformStreamID{Network: "GE", Station: "AAA"}}
	updated := e.FeedAmplitude(amp, false)

	require.True(t, updated)
	require.Len(t, origin.StationMagnitudes, 1)
	nm, _ := origin.NetworkMagnitudeByType("MLv")
	require.NotNil(t, nm)
	assert.InDelta(t, 3.5, nm.Value, 1e-9)
}

// TestLateAmplitudeMatchesByLocationNotJustStation covers spec.md §4.8 step
// 4's explicit "(network, station, location)" match: an earlier pick at the
// same network+station but a different location code must not disqualify
// a late amplitude's match to its own (later) pick at its own location.
func TestLateAmplitudeMatchesByLocationNotJustStation(t *testing.T) {
	e := newTestEngine(t)
	base := time.Now()

	earlierOtherLocation := &domain.Pick{
		PublicID:   "p_other_loc",
		WaveformID: domain.WaveformStreamID{Network: "GE", Station: "AAA", Location: "00", Channel: "BHZ"},
		Time:       base.Add(-10 * time.Second),
	}
	require.True(t, e.FeedPick(earlierOtherLocation))

	ownPick := &domain.Pick{
		PublicID:   "p1",
		WaveformID: domain.WaveformStreamID{Network: "GE", Station: "AAA", Location: "10", Channel: "BHZ"},
		Time:       base,
	}
	require.True(t, e.FeedPick(ownPick))

	origin := &domain.Origin{
		PublicID: "O1",
		Depth:    floatPtr(10),
		Arrivals: []domain.Arrival{
			{PickID: "p_other_loc", Weight: 1.0, Distance: 100},
			{PickID: "p1", Weight: 1.0, Distance: 100},
		},
	}
	require.True(t, e.FeedOrigin(origin))
	assert.Empty(t, origin.StationMagnitudes)

	amp := &domain.Amplitude{
		PublicID:     "amp1",
		Type:         "MLv",
		PickID:       "p1",
		Value:        3.5,
		CreationTime: base,
		WaveformID:   domain.WaveformStreamID{Network: "GE", Station: "AAA", Location: "10", Channel: "BHZ"},
	}
	updated := e.FeedAmplitude(amp, false)

	require.True(t, updated)
	require.Len(t, origin.StationMagnitudes, 1)
	assert.Equal(t, "amp1", origin.StationMagnitudes[0].AmplitudeID)
}

func TestScenarioS5FrozenMagnitudePreserved(t *testing.T) {
	e := newTestEngine(t)
	base := time.Now()
	a := feedPickAndArrival(t, e, "p1", "AAA", base)
	a.Distance = 100

	origin := &domain.Origin{
		PublicID: "O1",
		Depth:    floatPtr(10),
		Arrivals: []domain.Arrival{a},
		NetworkMagnitudes: []domain.NetworkMagnitude{
			{PublicID: "O1#netMag.MLv", Type: "MLv", Value: 9.9, EvaluationStatus: "confirmed"},
		},
	}
	amp := &domain.Amplitude{PublicID: "amp1", Type: "MLv", PickID: "p1", Value: 3.5, CreationTime: base, WaveformID: domain.WaveformStreamID{Network: "GE", Station: "AAA"}}
	e.indexes.BindAmplitude("p1", amp)

	require.True(t, e.FeedOrigin(origin))

	nm, _ := origin.NetworkMagnitudeByType("MLv")
	require.NotNil(t, nm)
	assert.Equal(t, 9.9, nm.Value, "frozen network magnitude must never be rewritten")
	assert.NotEmpty(t, origin.StationMagnitudes, "station magnitudes may still be created")
}

func TestEvictionPurgesIndexEntries(t *testing.T) {
	e := newTestEngine(t)
	pick := &domain.Pick{PublicID: "p1", WaveformID: domain.WaveformStreamID{Network: "GE", Station: "AAA"}}
	e.FeedPick(pick)
	e.indexes.Bind("p1", &domain.Origin{PublicID: "O1"})

	e.cache.Remove("p1")

	_, ok := e.indexes.OriginsForPick("p1")
	assert.False(t, ok)
}

func floatPtr(v float64) *float64 { return &v }
