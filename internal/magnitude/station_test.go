package magnitude

import (
	"testing"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStationMagnitudesEmitsIdentityValue(t *testing.T) {
	proc := NewIdentityProcessor("MLv", "MLv")
	reg, _ := NewRegistry([]Processor{proc}, []string{"MLv"})

	amp := &domain.Amplitude{Type: "MLv", Value: 3.0, WaveformID: domain.WaveformStreamID{Network: "GE", Station: "WLF"}}
	results := ComputeStationMagnitudes(reg, nil, amp, 100, 10)

	require.Len(t, results, 1)
	assert.Equal(t, "MLv", results[0].Type)
	assert.Equal(t, 3.0, results[0].Value)
}

func TestComputeStationMagnitudesSkipsOnProcessorFailure(t *testing.T) {
	proc := NewLinearProcessor("mB", "mB", func(_, _ float64) (float64, bool) { return 0, false })
	reg, _ := NewRegistry([]Processor{proc}, []string{"mB"})

	amp := &domain.Amplitude{Type: "mB", Value: 1.0}
	results := ComputeStationMagnitudes(reg, nil, amp, 100, 10)
	assert.Empty(t, results)
}

func TestComputeStationMagnitudesUsesResolver(t *testing.T) {
	proc := NewIdentityProcessor("MLv", "MLv")
	reg, _ := NewRegistry([]Processor{proc}, []string{"MLv"})

	src := &recordingSource{settings: StationSettings{"k": "v"}}
	resolver := NewStationParameterResolver(src, "magengine", 8)

	amp := &domain.Amplitude{Type: "MLv", Value: 3.0, WaveformID: domain.WaveformStreamID{Network: "GE", Station: "WLF"}}
	ComputeStationMagnitudes(reg, resolver, amp, 100, 10)

	assert.Equal(t, 1, src.calls)
}

type recordingSource struct {
	settings StationSettings
	calls    int
}

func (r *recordingSource) StationSettings(_, _, _ string) StationSettings {
	r.calls++
	return r.settings
}
