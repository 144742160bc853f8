package magnitude

import (
	"testing"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedInfo() domain.CreationInfo { return domain.CreationInfo{} }

func TestAggregateNetworkMagnitudeCreatesContributions(t *testing.T) {
	origin := &domain.Origin{PublicID: "O1"}
	stations := []string{"AAA", "BBB", "CCC"}
	for i, v := range []float64{3.0, 3.2, 3.4} {
		wfid := domain.WaveformStreamID{Network: "GE", Station: stations[i]}
		UpsertStationMagnitude(origin, "O1", wfid, "MLv", v, "", false, fixedInfo())
	}

	produced, ok := AggregateNetworkMagnitude(origin, "MLv", AverageMethod{Kind: MethodMean}, nil, "O1", fixedInfo)
	require.True(t, ok)
	require.Len(t, produced, 1)
	assert.InDelta(t, 3.2, produced[0].Value, 1e-9)
	assert.Equal(t, 3, produced[0].StationCount)
	assert.Len(t, produced[0].Contributions, 3)
}

func TestAggregateNetworkMagnitudeSkipsFrozen(t *testing.T) {
	origin := &domain.Origin{
		PublicID: "O1",
		NetworkMagnitudes: []domain.NetworkMagnitude{
			{PublicID: "O1#netMag.MLv", Type: "MLv", Value: 1.0, EvaluationStatus: "confirmed"},
		},
	}
	UpsertStationMagnitude(origin, "O1", domain.WaveformStreamID{Network: "GE", Station: "WLF"}, "MLv", 5.0, "", false, fixedInfo())

	_, ok := AggregateNetworkMagnitude(origin, "MLv", AverageMethod{Kind: MethodMean}, nil, "O1", fixedInfo)
	assert.False(t, ok)
	assert.Equal(t, 1.0, origin.NetworkMagnitudes[0].Value)
}

func TestUpsertStationMagnitudeInsertOnlySkipsExisting(t *testing.T) {
	origin := &domain.Origin{PublicID: "O1"}
	wfid := domain.WaveformStreamID{Network: "GE", Station: "WLF"}
	UpsertStationMagnitude(origin, "O1", wfid, "MLv", 3.0, "", false, fixedInfo())

	result := UpsertStationMagnitude(origin, "O1", wfid, "MLv", 4.0, "", true, fixedInfo())
	assert.Nil(t, result)
	assert.Equal(t, 3.0, origin.StationMagnitudes[0].Value)
}
