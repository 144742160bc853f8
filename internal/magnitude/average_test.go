package magnitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanThreeStations(t *testing.T) {
	result, ok := computeAverage([]float64{3.0, 3.2, 3.4}, AverageMethod{Kind: MethodMean})
	require.True(t, ok)
	assert.InDelta(t, 3.2, result.value, 1e-9)
	assert.InDelta(t, 0.2, result.stdev, 1e-9)
	assert.Equal(t, "mean", result.method.String())
}

func TestDefaultTrimsOutlierAbove3Values(t *testing.T) {
	values := []float64{2.0, 3.0, 3.1, 3.2, 9.0}
	result, ok := computeAverage(values, AverageMethod{Kind: MethodDefault})
	require.True(t, ok)

	assert.Equal(t, "trimmed mean(25)", result.method.String())
	assert.InDelta(t, 3.1, result.value, 1e-9)

	kept := 0
	for i, w := range result.weights {
		if w > 0 {
			kept++
			assert.NotEqual(t, 2.0, values[i])
			assert.NotEqual(t, 9.0, values[i])
		}
	}
	assert.Equal(t, 3, kept)
}

func TestDefaultFallsBackToMeanAtOrBelow3Values(t *testing.T) {
	result, ok := computeAverage([]float64{1.0, 2.0, 3.0}, AverageMethod{Kind: MethodDefault})
	require.True(t, ok)
	assert.Equal(t, "mean", result.method.String())
}

func TestMedianWeightsAllOne(t *testing.T) {
	result, ok := computeAverage([]float64{1.0, 5.0, 2.0}, AverageMethod{Kind: MethodMedian})
	require.True(t, ok)
	assert.Equal(t, 2.0, result.value)
	for _, w := range result.weights {
		assert.Equal(t, 1.0, w)
	}
}

func TestEmptyValuesYieldsNoOp(t *testing.T) {
	_, ok := computeAverage(nil, AverageMethod{Kind: MethodMean})
	assert.False(t, ok)
}
