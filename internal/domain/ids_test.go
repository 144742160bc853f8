package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStationMagnitudeID(t *testing.T) {
	wfid := WaveformStreamID{Network: "GE", Station: "WLF"}
	assert.Equal(t, "origin1#staMag.MLv#GE.WLF", StationMagnitudeID("origin1", "MLv", wfid))
}

func TestNetworkMagnitudeID(t *testing.T) {
	assert.Equal(t, "origin1#netMag.M", NetworkMagnitudeID("origin1", "M"))
}

func TestHigherPriorityManualBeatsAutomatic(t *testing.T) {
	now := time.Now()
	automatic := &Amplitude{EvaluationMode: Automatic, CreationTime: now.Add(time.Hour)}
	manual := &Amplitude{EvaluationMode: Manual, CreationTime: now}

	assert.True(t, HigherPriority(manual, automatic))
	assert.False(t, HigherPriority(automatic, manual))
}

func TestHigherPrioritySameModeLatestWins(t *testing.T) {
	now := time.Now()
	older := &Amplitude{EvaluationMode: Automatic, CreationTime: now}
	newer := &Amplitude{EvaluationMode: Automatic, CreationTime: now.Add(time.Minute)}

	assert.True(t, HigherPriority(newer, older))
	assert.False(t, HigherPriority(older, newer))
}

func TestHigherPriorityNilReferenceAlwaysLoses(t *testing.T) {
	candidate := &Amplitude{EvaluationMode: Automatic}
	assert.True(t, HigherPriority(candidate, nil))
}
