package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// StationMagnitudeID builds the deterministic public id of a station
// magnitude of the given type derived from origin and waveform stream id:
// "<origin>#staMag.<type>#<network>.<station>". Re-deriving it from the
// same inputs always yields the same id, which is what makes re-processing
// an origin an upsert instead of a duplicate insert.
func StationMagnitudeID(originID, magType string, wfid WaveformStreamID) string {
	return fmt.Sprintf("%s#staMag.%s#%s", originID, magType, wfid.StationID())
}

// NetworkMagnitudeID builds the deterministic public id of a network
// magnitude of the given type derived from its origin:
// "<origin>#netMag.<type>".
func NetworkMagnitudeID(originID, magType string) string {
	return fmt.Sprintf("%s#netMag.%s", originID, magType)
}

// NewPublicID mints a random public id for an object that doesn't yet have
// one, e.g. a pick or amplitude synthesized by seed/fixture tooling.
func NewPublicID(prefix string) string {
	return fmt.Sprintf("%s.%s", prefix, uuid.NewString())
}

// HigherPriority reports whether candidate should replace reference as the
// amplitude used to compute a station magnitude: manual amplitudes always
// outrank automatic ones, and among amplitudes of the same evaluation mode
// the more recently created one wins. A nil reference is always outranked.
func HigherPriority(candidate, reference *Amplitude) bool {
	if reference == nil {
		return true
	}
	if candidate.EvaluationMode != reference.EvaluationMode {
		return candidate.EvaluationMode == Manual
	}
	return candidate.CreationTime.After(reference.CreationTime)
}
