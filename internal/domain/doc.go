// Package domain models the seismological observations the magnitude
// engine operates on: picks, amplitudes, origins, and the station/network
// magnitudes the engine derives from them.
//
// # Data source
//
// Picks, amplitudes, and origins arrive independently over a messaging
// transport (see internal/adapter/kafka) as flat JSON documents. An origin
// references its picks indirectly through arrivals (arrival.pick_id);
// an amplitude references its pick directly (amplitude.pick_id). Neither
// references the other, which is what makes the engine's cross-reference
// indexes (internal/index) necessary.
//
// # Evaluation mode and priority
//
// Amplitudes carry an evaluation mode, "automatic" or "manual". When more
// than one amplitude of the same type exists for a pick, manual amplitudes
// take priority over automatic ones regardless of creation time; among
// amplitudes of the same mode, the more recently created one wins. See
// [HigherPriority].
//
// # Public identifiers
//
// Most entities carry a public id assigned by their producer. Station and
// network magnitudes the engine itself creates follow a deterministic
// naming scheme derived from their parent origin (see [StationMagnitudeID]
// and [NetworkMagnitudeID]) so that re-processing the same origin is
// idempotent rather than creating duplicate magnitudes.
package domain
