package engine

import (
	"time"

	"github.com/couchcryptid/seismag-engine/internal/magnitude"
)

// Config is the engine's runtime configuration, sourced from spec.md §6's
// enumerated configuration surface. The config-loading package
// (internal/config) builds one of these; the engine itself only consumes it.
type Config struct {
	// MagnitudeTypes is the whitelist of enabled magnitude type tags.
	MagnitudeTypes []string
	// AverageMethods maps magnitude type to its configured estimator.
	AverageMethods map[string]magnitude.AverageMethod

	Summary magnitude.SummaryConfig

	// MinimumArrivalWeight gates which arrivals participate in station
	// magnitude computation (default 0.5 per spec.md §6).
	MinimumArrivalWeight float64
	// CacheExpiry controls C1's object lifetime.
	CacheExpiry time.Duration
	// BlockedAgencies rejects amplitudes/origins from these agency ids.
	BlockedAgencies map[string]bool
	// ModuleName identifies this engine instance for per-station config lookups.
	ModuleName string
	// StationParamCacheSize bounds the D2 LRU resolver.
	StationParamCacheSize int
}

// AverageMethodFor returns the configured estimator for magType, defaulting
// to MethodDefault when unconfigured.
func (c Config) AverageMethodFor(magType string) magnitude.AverageMethod {
	if m, ok := c.AverageMethods[magType]; ok {
		return m
	}
	return magnitude.AverageMethod{Kind: magnitude.MethodDefault}
}
