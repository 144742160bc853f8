// Package observability wires structured logging and Prometheus metrics
// for the magnitude engine, in the same shape the reference ETL service
// uses: a logger factory selecting handler/level from config, and a
// Metrics struct with paired New/NewMetricsForTesting constructors.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// magnitude engine.
type Metrics struct {
	PicksFed      prometheus.Counter
	AmplitudesFed prometheus.Counter
	OriginsFed    prometheus.Counter

	OriginsProcessed          prometheus.Counter
	StationMagnitudesComputed prometheus.Counter
	NetworkMagnitudesComputed prometheus.Counter
	SummaryMagnitudesComputed prometheus.Counter

	CacheSize      prometheus.Gauge
	CacheEvictions prometheus.Counter

	RetroactiveUpdatesApplied prometheus.Counter
	RetroactiveUpdatesSkipped prometheus.Counter
	RaceDeferred              prometheus.Counter
	FrozenSkips               prometheus.Counter

	OriginProcessingDuration prometheus.Histogram
}

func build(registerer func(...prometheus.Collector)) *Metrics {
	m := &Metrics{
		PicksFed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "picks_fed_total", Help: "Total picks fed into the engine.",
		}),
		AmplitudesFed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "amplitudes_fed_total", Help: "Total amplitudes fed into the engine.",
		}),
		OriginsFed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "origins_fed_total", Help: "Total origins fed into the engine.",
		}),
		OriginsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "origins_processed_total", Help: "Total origins that completed the C7 pipeline.",
		}),
		StationMagnitudesComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "station_magnitudes_computed_total", Help: "Total station magnitudes emitted by C4.",
		}),
		NetworkMagnitudesComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "network_magnitudes_computed_total", Help: "Total network magnitudes upserted by C5.",
		}),
		SummaryMagnitudesComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "summary_magnitudes_computed_total", Help: "Total summary magnitudes published by C6.",
		}),
		CacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "seismag", Name: "cache_size", Help: "Current number of live objects in C1.",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "cache_evictions_total", Help: "Total objects evicted from C1.",
		}),
		RetroactiveUpdatesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "retroactive_updates_applied_total", Help: "Late amplitudes that triggered a historical origin update.",
		}),
		RetroactiveUpdatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "retroactive_updates_skipped_total", Help: "Late amplitudes skipped: no matching arrival or no bound origin.",
		}),
		RaceDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "race_deferred_total", Help: "Archive-fetched origins skipped for being inside the race-avoidance window.",
		}),
		FrozenSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismag", Name: "frozen_skips_total", Help: "Upserts skipped because the target network magnitude is frozen.",
		}),
		OriginProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seismag", Name: "origin_processing_duration_seconds", Help: "Duration of one feed_origin pipeline run.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
	}

	if registerer != nil {
		registerer(
			m.PicksFed, m.AmplitudesFed, m.OriginsFed,
			m.OriginsProcessed, m.StationMagnitudesComputed, m.NetworkMagnitudesComputed, m.SummaryMagnitudesComputed,
			m.CacheSize, m.CacheEvictions,
			m.RetroactiveUpdatesApplied, m.RetroactiveUpdatesSkipped, m.RaceDeferred, m.FrozenSkips,
			m.OriginProcessingDuration,
		)
	}
	return m
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return build(prometheus.MustRegister)
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return build(nil)
}
