// Package config loads the magnitude engine's hierarchical configuration
// (spec.md §6) via spf13/viper: an optional YAML file overlaid with
// SEISMAG_-prefixed environment variables, unmarshalled into one Config
// struct and validated before the engine starts.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/couchcryptid/seismag-engine/internal/engine"
	"github.com/couchcryptid/seismag-engine/internal/magnitude"
)

// Config is the top-level configuration document. Every field maps to a
// viper key via mapstructure tags so Load can unmarshal directly.
type Config struct {
	Magnitude MagnitudeConfig `mapstructure:"magnitude"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// MagnitudeConfig configures the engine's magnitude pipeline (C3-C7).
type MagnitudeConfig struct {
	Types                 []string              `mapstructure:"types"`
	AverageMethods        map[string]MethodSpec `mapstructure:"average_methods"`
	Summary               SummaryConfigSpec     `mapstructure:"summary"`
	MinimumArrivalWeight  float64               `mapstructure:"minimum_arrival_weight"`
	CacheExpiry           time.Duration         `mapstructure:"cache_expiry"`
	BlockedAgencies       []string              `mapstructure:"blocked_agencies"`
	ModuleName            string                `mapstructure:"module_name"`
	StationParamCacheSize int                   `mapstructure:"station_param_cache_size"`
	// StationOverrides holds per-(network.station) processor-setup
	// parameter overlays, keyed the same way the D2 resolver keys its
	// cache. e.g. "NT.STA": {"gain": "1.05"}.
	StationOverrides map[string]map[string]string `mapstructure:"station_overrides"`
}

// MethodSpec is the wire form of magnitude.AverageMethod: a string kind
// ("mean", "trimmed_mean", "median", "trimmed_median") plus the trim
// percentage for the two parameterized kinds.
type MethodSpec struct {
	Kind    string  `mapstructure:"kind"`
	Percent float64 `mapstructure:"percent"`
}

// SummaryConfigSpec is the wire form of magnitude.SummaryConfig.
type SummaryConfigSpec struct {
	Enabled             bool                                `mapstructure:"enabled"`
	Type                string                              `mapstructure:"type"`
	MinStationCount     int                                 `mapstructure:"min_station_count"`
	DefaultCoefficients CoefficientsSpec                    `mapstructure:"default_coefficients"`
	TypeCoefficients    map[string]CoefficientsOverrideSpec `mapstructure:"type_coefficients"`
	Whitelist           []string                            `mapstructure:"whitelist"`
	Blacklist           []string                            `mapstructure:"blacklist"`
}

// CoefficientsSpec is the wire form of magnitude.Coefficients: the baseline
// weight function, always fully specified.
type CoefficientsSpec struct {
	A float64 `mapstructure:"a"`
	B float64 `mapstructure:"b"`
}

// CoefficientsOverrideSpec is the wire form of magnitude.CoefficientsOverride:
// a per-type override where either field may be omitted from the config
// document, leaving that component at the baseline default (spec.md §4.6).
// Pointer fields so viper's mapstructure decode only populates the ones
// actually present in the source document.
type CoefficientsOverrideSpec struct {
	A *float64 `mapstructure:"a"`
	B *float64 `mapstructure:"b"`
}

// KafkaConfig configures the messaging adapters (A2, A3).
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	PicksTopic      string   `mapstructure:"picks_topic"`
	AmplitudesTopic string   `mapstructure:"amplitudes_topic"`
	OriginsTopic    string   `mapstructure:"origins_topic"`
	SinkTopic       string   `mapstructure:"sink_topic"`
}

// PostgresConfig configures the archive adapter (A1).
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// HTTPConfig configures the health/ready/metrics server (A4).
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig configures log level and format, mirroring the teacher's
// LOG_LEVEL/LOG_FORMAT environment variables.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads an optional YAML file at path (skipped entirely if empty or
// absent) and overlays SEISMAG_-prefixed environment variables, returning
// a validated Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SEISMAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("magnitude.types", []string{"ML", "Mw"})
	v.SetDefault("magnitude.minimum_arrival_weight", 0.5)
	v.SetDefault("magnitude.cache_expiry", "1h")
	v.SetDefault("magnitude.module_name", "seismag-engine")
	v.SetDefault("magnitude.station_param_cache_size", 1000)
	v.SetDefault("magnitude.summary.enabled", false)
	v.SetDefault("magnitude.summary.type", "M")
	v.SetDefault("magnitude.summary.min_station_count", 1)
	// Baseline weight function w = 0*n + 1, matching MagTool's constructor
	// default so enabling summary magnitudes without an explicit
	// default_coefficients block doesn't zero every contributor's weight.
	v.SetDefault("magnitude.summary.default_coefficients.a", 0.0)
	v.SetDefault("magnitude.summary.default_coefficients.b", 1.0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "seismag-engine")
	v.SetDefault("kafka.picks_topic", "picks")
	v.SetDefault("kafka.amplitudes_topic", "amplitudes")
	v.SetDefault("kafka.origins_topic", "origins")
	v.SetDefault("kafka.sink_topic", "origins-processed")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks required fields and value ranges, in the teacher's
// fail-fast-at-startup style.
func (c *Config) Validate() error {
	if len(c.Magnitude.Types) == 0 {
		return fmt.Errorf("magnitude.types must contain at least one type")
	}
	if c.Magnitude.MinimumArrivalWeight < 0 {
		return fmt.Errorf("magnitude.minimum_arrival_weight must not be negative")
	}
	if c.Magnitude.CacheExpiry <= 0 {
		return fmt.Errorf("magnitude.cache_expiry must be positive")
	}
	if c.Magnitude.StationParamCacheSize <= 0 {
		return fmt.Errorf("magnitude.station_param_cache_size must be positive")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	if c.Kafka.PicksTopic == "" || c.Kafka.AmplitudesTopic == "" || c.Kafka.OriginsTopic == "" {
		return fmt.Errorf("kafka.picks_topic, amplitudes_topic, and origins_topic are all required")
	}
	if c.Kafka.SinkTopic == "" {
		return fmt.Errorf("kafka.sink_topic is required")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	for magType, spec := range c.Magnitude.AverageMethods {
		if _, err := toAverageMethod(spec); err != nil {
			return fmt.Errorf("magnitude.average_methods[%s]: %w", magType, err)
		}
	}
	return nil
}

// EngineConfig converts the wire configuration into engine.Config, the
// runtime shape the engine package actually consumes.
func (c *Config) EngineConfig() (engine.Config, error) {
	methods := make(map[string]magnitude.AverageMethod, len(c.Magnitude.AverageMethods))
	for magType, spec := range c.Magnitude.AverageMethods {
		m, err := toAverageMethod(spec)
		if err != nil {
			return engine.Config{}, err
		}
		methods[magType] = m
	}

	blocked := make(map[string]bool, len(c.Magnitude.BlockedAgencies))
	for _, a := range c.Magnitude.BlockedAgencies {
		blocked[a] = true
	}

	return engine.Config{
		MagnitudeTypes:        c.Magnitude.Types,
		AverageMethods:        methods,
		Summary:               toSummaryConfig(c.Magnitude.Summary),
		MinimumArrivalWeight:  c.Magnitude.MinimumArrivalWeight,
		CacheExpiry:           c.Magnitude.CacheExpiry,
		BlockedAgencies:       blocked,
		ModuleName:            c.Magnitude.ModuleName,
		StationParamCacheSize: c.Magnitude.StationParamCacheSize,
	}, nil
}

// StationSettings implements magnitude.StationParameterSource, looking
// up the (network, station) overlay configured under
// magnitude.station_overrides. moduleName is accepted to satisfy the
// collaborator signature (spec.md §6 keys overrides by module as well)
// but this single-tenant config file does not yet segment by module.
func (c *Config) StationSettings(_ string, network, station string) magnitude.StationSettings {
	key := network + "." + station
	overlay := c.Magnitude.StationOverrides[key]
	if overlay == nil {
		return magnitude.StationSettings{}
	}
	settings := make(magnitude.StationSettings, len(overlay))
	for k, v := range overlay {
		settings[k] = v
	}
	return settings
}

func toAverageMethod(spec MethodSpec) (magnitude.AverageMethod, error) {
	switch spec.Kind {
	case "", "default":
		return magnitude.AverageMethod{Kind: magnitude.MethodDefault}, nil
	case "mean":
		return magnitude.AverageMethod{Kind: magnitude.MethodMean}, nil
	case "trimmed_mean":
		return magnitude.AverageMethod{Kind: magnitude.MethodTrimmedMean, Percent: spec.Percent}, nil
	case "median":
		return magnitude.AverageMethod{Kind: magnitude.MethodMedian}, nil
	case "trimmed_median":
		return magnitude.AverageMethod{Kind: magnitude.MethodTrimmedMedian, Percent: spec.Percent}, nil
	default:
		return magnitude.AverageMethod{}, fmt.Errorf("unknown average method kind %q", spec.Kind)
	}
}

func toSummaryConfig(spec SummaryConfigSpec) magnitude.SummaryConfig {
	typeCoeffs := make(map[string]magnitude.CoefficientsOverride, len(spec.TypeCoefficients))
	for magType, c := range spec.TypeCoefficients {
		typeCoeffs[magType] = magnitude.CoefficientsOverride{A: c.A, B: c.B}
	}

	var whitelist, blacklist map[string]bool
	if len(spec.Whitelist) > 0 {
		whitelist = make(map[string]bool, len(spec.Whitelist))
		for _, t := range spec.Whitelist {
			whitelist[t] = true
		}
	}
	if len(spec.Blacklist) > 0 {
		blacklist = make(map[string]bool, len(spec.Blacklist))
		for _, t := range spec.Blacklist {
			blacklist[t] = true
		}
	}

	return magnitude.SummaryConfig{
		Enabled:             spec.Enabled,
		Type:                spec.Type,
		MinStationCount:     spec.MinStationCount,
		DefaultCoefficients: magnitude.Coefficients{A: spec.DefaultCoefficients.A, B: spec.DefaultCoefficients.B},
		TypeCoefficients:    typeCoeffs,
		Whitelist:           whitelist,
		Blacklist:           blacklist,
	}
}
