// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"firestige.xyz/geonet/internal/log"
)

// EnvPrefix is the prefix of environment overrides, e.g. GEONET_LOG_LEVEL.
const EnvPrefix = "GEONET"

// GlobalConfig represents the top-level configuration.
// Maps to the `geonet:` root key in YAML.
type GlobalConfig struct {
	Station  StationConfig    `mapstructure:"station"`
	Dedup    DedupConfig      `mapstructure:"dedup"`
	Pipeline PipelineConfig   `mapstructure:"pipeline"`
	Output   OutputConfig     `mapstructure:"output"`
	Metrics  MetricsConfig    `mapstructure:"metrics"`
	Log      log.LoggerConfig `mapstructure:"log"`
}

// ─── Station ───

// StationConfig holds the settings of the receiving ITS station.
type StationConfig struct {
	ItsGnProtocolVersion uint8 `mapstructure:"its_gn_protocol_version"` // Basic Header version accepted
}

// ─── Duplicate Suppression ───

// DedupConfig controls the duplicate-packet cache.
type DedupConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ─── Pipeline ───

// PipelineConfig sizes the replay worker pool.
type PipelineConfig struct {
	Workers    int             `mapstructure:"workers"`     // 0 = one worker
	BufferSize int             `mapstructure:"buffer_size"` // frame channel capacity
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig bounds the frames accepted from one station per window.
type RateLimitConfig struct {
	MaxFramesPerStation int           `mapstructure:"max_frames_per_station"` // 0 = disabled
	Window              time.Duration `mapstructure:"window"`
}

// ─── Output ───

// OutputConfig selects the record encoding.
type OutputConfig struct {
	Format string `mapstructure:"format"` // json / yaml / pb
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `geonet: ...`.
type configRoot struct {
	Geonet GlobalConfig `mapstructure:"geonet"`
}

// Load loads configuration from path, or from defaults and the environment alone
// when path is empty.
// The YAML file uses `geonet:` as root key; env vars use the GEONET_ prefix
// (e.g., GEONET_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variable overrides.
	// The `geonet.` key prefix maps to `GEONET_` via the key replacer
	// (e.g., key "geonet.log.level" → env "GEONET_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return unmarshal(v)
}

// Default returns the validated built-in configuration, ignoring files and
// environment.
func Default() *GlobalConfig {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		panic(fmt.Sprintf("config: built-in defaults are invalid: %v", err))
	}
	return cfg
}

func unmarshal(v *viper.Viper) (*GlobalConfig, error) {
	// Unmarshal into wrapper → extract inner GlobalConfig
	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Geonet

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "geonet." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Station defaults
	v.SetDefault("geonet.station.its_gn_protocol_version", 1)

	// Dedup defaults
	v.SetDefault("geonet.dedup.enabled", false)
	v.SetDefault("geonet.dedup.ttl", "30s")
	v.SetDefault("geonet.dedup.cleanup_interval", "1m")

	// Pipeline defaults
	v.SetDefault("geonet.pipeline.workers", 4)
	v.SetDefault("geonet.pipeline.buffer_size", 1024)
	v.SetDefault("geonet.pipeline.rate_limit.max_frames_per_station", 0)
	v.SetDefault("geonet.pipeline.rate_limit.window", "1s")

	// Output defaults
	v.SetDefault("geonet.output.format", "json")

	// Metrics defaults
	v.SetDefault("geonet.metrics.enabled", false)
	v.SetDefault("geonet.metrics.listen", ":9091")
	v.SetDefault("geonet.metrics.path", "/metrics")

	// Log defaults
	v.SetDefault("geonet.log.level", "info")
	v.SetDefault("geonet.log.pattern", log.DefaultPattern)
	v.SetDefault("geonet.log.time", log.DefaultTime)
	v.SetDefault("geonet.log.file.enabled", false)
	v.SetDefault("geonet.log.file.path", "/var/log/geonet/geonet.log")
	v.SetDefault("geonet.log.file.rotation.max_size_mb", 100)
	v.SetDefault("geonet.log.file.rotation.max_age_days", 30)
	v.SetDefault("geonet.log.file.rotation.max_backups", 5)
	v.SetDefault("geonet.log.file.rotation.compress", true)
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Station ──
	if cfg.Station.ItsGnProtocolVersion > 15 {
		return fmt.Errorf("invalid station.its_gn_protocol_version: %d (must fit in 4 bits)", cfg.Station.ItsGnProtocolVersion)
	}

	// ── Log validation ──
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace/debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Path == "" {
		return fmt.Errorf("log.file.path is required when log.file.enabled=true")
	}

	// ── Output ──
	switch cfg.Output.Format {
	case "json", "yaml", "pb":
	default:
		return fmt.Errorf("invalid output format: %s (must be json/yaml/pb)", cfg.Output.Format)
	}

	// ── Pipeline ──
	if cfg.Pipeline.Workers < 0 {
		return fmt.Errorf("invalid pipeline.workers: %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 1
	}
	if cfg.Pipeline.BufferSize <= 0 {
		cfg.Pipeline.BufferSize = 1024
	}
	if cfg.Pipeline.RateLimit.MaxFramesPerStation < 0 {
		return fmt.Errorf("invalid pipeline.rate_limit.max_frames_per_station: %d", cfg.Pipeline.RateLimit.MaxFramesPerStation)
	}

	// ── Dedup ──
	if cfg.Dedup.Enabled && cfg.Dedup.TTL <= 0 {
		return fmt.Errorf("dedup.ttl must be positive when dedup.enabled=true")
	}

	// ── Metrics ──
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen is required when metrics.enabled=true")
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	return nil
}
