// Package config loads linkcheck configuration from .linkcheck/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"linkcheck/internal/errors"
)

// Config represents the complete linkcheck configuration (v2 schema)
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	// LocalRepository is the root of the local artifact store
	// (e.g. ~/.m2/repository). Empty means the default location.
	LocalRepository string `json:"localRepository" mapstructure:"localRepository"`

	Resolution  ResolutionConfig  `json:"resolution" mapstructure:"resolution"`
	Parsing     ParsingConfig     `json:"parsing" mapstructure:"parsing"`
	SymbolCache SymbolCacheConfig `json:"symbolCache" mapstructure:"symbolCache"`
	Logging     LoggingConfig     `json:"logging" mapstructure:"logging"`
}

// ResolutionConfig controls dependency graph traversal
type ResolutionConfig struct {
	// EqualDistanceTieBreak selects among module-equal artifacts whose
	// paths have the same length: "emission-order" keeps the first one
	// the resolver emitted. No other policy is implemented.
	EqualDistanceTieBreak string `json:"equalDistanceTieBreak" mapstructure:"equalDistanceTieBreak"`
}

// ParsingConfig controls class file parsing and archive access
type ParsingConfig struct {
	// MaxParsers bounds the parallel symbol extraction fan-out.
	// Zero means the CPU count.
	MaxParsers int `json:"maxParsers" mapstructure:"maxParsers"`
	// MaxOpenArchives bounds concurrently open archive handles.
	MaxOpenArchives int `json:"maxOpenArchives" mapstructure:"maxOpenArchives"`
	// ClassCacheSize bounds the number of parsed class files held in memory.
	ClassCacheSize int `json:"classCacheSize" mapstructure:"classCacheSize"`
}

// SymbolCacheConfig controls the on-disk extracted-symbol cache
type SymbolCacheConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 2,
		Resolution: ResolutionConfig{
			EqualDistanceTieBreak: "emission-order",
		},
		Parsing: ParsingConfig{
			MaxParsers:      runtime.NumCPU(),
			MaxOpenArchives: 64,
			ClassCacheSize:  8192,
		},
		SymbolCache: SymbolCacheConfig{
			Enabled: false,
			Path:    ".linkcheck/symbols.db",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from <workDir>/.linkcheck/config.json,
// falling back to defaults when the file does not exist.
func LoadConfig(workDir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(workDir, ".linkcheck"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, errors.New(errors.ConfigInvalid, "failed to read config", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to unmarshal config", err)
	}

	return cfg, nil
}

// Save writes the configuration to <workDir>/.linkcheck/config.json
func (c *Config) Save(workDir string) error {
	dir := filepath.Join(workDir, ".linkcheck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 2 {
		return errors.Newf(errors.ConfigInvalid, "unsupported config version %d", c.Version)
	}
	if c.Parsing.MaxParsers < 0 {
		return errors.Newf(errors.ConfigInvalid, "maxParsers must not be negative")
	}
	if c.Parsing.MaxOpenArchives < 1 {
		return errors.Newf(errors.ConfigInvalid, "maxOpenArchives must be at least 1")
	}
	if c.Parsing.ClassCacheSize < 1 {
		return errors.Newf(errors.ConfigInvalid, "classCacheSize must be at least 1")
	}
	switch c.Resolution.EqualDistanceTieBreak {
	case "", "emission-order":
	default:
		return errors.Newf(errors.ConfigInvalid,
			"unknown equalDistanceTieBreak %q", c.Resolution.EqualDistanceTieBreak)
	}
	return nil
}

// EffectiveMaxParsers resolves the parser pool size.
func (c *Config) EffectiveMaxParsers() int {
	if c.Parsing.MaxParsers > 0 {
		return c.Parsing.MaxParsers
	}
	return runtime.NumCPU()
}
