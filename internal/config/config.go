// Package config loads engine configuration from YAML with environment
// overrides. Defaults carry the engine's policy thresholds.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type ParserConfig struct {
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	Fallback string        `yaml:"fallback"` // "prose" or "" for none
}

type StoreConfig struct {
	StatePath string `yaml:"state_path"`
	Driver    string `yaml:"driver"` // "sqlite3" (cgo) or "sqlite" (pure Go)
}

type CensusConfig struct {
	MinKeyLength int `yaml:"min_key_length"`
}

type DisambiguationConfig struct {
	MinMentions   int `yaml:"min_mentions"`
	ContextWindow int `yaml:"context_window"`
}

type TrackerConfig struct {
	AliasPercentile       float64 `yaml:"alias_percentile"`
	DescriptivePercentile float64 `yaml:"descriptive_percentile"`
	MinAliasLength        int     `yaml:"min_alias_length"`
}

type MergeConfig struct {
	StrongThreshold float64 `yaml:"strong_threshold"`
	WeakThreshold   float64 `yaml:"weak_threshold"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

type ProfilingConfig struct {
	Level string `yaml:"level"` // "off", "minimal" or "detailed"
	Path  string `yaml:"path"`
}

type Config struct {
	Parser         ParserConfig         `yaml:"parser"`
	Store          StoreConfig          `yaml:"store"`
	Census         CensusConfig         `yaml:"census"`
	Disambiguation DisambiguationConfig `yaml:"disambiguation"`
	Tracker        TrackerConfig        `yaml:"tracker"`
	Merge          MergeConfig          `yaml:"merge"`
	Log            LogConfig            `yaml:"log"`
	Profiling      ProfilingConfig      `yaml:"profiling"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Parser: ParserConfig{
			URL:      "http://127.0.0.1:8000",
			Timeout:  30 * time.Second,
			Fallback: "prose",
		},
		Store: StoreConfig{
			StatePath: "state",
			Driver:    "sqlite3",
		},
		Census:         CensusConfig{MinKeyLength: 2},
		Disambiguation: DisambiguationConfig{MinMentions: 3, ContextWindow: 200},
		Tracker: TrackerConfig{
			AliasPercentile:       70,
			DescriptivePercentile: 90,
			MinAliasLength:        3,
		},
		Merge:     MergeConfig{StrongThreshold: 0.92, WeakThreshold: 0.75},
		Profiling: ProfilingConfig{Level: "off", Path: "profile.jsonl"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ARES_PARSER_URL"); v != "" {
		c.Parser.URL = v
	}
	if v := os.Getenv("ARES_STATE_PATH"); v != "" {
		c.Store.StatePath = v
	}
	if v := os.Getenv("ARES_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("ARES_PROFILE"); v != "" {
		c.Profiling.Level = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG value %q: %w", v, err)
		}
		c.Log.Debug = on
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("store.driver must be sqlite3 or sqlite, got %q", c.Store.Driver)
	}
	switch c.Parser.Fallback {
	case "", "prose":
	default:
		return fmt.Errorf("parser.fallback must be prose or empty, got %q", c.Parser.Fallback)
	}
	switch c.Profiling.Level {
	case "", "off", "minimal", "detailed":
	default:
		return fmt.Errorf("profiling.level must be off, minimal or detailed, got %q", c.Profiling.Level)
	}
	if c.Merge.StrongThreshold <= 0 || c.Merge.StrongThreshold > 1 {
		return fmt.Errorf("merge.strong_threshold must be in (0,1], got %v", c.Merge.StrongThreshold)
	}
	if c.Disambiguation.ContextWindow < 0 {
		return fmt.Errorf("disambiguation.context_window must not be negative")
	}
	return nil
}
