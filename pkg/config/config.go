package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents knb configuration
type Config struct {
	// Corpus layout conventions
	Corpus CorpusConfig `yaml:"corpus"`

	// Cross-validation settings
	Evaluation EvaluationConfig `yaml:"evaluation"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`

	// Token cache settings
	Cache CacheConfig `yaml:"cache"`

	// Profiling settings
	Profiling ProfilingConfig `yaml:"profiling"`
}

// CorpusConfig contains the path markers that label corpus documents
type CorpusConfig struct {
	SpamMarker   string `yaml:"spam_marker"`   // in the file name of spam documents
	UnusedMarker string `yaml:"unused_marker"` // anywhere in the path of excluded documents
	FoldPrefix   string `yaml:"fold_prefix"`   // directory name prefix before the fold number
}

// EvaluationConfig contains cross-validation parameters
type EvaluationConfig struct {
	Folds int `yaml:"folds"`

	// How folds with undefined recall/precision enter the mean: "skip" or "zero"
	UndefinedMetric string `yaml:"undefined_metric"`

	// Evaluate folds concurrently
	Parallel bool `yaml:"parallel"`
	Workers  int  `yaml:"workers"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	File   string `yaml:"file"`   // log file path, empty = stderr
	Format string `yaml:"format"` // json, text
}

// CacheConfig contains the Redis token cache settings
type CacheConfig struct {
	Enabled     bool   `yaml:"enabled"`
	RedisURL    string `yaml:"redis_url"`
	KeyPrefix   string `yaml:"key_prefix"`
	DatabaseNum int    `yaml:"database_num"`
	TTL         string `yaml:"ttl"` // Duration string like "24h"
	BatchSize   int    `yaml:"batch_size"`
}

// ProfilingConfig contains profiling settings
type ProfilingConfig struct {
	Mode    string `yaml:"mode"`    // "", cpu, mem
	Path    string `yaml:"path"`    // directory for profile output
	Timings bool   `yaml:"timings"` // print per-phase timings
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			SpamMarker:   "spmsg",
			UnusedMarker: "unused",
			FoldPrefix:   "part",
		},
		Evaluation: EvaluationConfig{
			Folds:           10,
			UndefinedMetric: "skip",
			Parallel:        false,
			Workers:         4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "text",
		},
		Cache: CacheConfig{
			Enabled:     false,
			RedisURL:    "redis://localhost:6379",
			KeyPrefix:   "knb:corpus",
			DatabaseNum: 0,
			TTL:         "24h",
			BatchSize:   100,
		},
		Profiling: ProfilingConfig{
			Mode:    "",
			Path:    ".",
			Timings: false,
		},
	}
}

// LoadConfig loads configuration from file
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// If no config file specified, return defaults
	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configPath, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CacheTTL parses the cache TTL
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Cache.TTL)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Corpus.SpamMarker == "" {
		return fmt.Errorf("spam_marker cannot be empty")
	}
	if c.Corpus.UnusedMarker == "" {
		return fmt.Errorf("unused_marker cannot be empty")
	}
	if c.Corpus.FoldPrefix == "" {
		return fmt.Errorf("fold_prefix cannot be empty")
	}

	if c.Evaluation.Folds < 1 {
		return fmt.Errorf("folds must be >= 1")
	}
	if c.Evaluation.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	if !oneOf(c.Evaluation.UndefinedMetric, "skip", "zero") {
		return fmt.Errorf("invalid undefined_metric policy: %s", c.Evaluation.UndefinedMetric)
	}

	if !oneOf(c.Logging.Level, "debug", "info", "warn", "error") {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	if !oneOf(c.Logging.Format, "text", "json") {
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}

	if c.Cache.Enabled {
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache redis_url cannot be empty when enabled")
		}
		if c.Cache.BatchSize < 1 {
			return fmt.Errorf("cache batch_size must be >= 1")
		}
	}
	if _, err := c.CacheTTL(); err != nil {
		return fmt.Errorf("invalid cache ttl: %w", err)
	}

	if !oneOf(c.Profiling.Mode, "", "cpu", "mem") {
		return fmt.Errorf("invalid profiling mode: %s", c.Profiling.Mode)
	}

	return nil
}

func oneOf(s string, valid ...string) bool {
	for _, v := range valid {
		if s == v {
			return true
		}
	}
	return false
}
