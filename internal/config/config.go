// Package config provides configuration management for grouping operations
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DivisionByZeroPolicy selects what a ratio does with a zero denominator
type DivisionByZeroPolicy string

const (
	// DivisionByZeroMissing yields a missing value for the affected row
	DivisionByZeroMissing DivisionByZeroPolicy = "missing"
	// DivisionByZeroError fails the whole operation
	DivisionByZeroError DivisionByZeroPolicy = "error"
)

// Config represents the global configuration for grouping operations
type Config struct {
	// Column flattening
	Joiner                     string `json:"joiner" yaml:"joiner"`                                               // Separator between column and reduction names
	KeepSingleLevelUnflattened bool   `json:"keep_single_level_unflattened" yaml:"keep_single_level_unflattened"` // Keep the bare column name for a single (column, reduction) pair

	// Ratio aggregation
	DivisionByZero DivisionByZeroPolicy `json:"division_by_zero" yaml:"division_by_zero"` // "missing" or "error"

	// Parallel Processing Configuration
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum groups to reduce in parallel
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)

	// Debugging Configuration
	VerboseLogging bool `json:"verbose_logging" yaml:"verbose_logging"` // Emit debug records for every operation
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultJoiner            = "_"
	DefaultParallelThreshold = 256
	DefaultDivisionByZero    = DivisionByZeroMissing
)

// Initialize global configuration with defaults
func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		Joiner:                     DefaultJoiner,
		KeepSingleLevelUnflattened: true,
		DivisionByZero:             DefaultDivisionByZero,
		ParallelThreshold:          DefaultParallelThreshold,
		WorkerPoolSize:             0, // Auto-detect
		VerboseLogging:             false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.Joiner == "" {
		return fmt.Errorf("Joiner must not be empty")
	}

	switch c.DivisionByZero {
	case DivisionByZeroMissing, DivisionByZeroError:
	default:
		return fmt.Errorf("DivisionByZero must be %q or %q, got %q",
			DivisionByZeroMissing, DivisionByZeroError, c.DivisionByZero)
	}

	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.Joiner == "" {
		c.Joiner = defaults.Joiner
	}
	if c.DivisionByZero == "" {
		c.DivisionByZero = defaults.DivisionByZero
	}
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}

	// Boolean fields are left alone so an explicit false survives.
	// Decoders start from NewConfig() to pick up boolean defaults.

	return c
}

// Logger builds a slog.Logger writing text records to w, at debug level
// when VerboseLogging is set
func (c Config) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.VerboseLogging {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	config := NewConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromYAML loads configuration from YAML data
func LoadFromYAML(data []byte) (Config, error) {
	config := NewConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a file (supports JSON and YAML)
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		config, err = LoadFromJSON(data)
	case ".yaml", ".yml":
		config, err = LoadFromYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() Config {
	config := NewConfig()

	if val, ok := os.LookupEnv("GROUPER_JOINER"); ok && val != "" {
		config.Joiner = val
	}

	if val := os.Getenv("GROUPER_KEEP_SINGLE_LEVEL"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.KeepSingleLevelUnflattened = parsed
		}
	}

	if val := os.Getenv("GROUPER_DIVISION_BY_ZERO"); val != "" {
		config.DivisionByZero = DivisionByZeroPolicy(strings.ToLower(val))
	}

	if val := os.Getenv("GROUPER_PARALLEL_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelThreshold = parsed
		}
	}

	if val := os.Getenv("GROUPER_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerPoolSize = parsed
		}
	}

	if val := os.Getenv("GROUPER_VERBOSE_LOGGING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	return config
}
