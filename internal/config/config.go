// Package config loads the host process configuration: where indexes live
// on disk, the write-batch and RAM-to-disk promotion knobs that feed each
// index's Work Context, and logging settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete docidx host configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	DataDir  string         `yaml:"data_dir" json:"data_dir"`
	Indexing IndexingConfig `yaml:"indexing" json:"indexing"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// IndexingConfig holds the knobs spec §6 names as part of the Work Context:
// the batch size ceiling, the RAM-resident temp index promotion threshold,
// and whether new indexes default to RAM-only storage.
type IndexingConfig struct {
	// MaxNumberOfItemsToIndexInSingleBatch caps how many source documents
	// index_documents drains per call before returning to the caller.
	MaxNumberOfItemsToIndexInSingleBatch int `yaml:"max_items_per_batch" json:"max_items_per_batch"`

	// TempIndexInMemoryMaxBytes is the byte threshold past which a
	// RAM-backed temp index is promoted to a filesystem directory.
	TempIndexInMemoryMaxBytes int64 `yaml:"temp_index_in_memory_max_bytes" json:"temp_index_in_memory_max_bytes"`

	// RunInMemory makes new indexes RAM-backed by default instead of
	// filesystem-backed.
	RunInMemory bool `yaml:"run_in_memory" json:"run_in_memory"`
}

// LoggingConfig mirrors internal/logging.Config's shape so the host config
// file can drive the logger without the config package importing logging.
type LoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	FilePath      string `yaml:"file_path" json:"file_path"`
	MaxSizeMB     int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	WriteToStderr bool   `yaml:"write_to_stderr" json:"write_to_stderr"`
}

const (
	// CurrentConfigVersion is the schema version written by NewConfig.
	CurrentConfigVersion = 1

	// DefaultMaxItemsPerBatch is the default write-batch ceiling.
	DefaultMaxItemsPerBatch = 1000

	// DefaultTempIndexInMemoryMaxBytes is the default RAM→disk promotion
	// threshold: 32 MiB.
	DefaultTempIndexInMemoryMaxBytes = 32 * 1024 * 1024

	envPrefix = "DOCIDX_"
)

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		DataDir: DefaultDataDir(),
		Indexing: IndexingConfig{
			MaxNumberOfItemsToIndexInSingleBatch: DefaultMaxItemsPerBatch,
			TempIndexInMemoryMaxBytes:            DefaultTempIndexInMemoryMaxBytes,
			RunInMemory:                          false,
		},
		Logging: LoggingConfig{
			Level:         "info",
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: true,
		},
	}
}

// DefaultDataDir returns ~/.docidx/data, the default home for on-disk
// indexes.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".docidx", "data")
	}
	return filepath.Join(home, ".docidx", "data")
}

// GetUserConfigPath returns the path to the user-level configuration file,
// honoring DOCIDX_CONFIG_PATH if set.
func GetUserConfigPath() string {
	if override := os.Getenv(envPrefix + "CONFIG_PATH"); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".docidx", "config.yaml")
	}
	return filepath.Join(home, ".docidx", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds a Config by layering defaults, then the user config file (if
// present), then environment overrides — the same three-tier precedence
// the teacher's config loader used.
func Load() (*Config, error) {
	cfg := NewConfig()

	if UserConfigExists() {
		if err := cfg.loadYAML(GetUserConfigPath()); err != nil {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	c.mergeWith(&loaded)
	return nil
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.Indexing.MaxNumberOfItemsToIndexInSingleBatch != 0 {
		c.Indexing.MaxNumberOfItemsToIndexInSingleBatch = other.Indexing.MaxNumberOfItemsToIndexInSingleBatch
	}
	if other.Indexing.TempIndexInMemoryMaxBytes != 0 {
		c.Indexing.TempIndexInMemoryMaxBytes = other.Indexing.TempIndexInMemoryMaxBytes
	}
	c.Indexing.RunInMemory = other.Indexing.RunInMemory

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides lets DOCIDX_* environment variables win over both
// defaults and the config file, matching the teacher's precedence order.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(envPrefix + "DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(envPrefix + "MAX_ITEMS_PER_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Indexing.MaxNumberOfItemsToIndexInSingleBatch = n
		}
	}
	if v := os.Getenv(envPrefix + "TEMP_INDEX_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Indexing.TempIndexInMemoryMaxBytes = n
		}
	}
	if v := os.Getenv(envPrefix + "RUN_IN_MEMORY"); v != "" {
		c.Indexing.RunInMemory = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for obviously invalid values.
func (c *Config) Validate() error {
	if c.Indexing.MaxNumberOfItemsToIndexInSingleBatch <= 0 {
		return fmt.Errorf("indexing.max_items_per_batch must be positive, got %d", c.Indexing.MaxNumberOfItemsToIndexInSingleBatch)
	}
	if c.Indexing.TempIndexInMemoryMaxBytes <= 0 {
		return fmt.Errorf("indexing.temp_index_in_memory_max_bytes must be positive, got %d", c.Indexing.TempIndexInMemoryMaxBytes)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	return nil
}

// WriteYAML writes the configuration to path as YAML, creating parent
// directories as needed.
func (c *Config) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
