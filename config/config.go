package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all a64map configuration.
type Config struct {
	Cells      CellsConfig      `yaml:"cells"`
	Records    RecordsConfig    `yaml:"records"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Scan       ScanConfig       `yaml:"scan"`
	Log        LogConfig        `yaml:"log"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Vis        VisConfig        `yaml:"vis"`
	Repl       ReplConfig       `yaml:"repl"`
}

type CellsConfig struct {
	Path string `yaml:"path"`
	// Count is the number of cells; 0 means the full 2^32 encoding space.
	Count uint64 `yaml:"count"`
}

type RecordsConfig struct {
	Path string `yaml:"path"`
}

type CheckpointConfig struct {
	// Path of the LevelDB checkpoint directory; empty disables resume.
	Path string `yaml:"path"`
}

type ScanConfig struct {
	Workers       int    `yaml:"workers"`
	ChunkSize     uint64 `yaml:"chunk_size"`
	ProgressEvery uint64 `yaml:"progress_every"`
	Oracle        string `yaml:"oracle"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Modules string `yaml:"modules"` // comma-separated modules with debug output
	Syslog  string `yaml:"syslog"`  // host:port, empty disables forwarding
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

type VisConfig struct {
	Theme string `yaml:"theme"`
	Order int    `yaml:"order"`
}

type ReplConfig struct {
	HistoryFile string `yaml:"history_file"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Cells:   CellsConfig{Path: "arm64.dat"},
		Records: RecordsConfig{Path: "arm64.json"},
		Scan: ScanConfig{
			Workers:       1,
			ChunkSize:     1 << 24,
			ProgressEvery: 10_000_000,
			Oracle:        "arm64asm",
		},
		Log:  LogConfig{Level: "info"},
		Vis:  VisConfig{Theme: "solarized", Order: 12},
		Repl: ReplConfig{HistoryFile: filepath.Join(os.TempDir(), "a64map_history.txt")},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Cells.Path = env.Str("A64MAP_CELLS", c.Cells.Path)
	c.Records.Path = env.Str("A64MAP_RECORDS", c.Records.Path)
	c.Checkpoint.Path = env.Str("A64MAP_CHECKPOINT", c.Checkpoint.Path)
	c.Scan.Workers = env.Int("A64MAP_WORKERS", c.Scan.Workers)
	c.Scan.Oracle = env.Str("A64MAP_ORACLE", c.Scan.Oracle)
	c.Log.Level = env.Str("A64MAP_LOG_LEVEL", c.Log.Level)
	c.Telemetry.OTLPEndpoint = env.Str("A64MAP_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)
}

// EffectiveWorkers resolves a non-positive worker count to the CPU count.
func (c *Config) EffectiveWorkers() int {
	if c.Scan.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Scan.Workers
}

// Validate checks the configuration for values no command can run with.
func (c *Config) Validate() error {
	if c.Scan.ChunkSize == 0 {
		return fmt.Errorf("scan.chunk_size must be positive")
	}
	if c.Scan.ChunkSize&(c.Scan.ChunkSize-1) != 0 {
		return fmt.Errorf("scan.chunk_size must be a power of two, got %d", c.Scan.ChunkSize)
	}
	if c.Scan.Oracle == "" {
		return fmt.Errorf("scan.oracle must be set")
	}
	if c.Cells.Count&(c.Cells.Count-1) != 0 {
		return fmt.Errorf("cells.count must be a power of two, got %d", c.Cells.Count)
	}
	if c.Vis.Order < 1 || c.Vis.Order > 12 {
		return fmt.Errorf("vis.order must be within 1..12, got %d", c.Vis.Order)
	}
	return nil
}
