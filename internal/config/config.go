package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "incomefit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Grid     GridConfig     `yaml:"grid" envconfig:"GRID"`
	Scan     ScanConfig     `yaml:"scan" envconfig:"SCAN"`
	Quantile QuantileConfig `yaml:"quantile" envconfig:"QUANTILE"`
	Workers  int            `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	CheckpointDir string `yaml:"checkpoint_dir" envconfig:"CHECKPOINT_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// GridConfig controls the uniform real-currency grid the remapper targets.
type GridConfig struct {
	Width    float64 `yaml:"width" envconfig:"WIDTH" validate:"gt=0"`
	MaxValue float64 `yaml:"max_value" envconfig:"MAX_VALUE" validate:"gt=0"`
}

// ScanConfig controls the regime-transition candidate scan.
// BodyWeight and TailWeight combine the two segment R² values into the
// candidate score; the 1:1 default is the historical choice, not a derived
// optimum, so it stays configurable.
type ScanConfig struct {
	Min        float64 `yaml:"min" envconfig:"MIN" validate:"gte=0"`
	Max        float64 `yaml:"max" envconfig:"MAX" validate:"gt=0"`
	Step       float64 `yaml:"step" envconfig:"STEP" validate:"gt=0"`
	MinPoints  int     `yaml:"min_points" envconfig:"MIN_POINTS" validate:"gte=2"`
	BodyWeight float64 `yaml:"body_weight" envconfig:"BODY_WEIGHT" validate:"gt=0"`
	TailWeight float64 `yaml:"tail_weight" envconfig:"TAIL_WEIGHT" validate:"gt=0"`
}

// QuantileConfig controls the reference-period quantile reported after
// remapping.
type QuantileConfig struct {
	Q float64 `yaml:"q" envconfig:"Q" validate:"gt=0,lt=1"`
}

// Load loads configuration from environment variables and an optional YAML
// file. Environment variables take precedence over file values.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, apperrors.NewConfigError("failed to load config file", err)
			}
			cfg = *fileCfg
		}
	}

	// Environment overlays file values; remaining zero fields get defaults.
	if err := envconfig.Process("INCOMEFIT", &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills zero values that envconfig defaults do not reach when a
// YAML file partially populated the struct.
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/pipeline.log"
	}
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = "data"
	}
	if c.Paths.CheckpointDir == "" {
		c.Paths.CheckpointDir = filepath.Join(c.Paths.DataDir, "checkpoints")
	}
	if c.Paths.LogsDir == "" {
		c.Paths.LogsDir = "logs"
	}
	if c.Grid.Width == 0 {
		c.Grid.Width = 5000
	}
	if c.Grid.MaxValue == 0 {
		c.Grid.MaxValue = 500000
	}
	if c.Scan.Min == 0 && c.Scan.Max == 0 {
		c.Scan.Min = 50000
		c.Scan.Max = 350000
	}
	if c.Scan.Step == 0 {
		c.Scan.Step = 5000
	}
	if c.Scan.MinPoints == 0 {
		c.Scan.MinPoints = 3
	}
	if c.Scan.BodyWeight == 0 {
		c.Scan.BodyWeight = 1
	}
	if c.Scan.TailWeight == 0 {
		c.Scan.TailWeight = 1
	}
	if c.Quantile.Q == 0 {
		c.Quantile.Q = 0.9
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	if c.Scan.Max <= c.Scan.Min {
		return apperrors.NewConfigError(
			fmt.Sprintf("scan max (%.0f) must exceed scan min (%.0f)", c.Scan.Max, c.Scan.Min), nil)
	}
	if c.Grid.MaxValue < c.Grid.Width {
		return apperrors.NewConfigError(
			fmt.Sprintf("grid max value (%.0f) must cover at least one cell of width %.0f", c.Grid.MaxValue, c.Grid.Width), nil)
	}

	return nil
}

// EnsureDirectories creates the configured directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.CheckpointDir, c.Paths.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to create directory %s", dir), err)
		}
	}
	return nil
}

// CheckpointPath returns the path of a named checkpoint table.
func (c *Config) CheckpointPath(name string) string {
	return filepath.Join(c.Paths.CheckpointDir, name)
}

// Default returns a configuration with all defaults applied, bypassing
// environment and file loading. Used by tests and as a fallback in main.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
