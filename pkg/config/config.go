// Package config provides configuration management for firedb.
//
// This package has no I/O dependencies (no file operations, no network
// calls).
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > firedb.yaml >
// defaults.
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in firedb.yaml and env vars):
//   - Database: host, port, user, password, database, ssl_mode
//   - Pipeline: data_dir, batch_size, max_distance_km,
//     date_tolerance_days, sample_ratio, sample_seed, jobs_number
//   - Log: level, format
//
// Runtime-only fields (CLI flags only):
//   - Ingest.DateStart, DateEnd, IncludeElevation, WithNegatives,
//     CheckpointPath, CheckOnly
//
// # Environment Variables
//
// Use the FIREDB_ prefix with underscores for nesting:
//
//	FIREDB_DATABASE_HOST=localhost
//	FIREDB_DATABASE_PORT=5432
//	FIREDB_PIPELINE_BATCH_SIZE=1000
//	FIREDB_LOG_LEVEL=info
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config represents the complete firedb configuration.
type Config struct {
	// Database contains PostgreSQL/PostGIS connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Pipeline contains settings for the integration pipeline.
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Ingest holds runtime-only options for a single ingest invocation.
	// Set from CLI flags, never from the config file.
	Ingest IngestConfig `mapstructure:"-" yaml:"-"`
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
}

// PipelineConfig contains tunables for joining and loading.
type PipelineConfig struct {
	// DataDir is the root of the preprocessed data layout:
	// <DataDir>/cleaned/*.parquet, <DataDir>/aligned/*.parquet and
	// <DataDir>/aligned/usgs/ for elevation tiles.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// BatchSize defines the number of records inserted per batch.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// MaxDistanceKm is the spatial join radius: a fire point with no
	// weather station within this distance gets no weather match.
	MaxDistanceKm float64 `mapstructure:"max_distance_km" yaml:"max_distance_km"`

	// DateToleranceDays is the temporal join window in days.
	DateToleranceDays int `mapstructure:"date_tolerance_days" yaml:"date_tolerance_days"`

	// SampleRatio is the negative:positive sample ratio used when
	// synthesizing non-fire observations.
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`

	// SampleSeed seeds the negative-sample shuffle so runs are
	// reproducible.
	SampleSeed int64 `mapstructure:"sample_seed" yaml:"sample_seed"`

	// JobsNumber is the number of concurrent workers for the
	// pure-computation parts of the spatial join.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// VegetationPolicyFile optionally points to a YAML file overriding
	// the vegetation classification thresholds.
	VegetationPolicyFile string `mapstructure:"vegetation_policy_file" yaml:"vegetation_policy_file"`

	// BatchTimeout bounds a single insert batch; a batch exceeding it
	// is treated as a retryable failure.
	BatchTimeout time.Duration `mapstructure:"batch_timeout" yaml:"batch_timeout"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json' or 'text'.
	Format string `mapstructure:"format" yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'.
	Level string `mapstructure:"level" yaml:"level"`
}

// IngestConfig holds per-invocation options of the ingest command.
type IngestConfig struct {
	// DateStart and DateEnd filter source records by observation date.
	// ISO dates (YYYY-MM-DD); empty means unbounded.
	DateStart string
	DateEnd   string

	// IncludeElevation attaches DEM samples to joined observations.
	IncludeElevation bool

	// WithNegatives synthesizes non-fire samples for balanced datasets.
	WithNegatives bool

	// CheckpointPath enables resumable insertion when non-empty.
	CheckpointPath string

	// CheckOnly runs prerequisite checks and exits without mutating
	// any state.
	CheckOnly bool
}

// Defaults creates a Config with sensible default values.
// The returned config is always valid and ready to use.
func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "wildfire",
			SSLMode:  "disable",
		},
		Pipeline: PipelineConfig{
			DataDir:           "data",
			BatchSize:         1000,
			MaxDistanceKm:     50,
			DateToleranceDays: 1,
			SampleRatio:       0.5,
			SampleSeed:        42,
			JobsNumber:        runtime.NumCPU(),
			BatchTimeout:      2 * time.Minute,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// Validate checks the configuration for values that would fail later in
// the run. It is called before any I/O so bad settings surface early.
func (c *Config) Validate() error {
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("pipeline.batch_size must be positive, got %d",
			c.Pipeline.BatchSize)
	}
	if c.Pipeline.MaxDistanceKm <= 0 {
		return fmt.Errorf("pipeline.max_distance_km must be positive, got %g",
			c.Pipeline.MaxDistanceKm)
	}
	if c.Pipeline.DateToleranceDays < 0 {
		return fmt.Errorf(
			"pipeline.date_tolerance_days must not be negative, got %d",
			c.Pipeline.DateToleranceDays)
	}
	if c.Pipeline.SampleRatio < 0 {
		return fmt.Errorf("pipeline.sample_ratio must not be negative, got %g",
			c.Pipeline.SampleRatio)
	}
	if c.Pipeline.JobsNumber <= 0 {
		return fmt.Errorf("pipeline.jobs_number must be positive, got %d",
			c.Pipeline.JobsNumber)
	}
	switch c.Database.SSLMode {
	case "disable", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("database.ssl_mode %q is not valid",
			c.Database.SSLMode)
	}
	return validDateRange(c.Ingest.DateStart, c.Ingest.DateEnd)
}

func validDateRange(start, end string) error {
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.Parse("2006-01-02", start); err != nil {
			return fmt.Errorf("invalid start date %q: %w", start, err)
		}
	}
	if end != "" {
		if e, err = time.Parse("2006-01-02", end); err != nil {
			return fmt.Errorf("invalid end date %q: %w", end, err)
		}
	}
	if start != "" && end != "" && e.Before(s) {
		return fmt.Errorf("date range is inverted: %s is after %s", start, end)
	}
	return nil
}
