// Package config loads configuration from files, environment variables
// and flags. This is an impure package; the pure configuration types
// live in pkg/config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/geoinfo/firedb/pkg/config"
	"github.com/spf13/viper"
)

// Load reads configuration from a YAML file with environment-variable
// overrides and returns a validated Config. If configPath is empty it
// searches default locations:
//   - ./firedb.yaml
//   - ~/.config/firedb/firedb.yaml
//
// Missing files fall back to built-in defaults; a malformed file or a
// failing validation is an error.
func Load(configPath string) (*config.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("firedb")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "firedb"))
		}
	}

	setDefaults(v)
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configPath != "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := config.Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults seeds viper with the built-in defaults so a partial
// config file only overrides what it names.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.database", d.Database.Database)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)

	v.SetDefault("pipeline.data_dir", d.Pipeline.DataDir)
	v.SetDefault("pipeline.batch_size", d.Pipeline.BatchSize)
	v.SetDefault("pipeline.max_distance_km", d.Pipeline.MaxDistanceKm)
	v.SetDefault("pipeline.date_tolerance_days", d.Pipeline.DateToleranceDays)
	v.SetDefault("pipeline.sample_ratio", d.Pipeline.SampleRatio)
	v.SetDefault("pipeline.sample_seed", d.Pipeline.SampleSeed)
	v.SetDefault("pipeline.jobs_number", d.Pipeline.JobsNumber)
	v.SetDefault("pipeline.batch_timeout", d.Pipeline.BatchTimeout)

	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.level", d.Log.Level)
}

// bindEnvVars binds the allowed environment variables explicitly so it
// is clear which ones exist.
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("FIREDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("database.host", "FIREDB_DATABASE_HOST")
	v.BindEnv("database.port", "FIREDB_DATABASE_PORT")
	v.BindEnv("database.user", "FIREDB_DATABASE_USER")
	v.BindEnv("database.password", "FIREDB_DATABASE_PASSWORD")
	v.BindEnv("database.database", "FIREDB_DATABASE_DATABASE")
	v.BindEnv("database.ssl_mode", "FIREDB_DATABASE_SSL_MODE")

	v.BindEnv("pipeline.data_dir", "FIREDB_PIPELINE_DATA_DIR")
	v.BindEnv("pipeline.batch_size", "FIREDB_PIPELINE_BATCH_SIZE")
	v.BindEnv("pipeline.max_distance_km", "FIREDB_PIPELINE_MAX_DISTANCE_KM")
	v.BindEnv("pipeline.date_tolerance_days",
		"FIREDB_PIPELINE_DATE_TOLERANCE_DAYS")
	v.BindEnv("pipeline.sample_ratio", "FIREDB_PIPELINE_SAMPLE_RATIO")
	v.BindEnv("pipeline.sample_seed", "FIREDB_PIPELINE_SAMPLE_SEED")
	v.BindEnv("pipeline.jobs_number", "FIREDB_PIPELINE_JOBS_NUMBER")

	v.BindEnv("log.level", "FIREDB_LOG_LEVEL")
	v.BindEnv("log.format", "FIREDB_LOG_FORMAT")

	v.AutomaticEnv()
}
