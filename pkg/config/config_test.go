package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "wildfire", cfg.Database.Database)
	assert.Equal(t, 1000, cfg.Pipeline.BatchSize)
	assert.Equal(t, 50.0, cfg.Pipeline.MaxDistanceKm)
	assert.Equal(t, 1, cfg.Pipeline.DateToleranceDays)
	assert.Equal(t, 0.5, cfg.Pipeline.SampleRatio)
	assert.Equal(t, int64(42), cfg.Pipeline.SampleSeed)
	assert.Positive(t, cfg.Pipeline.JobsNumber)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"zero batch size",
			func(c *Config) { c.Pipeline.BatchSize = 0 },
			"batch_size",
		},
		{
			"negative distance",
			func(c *Config) { c.Pipeline.MaxDistanceKm = -1 },
			"max_distance_km",
		},
		{
			"negative tolerance",
			func(c *Config) { c.Pipeline.DateToleranceDays = -1 },
			"date_tolerance_days",
		},
		{
			"zero tolerance is allowed",
			func(c *Config) { c.Pipeline.DateToleranceDays = 0 },
			"",
		},
		{
			"negative sample ratio",
			func(c *Config) { c.Pipeline.SampleRatio = -0.5 },
			"sample_ratio",
		},
		{
			"zero jobs",
			func(c *Config) { c.Pipeline.JobsNumber = 0 },
			"jobs_number",
		},
		{
			"bad ssl mode",
			func(c *Config) { c.Database.SSLMode = "maybe" },
			"ssl_mode",
		},
		{
			"bad start date",
			func(c *Config) { c.Ingest.DateStart = "July 4" },
			"invalid start date",
		},
		{
			"bad end date",
			func(c *Config) { c.Ingest.DateEnd = "2020-13-40" },
			"invalid end date",
		},
		{
			"inverted range",
			func(c *Config) {
				c.Ingest.DateStart = "2020-09-01"
				c.Ingest.DateEnd = "2020-06-01"
			},
			"inverted",
		},
		{
			"valid range",
			func(c *Config) {
				c.Ingest.DateStart = "2020-06-01"
				c.Ingest.DateEnd = "2020-09-01"
			},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
