package main

import (
	"fmt"
	"log/slog"
	"os"

	ioconfig "github.com/geoinfo/firedb/internal/io/config"
	"github.com/geoinfo/firedb/pkg/config"
	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *slog.Logger
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "firedb",
		Short: "firedb builds the integrated wildfire observation store",
		Long: `firedb integrates preprocessed wildfire data sources into a single
PostGIS-backed observation store used by map and prediction services.

It joins NASA FIRMS fire detections with NOAA GHCND weather records
(nearest station within a configurable radius and date tolerance),
optionally samples USGS elevation tiles, normalizes everything into one
observation schema and bulk-loads it with duplicate-skip semantics.

Commands:
  create: Create the database schema and PostGIS extension
  ingest: Run the integration pipeline and load observations
  check:  Verify data availability and database connectivity
  stats:  Report aggregate statistics of the store

Configuration precedence (highest to lowest):
  1. CLI flags (--batch-size, etc.)
  2. Environment variables (FIREDB_*)
  3. Config file (firedb.yaml)
  4. Built-in defaults

Environment Variables:
  Nested fields use underscores (database.host becomes
  FIREDB_DATABASE_HOST).

  Examples:
    FIREDB_DATABASE_HOST            PostgreSQL host
    FIREDB_DATABASE_PORT            PostgreSQL port
    FIREDB_DATABASE_PASSWORD        PostgreSQL password
    FIREDB_PIPELINE_DATA_DIR        Preprocessed data root
    FIREDB_PIPELINE_BATCH_SIZE      Insert batch size
    FIREDB_LOG_LEVEL                Log level (debug/info/warn/error)

  See 'go doc github.com/geoinfo/firedb/pkg/config' for the full list.`,
		Version: fmt.Sprintf("%s (build %s)", firedb.Version, firedb.Build),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			result, err := ioconfig.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = result
			log = logger.New(os.Stderr, cfg.Log)
			slog.SetDefault(log)
			return nil
		},
		SilenceErrors: false,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./firedb.yaml or ~/.config/firedb/firedb.yaml)")

	rootCmd.AddCommand(getCreateCmd())
	rootCmd.AddCommand(getIngestCmd())
	rootCmd.AddCommand(getCheckCmd())
	rootCmd.AddCommand(getStatsCmd())

	return rootCmd
}

// getConfig returns the loaded configuration for use in subcommands.
func getConfig() *config.Config {
	return cfg
}
