package main

import (
	"context"
	"fmt"

	ioschema "github.com/geoinfo/firedb/internal/io/schema"
	"github.com/spf13/cobra"
)

func getCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the observation store schema",
		Long: `Create the wildfire observation store schema.

This command:
  1. Connects to PostgreSQL using configuration settings
  2. Ensures the postgis extension exists
  3. Creates the observations table via GORM AutoMigrate, including the
     (observation_date, location) uniqueness constraint
  4. Creates the GiST spatial index on the location column

The command is idempotent: running it against an existing schema makes
no changes.

Examples:
  firedb create
  firedb create --config custom.yaml`,
		RunE: runCreate,
	}
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := getConfig()

	sm := ioschema.NewManager(cfg)
	if err := sm.Create(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	fmt.Printf("Schema ready in %s@%s:%d/%s\n",
		cfg.Database.User, cfg.Database.Host,
		cfg.Database.Port, cfg.Database.Database)
	fmt.Println("Next step: run 'firedb ingest' to load observations")
	return nil
}
