package main

import (
	"context"
	"fmt"

	"github.com/geoinfo/firedb/internal/io/database"
	"github.com/geoinfo/firedb/internal/io/pipeline"
	"github.com/geoinfo/firedb/internal/io/raster"
	"github.com/geoinfo/firedb/internal/io/source"
	"github.com/spf13/cobra"
)

func getCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify data availability and database connectivity",
		Long: `Verify that the preprocessed datasets exist on disk and that the
database is reachable, without mutating any state.

Equivalent to 'firedb ingest --check-only' plus a connectivity check
against the configured database.

Examples:
  firedb check
  firedb check --config custom.yaml`,
		RunE: runCheck,
	}
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := getConfig()

	reader := source.New(cfg.Pipeline.DataDir, log)
	demDir := source.Paths{Root: cfg.Pipeline.DataDir}.DEMDir()
	sampler, err := raster.Open(demDir, log)
	if err != nil {
		return fmt.Errorf("failed to open DEM tiles: %w", err)
	}

	op := database.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		// Availability on disk is still worth reporting when the
		// database is down.
		p := pipeline.New(cfg, log, reader, sampler, nil, nil)
		if cerr := p.Check(ctx); cerr != nil {
			return cerr
		}
		return err
	}
	defer op.Close()

	p := pipeline.New(cfg, log, reader, sampler, nil, op)
	return p.Check(ctx)
}
