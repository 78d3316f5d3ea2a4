// Package pipeline sequences the integration stages end to end:
// availability check, source loading, spatial-temporal join, mapping
// and validation, and batched insertion. The stages themselves live in
// pkg/join, pkg/mapper and the sibling internal/io packages; this
// package only orchestrates and reports.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/geoinfo/firedb/pkg/config"
	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/join"
	"github.com/geoinfo/firedb/pkg/mapper"
)

type pipeline struct {
	cfg      *config.Config
	log      *slog.Logger
	reader   firedb.SourceReader
	sampler  firedb.ElevationSampler
	inserter firedb.ObservationInserter
	pinger   Pinger
}

// Pinger is the slice of the database operator the check stage needs.
type Pinger interface {
	Ping(ctx context.Context) error
	TableExists(ctx context.Context, tableName string) (bool, error)
}

// New wires the pipeline from its stage implementations. sampler may be
// an unavailable sampler (no tiles); elevation is then skipped with a
// warning instead of failing the run.
func New(
	cfg *config.Config,
	log *slog.Logger,
	reader firedb.SourceReader,
	sampler firedb.ElevationSampler,
	inserter firedb.ObservationInserter,
	pinger Pinger,
) firedb.Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &pipeline{
		cfg:      cfg,
		log:      log,
		reader:   reader,
		sampler:  sampler,
		inserter: inserter,
		pinger:   pinger,
	}
}

// Run executes load, join, map+validate and insert. The returned Stats
// are meaningful even when err is non-nil: they reflect whatever was
// committed before the failure, so callers always report them.
func (p *pipeline) Run(ctx context.Context) (firedb.Stats, error) {
	var stats firedb.Stats

	avail := p.reader.CheckAvailability()
	if !avail.PrimaryReady() {
		return stats, fmt.Errorf(
			"primary datasets missing: fires aligned=%v, weather aligned=%v",
			avail.FiresAligned, avail.WeatherAligned)
	}

	dates, err := p.dateRange()
	if err != nil {
		return stats, err
	}

	fires, err := p.reader.LoadFires(true, dates, nil)
	if err != nil {
		return stats, err
	}
	weather, err := p.reader.LoadWeather(true, dates, nil)
	if err != nil {
		return stats, err
	}
	if len(fires) == 0 {
		p.log.Warn("no fire detections in the selected range; nothing to do")
		return stats, nil
	}

	sampler := p.elevationSampler(avail)

	unified, err := join.CreateUnified(fires, weather, sampler,
		!p.cfg.Ingest.WithNegatives, join.Options{
			MaxDistanceKm: p.cfg.Pipeline.MaxDistanceKm,
			ToleranceDays: p.cfg.Pipeline.DateToleranceDays,
			SampleRatio:   p.cfg.Pipeline.SampleRatio,
			SampleSeed:    p.cfg.Pipeline.SampleSeed,
			Jobs:          p.cfg.Pipeline.JobsNumber,
		})
	if err != nil {
		return stats, err
	}
	p.log.Info("created unified observations",
		"fires", len(fires),
		"stations", stationCount(weather),
		"unified", len(unified))

	m, err := p.mapper()
	if err != nil {
		return stats, err
	}
	mapped := m.MapAll(unified, true, sampler != nil)

	valid, rejected := mapper.Partition(mapped)
	for _, rej := range rejected {
		p.log.Warn("rejected observation",
			"index", rej.Index,
			"date", rej.Record.ObservationDate.Format("2006-01-02"),
			"reasons", rej.Reasons)
	}
	if len(rejected) > 0 {
		p.log.Info("validation dropped records",
			"rejected", len(rejected), "valid", len(valid))
	}

	if p.cfg.Ingest.CheckpointPath != "" {
		stats, err = p.inserter.InsertIncremental(ctx, valid,
			p.cfg.Ingest.CheckpointPath, p.cfg.Pipeline.BatchSize)
	} else {
		stats, err = p.inserter.InsertWithProgress(ctx, valid,
			p.cfg.Pipeline.BatchSize, true)
	}
	return stats, err
}

// Check runs prerequisite checks without mutating any state: dataset
// availability on disk, database connectivity, and schema presence.
func (p *pipeline) Check(ctx context.Context) error {
	avail := p.reader.CheckAvailability()

	status := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "MISSING"
	}
	fmt.Fprintln(os.Stdout, "Data availability:")
	fmt.Fprintf(os.Stdout, "  fires (cleaned):    %s\n", status(avail.FiresCleaned))
	fmt.Fprintf(os.Stdout, "  fires (aligned):    %s\n", status(avail.FiresAligned))
	fmt.Fprintf(os.Stdout, "  weather (cleaned):  %s\n", status(avail.WeatherCleaned))
	fmt.Fprintf(os.Stdout, "  weather (aligned):  %s\n", status(avail.WeatherAligned))
	if avail.Elevation {
		fmt.Fprintf(os.Stdout, "  elevation tiles:    %d\n", avail.TileCount)
	} else {
		fmt.Fprintln(os.Stdout, "  elevation tiles:    none (optional)")
	}

	if p.pinger != nil {
		if err := p.pinger.Ping(ctx); err != nil {
			return fmt.Errorf("database is not reachable: %w", err)
		}
		exists, err := p.pinger.TableExists(ctx, "wildfire_observations")
		if err != nil {
			return err
		}
		if exists {
			fmt.Fprintln(os.Stdout, "Database:             ok (schema present)")
		} else {
			fmt.Fprintln(os.Stdout,
				"Database:             ok (schema missing, run 'firedb create')")
		}
	}

	if !avail.PrimaryReady() {
		return fmt.Errorf("primary datasets are not ready")
	}
	return nil
}

// elevationSampler decides whether elevation participates in this run.
func (p *pipeline) elevationSampler(
	avail firedb.Availability,
) firedb.ElevationSampler {
	if !p.cfg.Ingest.IncludeElevation {
		return nil
	}
	if p.sampler == nil || !p.sampler.Available() {
		p.log.Warn("elevation requested but no DEM tiles found; skipping",
			"tiles", avail.TileCount)
		return nil
	}
	return p.sampler
}

// mapper builds the record mapper, loading the vegetation policy file
// when one is configured.
func (p *pipeline) mapper() (*mapper.Mapper, error) {
	m := mapper.New()
	if path := p.cfg.Pipeline.VegetationPolicyFile; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to read vegetation policy %s: %w", path, err)
		}
		policy, err := mapper.ParseVegetationPolicy(data)
		if err != nil {
			return nil, err
		}
		m.Vegetation = policy
	}
	return m, nil
}

// dateRange parses the CLI date filters into a DateRange. The end date
// is inclusive: records on that calendar day still pass.
func (p *pipeline) dateRange() (firedb.DateRange, error) {
	var r firedb.DateRange
	if s := p.cfg.Ingest.DateStart; s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return r, fmt.Errorf("invalid start date %q: %w", s, err)
		}
		r.Start = t
	}
	if e := p.cfg.Ingest.DateEnd; e != "" {
		t, err := time.Parse("2006-01-02", e)
		if err != nil {
			return r, fmt.Errorf("invalid end date %q: %w", e, err)
		}
		r.End = t.Add(24*time.Hour - time.Second)
	}
	return r, nil
}

func stationCount(weather []firedb.WeatherObservation) int {
	seen := make(map[string]bool)
	for _, w := range weather {
		seen[w.StationID] = true
	}
	return len(seen)
}
