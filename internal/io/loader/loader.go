// Package loader implements firedb.ObservationInserter on PostGIS.
// Records go in as fixed-size batches of multi-row INSERTs with
// ON CONFLICT DO NOTHING on the (observation_date, location) natural
// key, so re-running an ingest skips duplicates instead of failing.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/geoinfo/firedb/pkg/config"
	"github.com/geoinfo/firedb/pkg/db"
	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/schema"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// paramsPerRow is the number of bind parameters one observation
	// contributes to the multi-row INSERT. PostgreSQL caps a statement
	// at 65535 parameters, so batch sizes beyond ~5400 rows get split.
	paramsPerRow = 12
	maxBatchRows = 65535 / paramsPerRow

	// maxRetries bounds attempts per batch before the run gives up
	// with StorageUnavailableError.
	maxRetries = 3

	retryBackoff = 2 * time.Second
)

// Loader persists mapped observations through a db.Operator pool.
type Loader struct {
	op      db.Operator
	cfg     *config.Config
	log     *slog.Logger
	backoff time.Duration

	// exec commits one batch and reports how many rows went in. The
	// default targets the operator's pool; tests substitute a fake to
	// exercise the batching loop without a database.
	exec func(ctx context.Context, batch []schema.Observation) (int, error)
}

// NewLoader creates an ObservationInserter backed by PostGIS.
func NewLoader(
	op db.Operator,
	cfg *config.Config,
	log *slog.Logger,
) *Loader {
	if log == nil {
		log = slog.Default()
	}
	l := &Loader{op: op, cfg: cfg, log: log, backoff: retryBackoff}
	l.exec = func(ctx context.Context, batch []schema.Observation) (int, error) {
		return execBatch(ctx, op.Pool(), batch)
	}
	return l
}

var _ firedb.ObservationInserter = (*Loader)(nil)

// InsertWithProgress inserts records in batches of batchSize with
// duplicate-skip semantics. The returned Stats always satisfy
// Inserted+Failed+Skipped == Total, also when an error cuts the run
// short.
func (l *Loader) InsertWithProgress(
	ctx context.Context,
	recs []schema.Observation,
	batchSize int,
	showProgress bool,
) (firedb.Stats, error) {
	return l.insert(ctx, recs, batchSize, showProgress, 0, nil, "")
}

// InsertIncremental adds checkpoint-based resumability. When the
// checkpoint at checkpointPath matches the input set and batch size,
// already committed batches are skipped and their counters carried
// forward; otherwise the run starts fresh. The checkpoint is saved
// after every committed batch and marked completed at the end.
func (l *Loader) InsertIncremental(
	ctx context.Context,
	recs []schema.Observation,
	checkpointPath string,
	batchSize int,
) (firedb.Stats, error) {
	fp := fingerprint(recs)

	state, err := loadState(checkpointPath, fp, batchSize)
	if err != nil {
		return firedb.Stats{}, err
	}

	skipBatches := state.BatchesDone
	if skipBatches > 0 {
		l.log.Info("resuming from checkpoint",
			"path", checkpointPath,
			"batches_done", skipBatches,
			"inserted", state.Inserted)
	}

	stats, err := l.insert(
		ctx, recs, batchSize, true, skipBatches, state, checkpointPath)
	if err != nil {
		return stats, err
	}

	state.Completed = true
	if serr := saveState(checkpointPath, state); serr != nil {
		return stats, serr
	}
	return stats, nil
}

// insert is the shared batching loop. When state is non-nil it is
// updated and persisted after each committed batch.
func (l *Loader) insert(
	ctx context.Context,
	recs []schema.Observation,
	batchSize int,
	showProgress bool,
	skipBatches int,
	state *resumeState,
	checkpointPath string,
) (firedb.Stats, error) {
	if batchSize <= 0 {
		batchSize = l.cfg.Pipeline.BatchSize
	}
	if batchSize > maxBatchRows {
		batchSize = maxBatchRows
	}

	stats := firedb.Stats{Total: len(recs)}
	if state != nil {
		stats.Inserted = state.Inserted
		stats.Failed = state.Failed
		stats.Skipped = state.Skipped
	}

	var bar *pb.ProgressBar
	if showProgress {
		bar = pb.Full.Start(len(recs))
		bar.Set("prefix", "Inserting observations: ")
		bar.Set(pb.CleanOnFinish, true)
		defer bar.Finish()
	}

	batchNum := 0
	for i := 0; i < len(recs); i += batchSize {
		end := slices.Min([]int{i + batchSize, len(recs)})
		batch := recs[i:end]
		batchNum++

		if batchNum <= skipBatches {
			if bar != nil {
				bar.Add(len(batch))
			}
			continue
		}

		if err := ctx.Err(); err != nil {
			stats.Skipped = stats.Total - stats.Inserted - stats.Failed
			return stats, err
		}

		b, err := l.insertBatch(ctx, batch)
		stats.Inserted += b.Inserted
		stats.Failed += b.Failed
		stats.Skipped += b.Skipped
		if err != nil {
			stats.Skipped = stats.Total - stats.Inserted - stats.Failed
			return stats, err
		}

		if state != nil {
			state.BatchesDone = batchNum
			state.Inserted = stats.Inserted
			state.Failed = stats.Failed
			state.Skipped = stats.Skipped
			if serr := saveState(checkpointPath, state); serr != nil {
				return stats, serr
			}
		}

		if bar != nil {
			bar.Add(len(batch))
		}
	}

	l.log.Info("insert finished",
		"inserted", humanize.Comma(int64(stats.Inserted)),
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"total", stats.Total)
	return stats, nil
}

// insertBatch commits one batch. A batch-level error is retried with
// backoff; after maxRetries the batch falls back to per-record inserts
// so one bad record does not sink its neighbours. Only connectivity
// loss aborts the run.
func (l *Loader) insertBatch(
	ctx context.Context,
	batch []schema.Observation,
) (firedb.Stats, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			l.log.Warn("retrying batch insert",
				"attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return firedb.Stats{Skipped: len(batch)}, ctx.Err()
			case <-time.After(l.backoff):
			}
		}

		bctx := ctx
		var cancel context.CancelFunc
		if t := l.cfg.Pipeline.BatchTimeout; t > 0 {
			bctx, cancel = context.WithTimeout(ctx, t)
		}
		inserted, err := l.exec(bctx, batch)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return firedb.Stats{
				Inserted: inserted,
				Skipped:  len(batch) - inserted,
			}, nil
		}
		lastErr = err
	}

	if err := l.op.Ping(ctx); err != nil {
		return firedb.Stats{Skipped: len(batch)},
			&StorageUnavailableError{Cause: lastErr}
	}

	// The database answers pings, so the batch itself carries a bad
	// record. Isolate it record by record.
	l.log.Warn("batch insert failed, isolating records", "error", lastErr)
	var stats firedb.Stats
	for i := range batch {
		inserted, err := l.exec(ctx, batch[i:i+1])
		switch {
		case err != nil:
			stats.Failed++
		case inserted == 1:
			stats.Inserted++
		default:
			stats.Skipped++
		}
	}
	return stats, nil
}

// execBatch runs a single multi-row INSERT and reports how many rows
// were actually inserted; the difference to len(batch) is duplicates
// skipped by ON CONFLICT.
func execBatch(
	ctx context.Context,
	pool *pgxpool.Pool,
	batch []schema.Observation,
) (int, error) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*paramsPerRow)
	argIdx := 1

	for _, rec := range batch {
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d, ST_GeogFromText($%d), $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			argIdx, argIdx+1, argIdx+2, argIdx+3, argIdx+4, argIdx+5,
			argIdx+6, argIdx+7, argIdx+8, argIdx+9, argIdx+10, argIdx+11,
		))
		valueArgs = append(valueArgs,
			rec.ObservationDate,
			schema.EWKT(rec.Latitude, rec.Longitude),
			rec.EVI,
			rec.NDVI,
			rec.ThermalAnomaly,
			rec.LandSurfaceTemp,
			rec.WindSpeed,
			rec.Elevation,
			rec.FireOccurred,
			rec.VegetationTypeID,
			rec.SeasonID,
			rec.DataSource,
		)
		argIdx += paramsPerRow
	}

	query := fmt.Sprintf(
		`INSERT INTO %s
			(observation_date, location, evi, ndvi, thermal_anomaly,
			 land_surface_temp, wind_speed, elevation, fire_occurred,
			 vegetation_type_id, season_id, data_source)
		 VALUES %s
		 ON CONFLICT (observation_date, location) DO NOTHING`,
		schema.Observation{}.TableName(),
		strings.Join(valueStrings, ", "),
	)

	result, err := pool.Exec(ctx, query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert observation batch: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// Statistics runs the read-only aggregate query over the store.
func (l *Loader) Statistics(
	ctx context.Context,
	f firedb.StatsFilter,
) (firedb.StoreStats, error) {
	var res firedb.StoreStats

	where, args := statsWhere(f)
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE fire_occurred),
			COALESCE(MIN(observation_date), 'epoch'::date),
			COALESCE(MAX(observation_date), 'epoch'::date)
		FROM %s%s`,
		schema.Observation{}.TableName(), where)

	err := l.op.Pool().QueryRow(ctx, query, args...).Scan(
		&res.TotalObservations,
		&res.FireCount,
		&res.EarliestDate,
		&res.LatestDate,
	)
	if err != nil {
		return res, fmt.Errorf("failed to query statistics: %w", err)
	}

	srcQuery := fmt.Sprintf(
		"SELECT DISTINCT data_source FROM %s%s ORDER BY data_source",
		schema.Observation{}.TableName(), where)
	rows, err := l.op.Pool().Query(ctx, srcQuery, args...)
	if err != nil {
		return res, fmt.Errorf("failed to query data sources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return res, err
		}
		res.DataSources = append(res.DataSources, src)
	}
	return res, rows.Err()
}

func statsWhere(f firedb.StatsFilter) (string, []any) {
	var conds []string
	var args []any
	if !f.Start.IsZero() {
		args = append(args, f.Start)
		conds = append(conds,
			fmt.Sprintf("observation_date >= $%d", len(args)))
	}
	if !f.End.IsZero() {
		args = append(args, f.End)
		conds = append(conds,
			fmt.Sprintf("observation_date <= $%d", len(args)))
	}
	if f.DataSource != "" {
		args = append(args, f.DataSource)
		conds = append(conds, fmt.Sprintf("data_source = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
