package loader

import (
	"context"
	"fmt"

	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/geo"
	"github.com/geoinfo/firedb/pkg/schema"
	"github.com/jackc/pgx/v5"
)

// observationColumns lists the selected columns for the read queries.
// Latitude and longitude come back out of the geography column so
// callers never parse EWKT themselves.
const observationColumns = `
	id, observation_date,
	ST_Y(location::geometry), ST_X(location::geometry),
	evi, ndvi, thermal_anomaly, land_surface_temp, wind_speed,
	elevation, fire_occurred, vegetation_type_id, season_id, data_source`

// QueryBBox returns the observations inside a bounding box, optionally
// narrowed to a date range, ordered by observation date. A zero range
// means no date filtering.
func (l *Loader) QueryBBox(
	ctx context.Context,
	box geo.BBox,
	dates firedb.DateRange,
) ([]schema.Observation, error) {
	query, args := bboxQuery(box, dates)
	rows, err := l.op.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bounding box: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// QueryRadius returns the observations within radiusKm of a center
// point, optionally narrowed to a date range, nearest first. ST_DWithin
// on geography measures true meters, so no degree approximation is
// involved.
func (l *Loader) QueryRadius(
	ctx context.Context,
	center geo.Point,
	radiusKm float64,
	dates firedb.DateRange,
) ([]schema.Observation, error) {
	query, args := radiusQuery(center, radiusKm, dates)
	rows, err := l.op.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query radius: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

func bboxQuery(box geo.BBox, dates firedb.DateRange) (string, []any) {
	args := []any{box.MinLon, box.MinLat, box.MaxLon, box.MaxLat}
	where := "location && ST_MakeEnvelope($1, $2, $3, $4, 4326)::geography"
	where, args = appendDateRange(where, args, dates)

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY observation_date`,
		observationColumns, schema.Observation{}.TableName(), where)
	return query, args
}

func radiusQuery(
	center geo.Point, radiusKm float64, dates firedb.DateRange,
) (string, []any) {
	args := []any{schema.EWKT(center.Lat, center.Lon), radiusKm * 1000}
	where := "ST_DWithin(location, ST_GeogFromText($1), $2)"
	where, args = appendDateRange(where, args, dates)

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY ST_Distance(location, ST_GeogFromText($1))`,
		observationColumns, schema.Observation{}.TableName(), where)
	return query, args
}

// appendDateRange ANDs the date bounds of a DateRange onto an existing
// WHERE fragment. Zero bounds add no condition.
func appendDateRange(
	where string, args []any, dates firedb.DateRange,
) (string, []any) {
	if !dates.Start.IsZero() {
		args = append(args, dates.Start)
		where += fmt.Sprintf(" AND observation_date >= $%d", len(args))
	}
	if !dates.End.IsZero() {
		args = append(args, dates.End)
		where += fmt.Sprintf(" AND observation_date <= $%d", len(args))
	}
	return where, args
}

func scanObservations(rows pgx.Rows) ([]schema.Observation, error) {
	var out []schema.Observation
	for rows.Next() {
		var o schema.Observation
		err := rows.Scan(
			&o.ID, &o.ObservationDate,
			&o.Latitude, &o.Longitude,
			&o.EVI, &o.NDVI, &o.ThermalAnomaly, &o.LandSurfaceTemp,
			&o.WindSpeed, &o.Elevation, &o.FireOccurred,
			&o.VegetationTypeID, &o.SeasonID, &o.DataSource,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
