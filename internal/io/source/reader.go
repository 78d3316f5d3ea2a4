// Package source implements the firedb.SourceReader contract over the
// preprocessed parquet files produced by the upstream cleaning and
// alignment steps. This is an impure I/O package; the row schemas here
// are the on-disk contract with preprocessing.
package source

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/geo"
	"github.com/parquet-go/parquet-go"
)

// fireRow is the parquet schema of firms_*.parquet.
type fireRow struct {
	AcqDate    int64   `parquet:"acq_date"` // unix seconds, UTC midnight
	Latitude   float64 `parquet:"latitude"`
	Longitude  float64 `parquet:"longitude"`
	Brightness float64 `parquet:"brightness"`
	FRP        float64 `parquet:"frp"`
	Confidence string  `parquet:"confidence"`
}

// weatherRow is the parquet schema of noaa_*.parquet (wide format, one
// row per station-day). Optional variables are nil when the station
// did not report them.
type weatherRow struct {
	Station   string   `parquet:"station"`
	Date      int64    `parquet:"date"` // unix seconds, UTC midnight
	Latitude  float64  `parquet:"latitude"`
	Longitude float64  `parquet:"longitude"`
	TMax      *float64 `parquet:"tmax"`
	TMin      *float64 `parquet:"tmin"`
	AWnd      *float64 `parquet:"awnd"`
	WSF2      *float64 `parquet:"wsf2"`
	WSF5      *float64 `parquet:"wsf5"`
	Prcp      *float64 `parquet:"prcp"`
}

// Reader loads the preprocessed point datasets.
type Reader struct {
	paths Paths
	log   *slog.Logger
}

// New creates a Reader rooted at dataDir.
func New(dataDir string, log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{paths: Paths{Root: dataDir}, log: log}
}

var _ firedb.SourceReader = (*Reader)(nil)

// LoadFires reads FIRMS detections with optional date and bounding-box
// filters.
func (r *Reader) LoadFires(aligned bool, dates firedb.DateRange,
	bbox *geo.BBox,
) ([]firedb.FireDetection, error) {
	path := r.paths.Fires(aligned)
	if _, err := os.Stat(path); err != nil {
		return nil, &DataNotFoundError{Dataset: "FIRMS", Path: path}
	}

	rows, err := parquet.ReadFile[fireRow](path)
	if err != nil {
		return nil, err
	}

	out := make([]firedb.FireDetection, 0, len(rows))
	for _, row := range rows {
		f := firedb.FireDetection{
			Date:       time.Unix(row.AcqDate, 0).UTC(),
			Latitude:   row.Latitude,
			Longitude:  row.Longitude,
			Brightness: row.Brightness,
			FRP:        row.FRP,
			Confidence: row.Confidence,
		}
		if !dates.Contains(f.Date) {
			continue
		}
		if bbox != nil && !bbox.Contains(f.Point()) {
			continue
		}
		out = append(out, f)
	}

	r.log.Info("loaded fire detections",
		"path", path, "rows", len(rows), "kept", len(out))
	return out, nil
}

// LoadWeather reads NOAA station-day observations with optional date
// and station filters.
func (r *Reader) LoadWeather(aligned bool, dates firedb.DateRange,
	stations []string,
) ([]firedb.WeatherObservation, error) {
	path := r.paths.Weather(aligned)
	if _, err := os.Stat(path); err != nil {
		return nil, &DataNotFoundError{Dataset: "NOAA", Path: path}
	}

	rows, err := parquet.ReadFile[weatherRow](path)
	if err != nil {
		return nil, err
	}

	var wanted map[string]bool
	if len(stations) > 0 {
		wanted = make(map[string]bool, len(stations))
		for _, s := range stations {
			wanted[s] = true
		}
	}

	out := make([]firedb.WeatherObservation, 0, len(rows))
	for _, row := range rows {
		w := firedb.WeatherObservation{
			StationID:     row.Station,
			Date:          time.Unix(row.Date, 0).UTC(),
			Latitude:      row.Latitude,
			Longitude:     row.Longitude,
			MaxTemp:       row.TMax,
			MinTemp:       row.TMin,
			AvgWind:       row.AWnd,
			Gust2Min:      row.WSF2,
			Gust5Sec:      row.WSF5,
			Precipitation: row.Prcp,
		}
		if !dates.Contains(w.Date) {
			continue
		}
		if wanted != nil && !wanted[w.StationID] {
			continue
		}
		out = append(out, w)
	}

	r.log.Info("loaded weather observations",
		"path", path, "rows", len(rows), "kept", len(out))
	return out, nil
}

// CheckAvailability reports which datasets are present without
// raising; the orchestrator branches on the result.
func (r *Reader) CheckAvailability() firedb.Availability {
	a := firedb.Availability{
		FiresCleaned:   fileExists(r.paths.FiresCleaned()),
		FiresAligned:   fileExists(r.paths.FiresAligned()),
		WeatherCleaned: fileExists(r.paths.WeatherCleaned()),
		WeatherAligned: fileExists(r.paths.WeatherAligned()),
	}
	tiles, _ := filepath.Glob(filepath.Join(r.paths.DEMDir(), "*.parquet"))
	a.TileCount = len(tiles)
	a.Elevation = a.TileCount > 0
	return a
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
