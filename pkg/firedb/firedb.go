// Package firedb defines the domain records and component contracts of
// the wildfire data-integration pipeline. Implementations of the impure
// contracts live under internal/io; the pure joining and mapping logic
// lives in pkg/join and pkg/mapper.
package firedb

import (
	"context"
	"time"

	"github.com/geoinfo/firedb/pkg/geo"
	"github.com/geoinfo/firedb/pkg/schema"
)

// Version and Build are set by build flags.
var (
	Version = "dev"
	Build   = "n/a"
)

// FireDetection is one satellite thermal-anomaly detection (FIRMS).
// Records are immutable once loaded.
type FireDetection struct {
	// Date is the acquisition calendar date.
	Date time.Time

	// Latitude and Longitude are WGS84 degrees.
	Latitude  float64
	Longitude float64

	// Brightness is the Kelvin-scale radiance proxy of the detection.
	Brightness float64

	// FRP is fire radiative power in MW.
	FRP float64

	// Confidence is 0-100 or a categorical label depending on the
	// instrument.
	Confidence string
}

// Point returns the detection location.
func (f FireDetection) Point() geo.Point {
	return geo.Point{Lat: f.Latitude, Lon: f.Longitude}
}

// WeatherObservation is one station-day weather record (NOAA GHCND,
// wide format). Optional variables are nil when the station did not
// report them.
type WeatherObservation struct {
	StationID string
	Date      time.Time

	// Latitude and Longitude locate the station, not the observation
	// footprint.
	Latitude  float64
	Longitude float64

	// MaxTemp and MinTemp are TMAX/TMIN in degrees Celsius.
	MaxTemp *float64
	MinTemp *float64

	// AvgWind is AWND, the daily average wind speed in m/s.
	AvgWind *float64

	// Gust2Min and Gust5Sec are WSF2/WSF5, fastest 2-minute and
	// 5-second wind in m/s. Used as fallbacks when AWND is absent.
	Gust2Min *float64
	Gust5Sec *float64

	// Precipitation is PRCP in mm. Loaded but unused downstream.
	Precipitation *float64
}

// Point returns the station location.
func (w WeatherObservation) Point() geo.Point {
	return geo.Point{Lat: w.Latitude, Lon: w.Longitude}
}

// Elevation is a sampled DEM value. Valid is false when the queried
// point lies outside every tile extent or hits a no-data cell; that is
// an expected partial-coverage condition, not an error.
type Elevation struct {
	Meters float64
	Valid  bool
}

// Unified is the result of joining a fire detection (or a synthetic
// negative point) with its matched weather record and optional
// elevation. At most one weather record per point; zero or one
// elevation value. It is consumed by the mapper and never persisted
// directly.
type Unified struct {
	Date      time.Time
	Latitude  float64
	Longitude float64

	// Brightness and FRP are set only for fire-derived records.
	Brightness *float64
	FRP        *float64

	// Weather is the matched station record, nil when no station was
	// found within the join radius and tolerance.
	Weather *WeatherObservation

	// StationDistanceKm is the distance to the matched station.
	StationDistanceKm *float64

	// Elev is the sampled elevation.
	Elev Elevation

	// FireOccurred tags real detections true and synthetic negatives
	// false.
	FireOccurred bool
}

// DateRange filters records by calendar date. A zero Start or End means
// unbounded on that side.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// IsZero reports whether the range is unbounded on both sides.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Availability describes which preprocessed datasets are present on
// disk. The orchestrator branches on it instead of treating missing
// optional data as an exception.
type Availability struct {
	FiresCleaned   bool
	FiresAligned   bool
	WeatherCleaned bool
	WeatherAligned bool
	Elevation      bool
	TileCount      int
}

// PrimaryReady reports whether the mandatory sources (fires, weather)
// are available in their aligned form. Elevation is optional.
func (a Availability) PrimaryReady() bool {
	return a.FiresAligned && a.WeatherAligned
}

// Stats aggregates insertion counters. The invariant
// Inserted+Failed+Skipped == Total holds after every run.
type Stats struct {
	Inserted int
	Failed   int
	Skipped  int
	Total    int
}

// Add merges batch counters into the running totals.
func (s *Stats) Add(o Stats) {
	s.Inserted += o.Inserted
	s.Failed += o.Failed
	s.Skipped += o.Skipped
	s.Total += o.Total
}

// StatsFilter narrows the read-only store statistics query.
type StatsFilter struct {
	Start      time.Time
	End        time.Time
	DataSource string
}

// StoreStats is the aggregate answer of the statistics query.
type StoreStats struct {
	TotalObservations int64
	FireCount         int64
	EarliestDate      time.Time
	LatestDate        time.Time
	DataSources       []string
}

// SourceReader loads preprocessed point datasets.
type SourceReader interface {
	// LoadFires reads fire detections, optionally filtered by date
	// range and bounding box. The aligned flag selects the
	// coordinate-reprojected variant; downstream joins assume it.
	// Returns DataNotFoundError when the backing file is absent.
	LoadFires(aligned bool, dates DateRange, bbox *geo.BBox) ([]FireDetection, error)

	// LoadWeather reads station-day weather observations, optionally
	// filtered by date range and station IDs.
	LoadWeather(aligned bool, dates DateRange, stations []string) ([]WeatherObservation, error)

	// CheckAvailability reports dataset presence without raising.
	CheckAvailability() Availability
}

// ElevationSampler samples DEM tiles at point locations.
type ElevationSampler interface {
	// Sample returns one elevation per input point, in input order.
	// Out-of-coverage points and no-data cells yield invalid samples.
	Sample(points []geo.Point) []Elevation

	// Available reports whether any tiles were found.
	Available() bool
}

// ObservationInserter persists mapped observations.
type ObservationInserter interface {
	// InsertWithProgress batches records into fixed-size groups and
	// inserts them with duplicate-skip semantics.
	InsertWithProgress(ctx context.Context, recs []schema.Observation,
		batchSize int, showProgress bool) (Stats, error)

	// InsertIncremental adds checkpoint-based resumability on top of
	// InsertWithProgress.
	InsertIncremental(ctx context.Context, recs []schema.Observation,
		checkpointPath string, batchSize int) (Stats, error)

	// Statistics runs the read-only aggregate query over the store.
	Statistics(ctx context.Context, f StatsFilter) (StoreStats, error)
}

// SchemaManager creates the spatial store schema. Management is
// idempotent; safe to run multiple times.
type SchemaManager interface {
	// Create ensures the postgis extension, tables, the natural-key
	// uniqueness constraint and the spatial index exist.
	Create(ctx context.Context) error
}

// Pipeline sequences the integration stages end to end.
type Pipeline interface {
	// Run executes load -> join -> map+validate -> insert -> report.
	Run(ctx context.Context) (Stats, error)

	// Check runs prerequisite and availability checks without
	// mutating any state.
	Check(ctx context.Context) error
}
