// Package schema provides database schema models for firedb.
// The models are the normalized form every source is mapped into before
// insertion; the table layout matches what the map/prediction consumers
// query.
package schema

import (
	"fmt"
	"time"
)

// Observation is one normalized row of the wildfire_observations table.
// Uniqueness is enforced on (observation_date, location); duplicate
// inserts are skipped, not errored, which makes full re-runs idempotent.
type Observation struct {
	ID int64 `db:"id" gorm:"primaryKey;autoIncrement"`

	// ObservationDate is the calendar date of the detection or sample.
	ObservationDate time.Time `db:"observation_date" gorm:"type:date;not null;uniqueIndex:uq_observations_date_location,priority:1"`

	// Location is the PostGIS geography point in EWKT form,
	// e.g. SRID=4326;POINT(-122.41 37.77).
	Location string `db:"location" gorm:"type:geography(POINT,4326);not null;uniqueIndex:uq_observations_date_location,priority:2"`

	// Latitude and Longitude duplicate the point coordinates for
	// validation and reporting; only Location is persisted.
	Latitude  float64 `db:"-" gorm:"-"`
	Longitude float64 `db:"-" gorm:"-"`

	// EVI and NDVI are vegetation indices in [-1, 1]; null when the
	// source carries no imagery-derived values.
	EVI  *float64 `db:"evi" gorm:"column:evi"`
	NDVI *float64 `db:"ndvi" gorm:"column:ndvi"`

	// ThermalAnomaly is the fire point's brightness (Kelvin-scale
	// radiance proxy), carried through unchanged.
	ThermalAnomaly *float64 `db:"thermal_anomaly" gorm:"column:thermal_anomaly"`

	// LandSurfaceTemp is in Kelvin, converted from the matched weather
	// record's max temperature in Celsius.
	LandSurfaceTemp *float64 `db:"land_surface_temp" gorm:"column:land_surface_temp"`

	// WindSpeed is in m/s, from the matched weather record.
	WindSpeed *float64 `db:"wind_speed" gorm:"column:wind_speed"`

	// Elevation is in meters, sampled from DEM tiles.
	Elevation *float64 `db:"elevation" gorm:"column:elevation"`

	// FireOccurred is true for detection-derived rows and false for
	// synthetic negatives. Never null.
	FireOccurred bool `db:"fire_occurred" gorm:"not null"`

	// VegetationTypeID references the vegetation_types lookup.
	VegetationTypeID *int `db:"vegetation_type_id" gorm:"column:vegetation_type_id"`

	// SeasonID references the seasons lookup, derived from the month.
	SeasonID int `db:"season_id" gorm:"column:season_id"`

	// DataSource is the provenance tag, e.g. NASA_FIRMS or NOAA_GHCND.
	DataSource string `db:"data_source" gorm:"type:varchar(50);not null;index"`
}

// TableName implements the gorm naming convention override.
func (Observation) TableName() string { return "wildfire_observations" }

// EWKT formats a longitude/latitude pair as the EWKT literal stored in
// the Location column.
func EWKT(lat, lon float64) string {
	return fmt.Sprintf("SRID=4326;POINT(%g %g)", lon, lat)
}

// Season identifiers, derived from the observation month.
const (
	SeasonWinter = 1
	SeasonSpring = 2
	SeasonSummer = 3
	SeasonFall   = 4
)

// SeasonName maps season IDs to display names.
var SeasonName = map[int]string{
	SeasonWinter: "Winter",
	SeasonSpring: "Spring",
	SeasonSummer: "Summer",
	SeasonFall:   "Fall",
}

// Vegetation type identifiers used by the classification policy.
const (
	VegShrub  = 1
	VegGrass  = 2
	VegForest = 3
	VegAgric  = 4
	VegUrban  = 5
	VegBarren = 6
)

// VegetationName maps vegetation type IDs to display names.
var VegetationName = map[int]string{
	VegShrub:  "Shrub",
	VegGrass:  "Grass",
	VegForest: "Forest",
	VegAgric:  "Agriculture",
	VegUrban:  "Urban",
	VegBarren: "Barren",
}

// Data source provenance tags.
const (
	SourceFIRMS      = "NASA_FIRMS"
	SourceNOAA       = "NOAA_GHCND"
	SourceUSGS       = "USGS_3DEP"
	SourceIntegrated = "INTEGRATED"
)
