// Package mapper transforms unified observations into the normalized
// database schema and validates them against domain-range rules before
// insertion. All derivations are deterministic: the same unified record
// always maps to the same row.
package mapper

import (
	"time"

	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/schema"
)

// celsiusToKelvin is the offset applied to weather temperatures.
const celsiusToKelvin = 273.15

// Mapper converts unified observations to schema rows under an
// injectable vegetation policy.
type Mapper struct {
	Vegetation VegetationPolicy
}

// New returns a Mapper with the default vegetation policy.
func New() *Mapper {
	return &Mapper{Vegetation: DefaultVegetationPolicy()}
}

// SeasonID maps a month to its season bucket:
// {12,1,2} Winter, {3,4,5} Spring, {6,7,8} Summer, {9,10,11} Fall.
func SeasonID(month time.Month) int {
	switch month {
	case time.December, time.January, time.February:
		return schema.SeasonWinter
	case time.March, time.April, time.May:
		return schema.SeasonSpring
	case time.June, time.July, time.August:
		return schema.SeasonSummer
	default:
		return schema.SeasonFall
	}
}

// MapObservation derives the database row for one unified observation.
// includeWeather and includeElevation gate the corresponding field
// groups; a gated-off or unmatched group maps to nulls, never zeros.
func (m *Mapper) MapObservation(u firedb.Unified,
	includeWeather, includeElevation bool,
) schema.Observation {
	rec := schema.Observation{
		ObservationDate: u.Date,
		Location:        schema.EWKT(u.Latitude, u.Longitude),
		Latitude:        u.Latitude,
		Longitude:       u.Longitude,
		ThermalAnomaly:  u.Brightness,
		FireOccurred:    u.FireOccurred,
		SeasonID:        SeasonID(u.Date.Month()),
		DataSource:      schema.SourceFIRMS,
	}
	if !u.FireOccurred {
		rec.DataSource = schema.SourceNOAA
	}

	if includeWeather && u.Weather != nil {
		rec.LandSurfaceTemp = surfaceTempKelvin(u.Weather)
		rec.WindSpeed = windSpeed(u.Weather)
	}

	if includeElevation && u.Elev.Valid {
		meters := u.Elev.Meters
		rec.Elevation = &meters
	}

	veg := m.Vegetation.Classify(rec.EVI, rec.NDVI, rec.Elevation)
	rec.VegetationTypeID = &veg

	return rec
}

// MapAll maps a batch, preserving input order.
func (m *Mapper) MapAll(unified []firedb.Unified,
	includeWeather, includeElevation bool,
) []schema.Observation {
	out := make([]schema.Observation, len(unified))
	for i, u := range unified {
		out[i] = m.MapObservation(u, includeWeather, includeElevation)
	}
	return out
}

// surfaceTempKelvin converts the station's max temperature to Kelvin,
// falling back to the min temperature when TMAX was not reported.
func surfaceTempKelvin(w *firedb.WeatherObservation) *float64 {
	src := w.MaxTemp
	if src == nil {
		src = w.MinTemp
	}
	if src == nil {
		return nil
	}
	k := *src + celsiusToKelvin
	return &k
}

// windSpeed applies the precedence AWND > WSF2 > WSF5: the measured
// average wind first, then the gust-derived fallbacks.
func windSpeed(w *firedb.WeatherObservation) *float64 {
	switch {
	case w.AvgWind != nil:
		return w.AvgWind
	case w.Gust2Min != nil:
		return w.Gust2Min
	case w.Gust5Sec != nil:
		return w.Gust5Sec
	}
	return nil
}
