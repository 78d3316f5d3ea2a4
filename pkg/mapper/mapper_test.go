package mapper

import (
	"testing"
	"time"

	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func unifiedFixture() firedb.Unified {
	return firedb.Unified{
		Date:         time.Date(2020, 7, 15, 0, 0, 0, 0, time.UTC),
		Latitude:     37.5,
		Longitude:    -120.2,
		Brightness:   f64(340.2),
		FRP:          f64(25.1),
		FireOccurred: true,
		Weather: &firedb.WeatherObservation{
			StationID: "S1",
			MaxTemp:   f64(20.0),
			AvgWind:   f64(3.2),
		},
		StationDistanceKm: f64(12.5),
		Elev:              firedb.Elevation{Meters: 450, Valid: true},
	}
}

func TestSeasonID(t *testing.T) {
	tests := []struct {
		month time.Month
		want  int
	}{
		{time.January, schema.SeasonWinter},
		{time.February, schema.SeasonWinter},
		{time.March, schema.SeasonSpring},
		{time.May, schema.SeasonSpring},
		{time.June, schema.SeasonSummer},
		{time.July, schema.SeasonSummer},
		{time.August, schema.SeasonSummer},
		{time.September, schema.SeasonFall},
		{time.November, schema.SeasonFall},
		{time.December, schema.SeasonWinter},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, SeasonID(tt.month))
		})
	}
}

func TestMapObservation(t *testing.T) {
	m := New()

	t.Run("fire detection with weather and elevation", func(t *testing.T) {
		rec := m.MapObservation(unifiedFixture(), true, true)

		assert.Equal(t, schema.SourceFIRMS, rec.DataSource)
		assert.True(t, rec.FireOccurred)
		assert.Equal(t, schema.SeasonSummer, rec.SeasonID)
		assert.Equal(t, schema.EWKT(37.5, -120.2), rec.Location)

		require.NotNil(t, rec.ThermalAnomaly)
		assert.Equal(t, 340.2, *rec.ThermalAnomaly)

		// 20 C converts to exactly 293.15 K.
		require.NotNil(t, rec.LandSurfaceTemp)
		assert.Equal(t, 293.15, *rec.LandSurfaceTemp)

		require.NotNil(t, rec.WindSpeed)
		assert.Equal(t, 3.2, *rec.WindSpeed)

		require.NotNil(t, rec.Elevation)
		assert.Equal(t, 450.0, *rec.Elevation)
	})

	t.Run("negative sample is tagged NOAA", func(t *testing.T) {
		u := unifiedFixture()
		u.FireOccurred = false
		u.Brightness = nil
		u.FRP = nil

		rec := m.MapObservation(u, true, true)
		assert.Equal(t, schema.SourceNOAA, rec.DataSource)
		assert.False(t, rec.FireOccurred)
		assert.Nil(t, rec.ThermalAnomaly)
	})

	t.Run("gated-off weather maps to nulls", func(t *testing.T) {
		rec := m.MapObservation(unifiedFixture(), false, true)
		assert.Nil(t, rec.LandSurfaceTemp)
		assert.Nil(t, rec.WindSpeed)
	})

	t.Run("gated-off elevation maps to null", func(t *testing.T) {
		rec := m.MapObservation(unifiedFixture(), true, false)
		assert.Nil(t, rec.Elevation)
	})

	t.Run("unmatched weather maps to nulls, not zeros", func(t *testing.T) {
		u := unifiedFixture()
		u.Weather = nil
		u.StationDistanceKm = nil

		rec := m.MapObservation(u, true, true)
		assert.Nil(t, rec.LandSurfaceTemp)
		assert.Nil(t, rec.WindSpeed)
	})

	t.Run("invalid elevation sample maps to null", func(t *testing.T) {
		u := unifiedFixture()
		u.Elev = firedb.Elevation{}

		rec := m.MapObservation(u, true, true)
		assert.Nil(t, rec.Elevation)
	})
}

func TestSurfaceTempFallback(t *testing.T) {
	tests := []struct {
		name string
		w    firedb.WeatherObservation
		want *float64
	}{
		{"tmax preferred", firedb.WeatherObservation{MaxTemp: f64(25), MinTemp: f64(10)}, f64(298.15)},
		{"tmin fallback", firedb.WeatherObservation{MinTemp: f64(10)}, f64(283.15)},
		{"neither reported", firedb.WeatherObservation{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := surfaceTempKelvin(&tt.w)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestWindSpeedPrecedence(t *testing.T) {
	tests := []struct {
		name string
		w    firedb.WeatherObservation
		want *float64
	}{
		{
			"awnd wins over gusts",
			firedb.WeatherObservation{AvgWind: f64(3), Gust2Min: f64(8), Gust5Sec: f64(12)},
			f64(3),
		},
		{
			"wsf2 when awnd missing",
			firedb.WeatherObservation{Gust2Min: f64(8), Gust5Sec: f64(12)},
			f64(8),
		},
		{
			"wsf5 as last resort",
			firedb.WeatherObservation{Gust5Sec: f64(12)},
			f64(12),
		},
		{"nothing reported", firedb.WeatherObservation{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := windSpeed(&tt.w)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestMapAll(t *testing.T) {
	m := New()
	u1 := unifiedFixture()
	u2 := unifiedFixture()
	u2.FireOccurred = false

	recs := m.MapAll([]firedb.Unified{u1, u2}, true, true)
	require.Len(t, recs, 2)
	assert.Equal(t, schema.SourceFIRMS, recs[0].DataSource)
	assert.Equal(t, schema.SourceNOAA, recs[1].DataSource)
}
