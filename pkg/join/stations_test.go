package join

import (
	"testing"
	"time"

	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kmLat converts kilometers to a latitude offset in degrees.
const kmLat = 1.0 / 111.1949

func day(d int) time.Time {
	return time.Date(2020, 6, d, 0, 0, 0, 0, time.UTC)
}

func stationObs(id string, lat, lon float64, dates ...time.Time) []firedb.WeatherObservation {
	obs := make([]firedb.WeatherObservation, 0, len(dates))
	for _, d := range dates {
		obs = append(obs, firedb.WeatherObservation{
			StationID: id,
			Date:      d,
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return obs
}

func TestBuildStationIndex(t *testing.T) {
	t.Run("groups records by station and sorts by date", func(t *testing.T) {
		var obs []firedb.WeatherObservation
		obs = append(obs, stationObs("S1", 37, -120, day(3), day(1), day(2))...)
		obs = append(obs, stationObs("S2", 38, -121, day(1))...)

		ix, err := BuildStationIndex(obs)
		require.NoError(t, err)
		assert.Equal(t, 2, ix.Len())

		s1, ok := ix.Station("S1")
		require.True(t, ok)
		require.Len(t, s1.Records, 3)
		assert.Equal(t, day(1), s1.Records[0].Date)
		assert.Equal(t, day(2), s1.Records[1].Date)
		assert.Equal(t, day(3), s1.Records[2].Date)
	})

	t.Run("empty input is an InputError", func(t *testing.T) {
		_, err := BuildStationIndex(nil)
		require.Error(t, err)
		var ie *InputError
		assert.ErrorAs(t, err, &ie)
	})

	t.Run("malformed coordinates are an InputError", func(t *testing.T) {
		obs := stationObs("BAD", 95, -120, day(1))
		_, err := BuildStationIndex(obs)
		require.Error(t, err)
		var ie *InputError
		assert.ErrorAs(t, err, &ie)
	})
}

func TestNearest(t *testing.T) {
	// Three stations north of the query point at roughly 10, 30 and
	// 80 km.
	var obs []firedb.WeatherObservation
	obs = append(obs, stationObs("NEAR", 37+10*kmLat, -120, day(1))...)
	obs = append(obs, stationObs("MID", 37+30*kmLat, -120, day(1))...)
	obs = append(obs, stationObs("FAR", 37+80*kmLat, -120, day(1))...)

	ix, err := BuildStationIndex(obs)
	require.NoError(t, err)

	query := geo.Point{Lat: 37, Lon: -120}

	t.Run("selects the nearest within radius", func(t *testing.T) {
		st, dist, ok := ix.Nearest(query, 50)
		require.True(t, ok)
		assert.Equal(t, "NEAR", st.ID)
		assert.InDelta(t, 10, dist, 0.1)
	})

	t.Run("no station within radius", func(t *testing.T) {
		_, _, ok := ix.Nearest(query, 5)
		assert.False(t, ok)
	})

	t.Run("radius excludes stations beyond it", func(t *testing.T) {
		st, _, ok := ix.Nearest(query, 35)
		require.True(t, ok)
		assert.Equal(t, "NEAR", st.ID)
	})
}

func TestNearestTieBreak(t *testing.T) {
	// Two stations at the exact same location; equal distance must
	// resolve to the lexicographically-first station ID regardless of
	// insertion order.
	var obs []firedb.WeatherObservation
	obs = append(obs, stationObs("ZULU", 37.5, -120, day(1))...)
	obs = append(obs, stationObs("ALFA", 37.5, -120, day(1))...)

	ix, err := BuildStationIndex(obs)
	require.NoError(t, err)

	st, _, ok := ix.Nearest(geo.Point{Lat: 37, Lon: -120}, 100)
	require.True(t, ok)
	assert.Equal(t, "ALFA", st.ID)
}

func TestTemporalMatch(t *testing.T) {
	records := append(
		stationObs("S", 37, -120, day(1)),
		stationObs("S", 37, -120, day(5))...,
	)

	tests := []struct {
		name      string
		date      time.Time
		tolerance int
		wantDay   int // 0 means no match
	}{
		{"exact date", day(1), 1, 1},
		{"within tolerance", day(4), 1, 5},
		{"gap exceeds tolerance", day(3), 1, 0},
		{"wider tolerance closes the gap", day(3), 2, 1},
		{"zero tolerance same day only", day(1), 0, 1},
		{"zero tolerance next day misses", day(2), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TemporalMatch(tt.date, records, tt.tolerance)
			if tt.wantDay == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, day(tt.wantDay), got.Date)
		})
	}

	t.Run("equidistant records break toward the earlier date", func(t *testing.T) {
		got := TemporalMatch(day(3), records, 2)
		require.NotNil(t, got)
		assert.Equal(t, day(1), got.Date)
	})

	t.Run("empty record set", func(t *testing.T) {
		assert.Nil(t, TemporalMatch(day(1), nil, 5))
	})
}
