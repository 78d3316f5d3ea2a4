// Package join combines fire detections, weather observations and
// elevation samples into unified observations. The spatial join finds
// the nearest weather station within a configurable radius, the
// temporal join picks the closest station record within a configurable
// date tolerance, and negative sampling synthesizes non-fire points for
// balanced training sets.
//
// "No match" is never an error here: a fire point without a station in
// range simply carries nil weather downstream. Only structurally
// invalid inputs (empty station set, malformed coordinates) return an
// InputError.
package join

import (
	"math"

	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/geo"
	"golang.org/x/sync/errgroup"
)

// Options are the join tunables; see config.PipelineConfig for the
// documented defaults.
type Options struct {
	MaxDistanceKm float64
	ToleranceDays int
	SampleRatio   float64
	SampleSeed    int64
	Jobs          int
}

// Match pairs a queried point with its nearest station, if any.
type Match struct {
	Point      geo.Point
	Station    *Station
	DistanceKm float64
}

// NearestJoin resolves the nearest station within maxKm for every
// point, preserving input order. Points are processed by jobs parallel
// workers over disjoint slice regions, so results land at their input
// index without shared mutable state.
func NearestJoin(points []geo.Point, ix *StationIndex, maxKm float64,
	jobs int,
) ([]Match, error) {
	if ix == nil || ix.Len() == 0 {
		return nil, inputErrorf("empty weather station set")
	}
	for i, p := range points {
		if !p.Valid() {
			return nil, inputErrorf(
				"point %d has coordinates outside WGS84: (%g, %g)",
				i, p.Lat, p.Lon)
		}
	}
	if jobs < 1 {
		jobs = 1
	}

	matches := make([]Match, len(points))
	var g errgroup.Group
	chunk := (len(points) + jobs - 1) / jobs
	for start := 0; start < len(points); start += chunk {
		end := start + chunk
		if end > len(points) {
			end = len(points)
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				m := Match{Point: points[i]}
				if st, d, ok := ix.Nearest(points[i], maxKm); ok {
					m.Station = st
					m.DistanceKm = d
				}
				matches[i] = m
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// CreateUnified joins every fire detection with its nearest station's
// closest-in-time record and, when sampler is non-nil, attaches an
// elevation sample. When fireOnly is false, synthetic negatives are
// appended, each run through the same spatial-temporal join.
func CreateUnified(fires []firedb.FireDetection,
	weather []firedb.WeatherObservation,
	sampler firedb.ElevationSampler,
	fireOnly bool,
	opts Options,
) ([]firedb.Unified, error) {
	ix, err := BuildStationIndex(weather)
	if err != nil {
		return nil, err
	}

	points := make([]geo.Point, len(fires))
	for i, f := range fires {
		points[i] = f.Point()
	}
	matches, err := NearestJoin(points, ix, opts.MaxDistanceKm, opts.Jobs)
	if err != nil {
		return nil, err
	}

	unified := make([]firedb.Unified, len(fires))
	for i, f := range fires {
		brightness := f.Brightness
		frp := f.FRP
		u := firedb.Unified{
			Date:         f.Date,
			Latitude:     f.Latitude,
			Longitude:    f.Longitude,
			Brightness:   &brightness,
			FRP:          &frp,
			FireOccurred: true,
		}
		attachWeather(&u, matches[i], opts.ToleranceDays)
		unified[i] = u
	}

	if !fireOnly {
		negatives, err := NegativeSamples(fires, weather, ix, opts)
		if err != nil {
			return nil, err
		}
		unified = append(unified, negatives...)
	}

	if sampler != nil {
		attachElevation(unified, sampler)
	}
	return unified, nil
}

// attachWeather resolves the temporal half of the join for one match.
func attachWeather(u *firedb.Unified, m Match, toleranceDays int) {
	if m.Station == nil {
		return
	}
	rec := TemporalMatch(u.Date, m.Station.Records, toleranceDays)
	if rec == nil {
		return
	}
	dist := m.DistanceKm
	u.Weather = rec
	u.StationDistanceKm = &dist
}

// attachElevation samples the DEM once for the whole set. The sampler
// preserves order and length, so results zip back by index.
func attachElevation(unified []firedb.Unified, sampler firedb.ElevationSampler) {
	points := make([]geo.Point, len(unified))
	for i, u := range unified {
		points[i] = geo.Point{Lat: u.Latitude, Lon: u.Longitude}
	}
	elevs := sampler.Sample(points)
	for i := range unified {
		unified[i].Elev = elevs[i]
	}
}

// roundRatio converts a sample ratio into a whole sample count.
func roundRatio(ratio float64, n int) int {
	return int(math.Round(ratio * float64(n)))
}
