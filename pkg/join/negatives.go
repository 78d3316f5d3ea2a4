package join

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/geoinfo/firedb/pkg/firedb"
)

// NegativeSamples synthesizes round(ratio*len(fires)) non-fire points
// for balanced training sets. Candidates are weather station-days whose
// date appears in the positive set's date range; station-days whose
// (lat, lon, date) exactly collides with a positive detection are
// excluded so a negative never duplicates a positive. Selection is a
// seeded shuffle, deterministic for a given seed and input order.
//
// Every synthesized point goes through the same spatial-temporal join
// as the real detections; for a station-day that join resolves to the
// station itself at distance zero.
func NegativeSamples(fires []firedb.FireDetection,
	weather []firedb.WeatherObservation,
	ix *StationIndex,
	opts Options,
) ([]firedb.Unified, error) {
	want := roundRatio(opts.SampleRatio, len(fires))
	if want == 0 {
		return nil, nil
	}
	if ix == nil || ix.Len() == 0 {
		return nil, inputErrorf("empty weather station set")
	}

	fireDates := make(map[string]bool, len(fires))
	positiveKeys := make(map[string]bool, len(fires))
	for _, f := range fires {
		fireDates[f.Date.Format("2006-01-02")] = true
		positiveKeys[sampleKey(f.Latitude, f.Longitude, f.Date.Format("2006-01-02"))] = true
	}

	var candidates []firedb.WeatherObservation
	for _, w := range weather {
		day := w.Date.Format("2006-01-02")
		if !fireDates[day] {
			continue
		}
		if positiveKeys[sampleKey(w.Latitude, w.Longitude, day)] {
			continue
		}
		candidates = append(candidates, w)
	}

	// Stable candidate order before the seeded shuffle, so the draw
	// does not depend on the caller's record order.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].StationID != candidates[j].StationID {
			return candidates[i].StationID < candidates[j].StationID
		}
		return candidates[i].Date.Before(candidates[j].Date)
	})

	rng := rand.New(rand.NewSource(opts.SampleSeed))
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > want {
		candidates = candidates[:want]
	}

	unified := make([]firedb.Unified, 0, len(candidates))
	for _, c := range candidates {
		u := firedb.Unified{
			Date:         c.Date,
			Latitude:     c.Latitude,
			Longitude:    c.Longitude,
			FireOccurred: false,
		}
		if st, d, ok := ix.Nearest(c.Point(), opts.MaxDistanceKm); ok {
			if rec := TemporalMatch(c.Date, st.Records, opts.ToleranceDays); rec != nil {
				dist := d
				u.Weather = rec
				u.StationDistanceKm = &dist
			}
		}
		unified = append(unified, u)
	}
	return unified, nil
}

func sampleKey(lat, lon float64, day string) string {
	return fmt.Sprintf("%.6f:%.6f:%s", lat, lon, day)
}
