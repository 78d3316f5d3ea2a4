package join

import (
	"sort"
	"time"

	"github.com/dhconnelly/rtreego"
	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/geo"
)

// stationPointTol is the side length of the degenerate rectangle that
// represents a station point in the R-tree.
const stationPointTol = 1e-6

// Station is a deduplicated weather station with its observation
// history sorted by date.
type Station struct {
	ID       string
	Location geo.Point
	Records  []firedb.WeatherObservation
}

type stationEntry struct {
	station *Station
	rect    rtreego.Rect
}

func (e *stationEntry) Bounds() rtreego.Rect { return e.rect }

// StationIndex holds stations in an R-tree for radius candidate lookup.
type StationIndex struct {
	tree     *rtreego.Rtree
	stations map[string]*Station
}

// BuildStationIndex groups weather observations by station and indexes
// the station locations. Observations with malformed coordinates make
// the whole input invalid.
func BuildStationIndex(obs []firedb.WeatherObservation) (*StationIndex, error) {
	if len(obs) == 0 {
		return nil, inputErrorf("empty weather station set")
	}

	stations := make(map[string]*Station)
	for i := range obs {
		o := obs[i]
		if !o.Point().Valid() {
			return nil, inputErrorf(
				"station %s has coordinates outside WGS84: (%g, %g)",
				o.StationID, o.Latitude, o.Longitude)
		}
		st, ok := stations[o.StationID]
		if !ok {
			st = &Station{ID: o.StationID, Location: o.Point()}
			stations[o.StationID] = st
		}
		st.Records = append(st.Records, o)
	}

	tree := rtreego.NewTree(2, 25, 50)
	for _, st := range stations {
		sort.Slice(st.Records, func(i, j int) bool {
			return st.Records[i].Date.Before(st.Records[j].Date)
		})
		p := rtreego.Point{st.Location.Lat, st.Location.Lon}
		tree.Insert(&stationEntry{station: st, rect: p.ToRect(stationPointTol)})
	}

	return &StationIndex{tree: tree, stations: stations}, nil
}

// Len returns the number of distinct stations.
func (ix *StationIndex) Len() int { return len(ix.stations) }

// Station looks a station up by ID.
func (ix *StationIndex) Station(id string) (*Station, bool) {
	st, ok := ix.stations[id]
	return st, ok
}

// Nearest returns the station closest to p together with its haversine
// distance. The R-tree narrows candidates to a rectangle covering the
// search radius; exact distances decide the winner. Ties at exactly
// equal distance break toward the lexicographically-first station ID.
// ok is false when no station lies within maxKm.
func (ix *StationIndex) Nearest(p geo.Point, maxKm float64) (st *Station, distKm float64, ok bool) {
	box := geo.RadiusBox(p, maxKm)
	corner := rtreego.Point{box.MinLat, box.MinLon}
	lengths := []float64{box.MaxLat - box.MinLat, box.MaxLon - box.MinLon}
	rect, err := rtreego.NewRect(corner, lengths)
	if err != nil {
		return nil, 0, false
	}

	best := (*Station)(nil)
	bestDist := 0.0
	for _, cand := range ix.tree.SearchIntersect(rect) {
		s := cand.(*stationEntry).station
		d := geo.HaversineKm(p, s.Location)
		if d > maxKm {
			continue
		}
		switch {
		case best == nil, d < bestDist:
			best, bestDist = s, d
		case d == bestDist && s.ID < best.ID:
			best = s
		}
	}
	if best == nil {
		return nil, 0, false
	}
	return best, bestDist, true
}

// TemporalMatch selects the record whose date is closest to date. A
// minimum difference above toleranceDays yields no match; equal
// differences break toward the earlier date. Records must be sorted by
// date, which BuildStationIndex guarantees.
func TemporalMatch(date time.Time, records []firedb.WeatherObservation,
	toleranceDays int,
) *firedb.WeatherObservation {
	var best *firedb.WeatherObservation
	bestDiff := time.Duration(0)
	for i := range records {
		diff := date.Sub(records[i].Date)
		if diff < 0 {
			diff = -diff
		}
		// Strict < keeps the earlier record on equal difference.
		if best == nil || diff < bestDiff {
			best = &records[i]
			bestDiff = diff
		}
	}
	if best == nil {
		return nil
	}
	if bestDiff > time.Duration(toleranceDays)*24*time.Hour {
		return nil
	}
	return best
}
