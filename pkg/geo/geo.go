// Package geo provides the small amount of spherical geometry the
// integration pipeline needs: great-circle distances, bounding boxes and
// coordinate sanity checks. All coordinates are WGS84 degrees.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Valid reports whether the point lies inside the legal WGS84 domain.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Asin(math.Sqrt(h))
}

// BBox is a geographic bounding box. Min/Max are inclusive.
type BBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b BBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Expand grows the box to include the point.
func (b BBox) Expand(p Point) BBox {
	if p.Lat < b.MinLat {
		b.MinLat = p.Lat
	}
	if p.Lat > b.MaxLat {
		b.MaxLat = p.Lat
	}
	if p.Lon < b.MinLon {
		b.MinLon = p.Lon
	}
	if p.Lon > b.MaxLon {
		b.MaxLon = p.Lon
	}
	return b
}

// DegreesPerKmLat is the approximate latitude span of one kilometer,
// used to convert a search radius into an R-tree query rectangle.
const DegreesPerKmLat = 1.0 / 110.574

// RadiusBox returns a bounding box that fully covers a circle of
// radiusKm around the point. The box is intentionally generous near the
// poles; callers filter candidates with exact haversine distances.
func RadiusBox(center Point, radiusKm float64) BBox {
	dLat := radiusKm * DegreesPerKmLat
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLon := radiusKm * DegreesPerKmLat / cosLat
	return BBox{
		MinLat: center.Lat - dLat,
		MinLon: center.Lon - dLon,
		MaxLat: center.Lat + dLat,
		MaxLon: center.Lon + dLon,
	}
}
