package mapper

import (
	"fmt"

	"github.com/geoinfo/firedb/pkg/schema"
)

// Domain-range rules for the California study area.
const (
	minLatitude  = 32.0
	maxLatitude  = 42.0
	minLongitude = -125.0
	maxLongitude = -114.0

	minElevationM = -100.0
	maxElevationM = 4500.0
)

// ValidateObservation checks a mapped record against the domain rules.
// Invalid records are reported, not dropped: the caller decides whether
// to skip or abort. The returned messages name every violated rule.
func ValidateObservation(rec schema.Observation) (bool, []string) {
	var errs []string

	if rec.ObservationDate.IsZero() {
		errs = append(errs, "observation_date is required")
	}
	if rec.Location == "" {
		errs = append(errs, "location is required")
	}

	if rec.Latitude < minLatitude || rec.Latitude > maxLatitude {
		errs = append(errs, fmt.Sprintf(
			"latitude %g outside [%g, %g]", rec.Latitude, minLatitude, maxLatitude))
	}
	if rec.Longitude < minLongitude || rec.Longitude > maxLongitude {
		errs = append(errs, fmt.Sprintf(
			"longitude %g outside [%g, %g]", rec.Longitude, minLongitude, maxLongitude))
	}

	if rec.EVI != nil && (*rec.EVI < -1 || *rec.EVI > 1) {
		errs = append(errs, fmt.Sprintf("evi %g outside [-1, 1]", *rec.EVI))
	}
	if rec.NDVI != nil && (*rec.NDVI < -1 || *rec.NDVI > 1) {
		errs = append(errs, fmt.Sprintf("ndvi %g outside [-1, 1]", *rec.NDVI))
	}
	if rec.Elevation != nil &&
		(*rec.Elevation < minElevationM || *rec.Elevation > maxElevationM) {
		errs = append(errs, fmt.Sprintf(
			"elevation %g outside [%g, %g]",
			*rec.Elevation, minElevationM, maxElevationM))
	}
	if rec.WindSpeed != nil && *rec.WindSpeed < 0 {
		errs = append(errs, fmt.Sprintf(
			"wind_speed %g must not be negative", *rec.WindSpeed))
	}

	return len(errs) == 0, errs
}

// Partition splits records into valid and rejected sets, keeping the
// relative order of the valid records stable for checkpointed runs.
func Partition(recs []schema.Observation) (valid []schema.Observation, rejected []Rejection) {
	for i, rec := range recs {
		if ok, errs := ValidateObservation(rec); ok {
			valid = append(valid, rec)
		} else {
			rejected = append(rejected, Rejection{Index: i, Record: rec, Reasons: errs})
		}
	}
	return valid, rejected
}

// Rejection records why a mapped observation failed validation.
type Rejection struct {
	Index   int
	Record  schema.Observation
	Reasons []string
}
