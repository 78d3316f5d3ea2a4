package mapper

import (
	"fmt"

	"github.com/geoinfo/firedb/pkg/schema"
	"gopkg.in/yaml.v3"
)

// VegetationPolicy holds the classification thresholds. The thresholds
// are configuration, not business logic: deployments tune them through
// a YAML policy file without code changes.
type VegetationPolicy struct {
	// Index thresholds partition the vegetation-index axis. A value
	// below Barren is barren land; below Urban, urban; below Grass,
	// grassland; below Shrub the shrub/forest band; at or above Shrub
	// the agriculture/forest band.
	Barren float64 `yaml:"barren"`
	Urban  float64 `yaml:"urban"`
	Grass  float64 `yaml:"grass"`
	Shrub  float64 `yaml:"shrub"`

	// ForestElevationMid separates shrub from forest in the mid index
	// band; ForestElevationHigh separates agriculture from forest in
	// the high band.
	ForestElevationMid  float64 `yaml:"forest_elevation_mid"`
	ForestElevationHigh float64 `yaml:"forest_elevation_high"`
}

// DefaultVegetationPolicy returns the thresholds calibrated for
// California chaparral, grassland and conifer forest.
func DefaultVegetationPolicy() VegetationPolicy {
	return VegetationPolicy{
		Barren:              0.1,
		Urban:               0.2,
		Grass:               0.35,
		Shrub:               0.5,
		ForestElevationMid:  1000,
		ForestElevationHigh: 1500,
	}
}

// ParseVegetationPolicy reads a policy from YAML bytes, overriding the
// defaults with any keys present.
func ParseVegetationPolicy(data []byte) (VegetationPolicy, error) {
	p := DefaultVegetationPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("invalid vegetation policy: %w", err)
	}
	if !(p.Barren < p.Urban && p.Urban < p.Grass && p.Grass < p.Shrub) {
		return p, fmt.Errorf(
			"vegetation thresholds must increase: barren %g, urban %g, grass %g, shrub %g",
			p.Barren, p.Urban, p.Grass, p.Shrub)
	}
	return p, nil
}

// Classify derives the vegetation type from vegetation indices and
// elevation. EVI wins over NDVI when both are present; with neither the
// record defaults to barren.
func (p VegetationPolicy) Classify(evi, ndvi, elevation *float64) int {
	vi := evi
	if vi == nil {
		vi = ndvi
	}
	if vi == nil {
		return schema.VegBarren
	}

	v := *vi
	switch {
	case v < p.Barren:
		return schema.VegBarren
	case v < p.Urban:
		return schema.VegUrban
	case v < p.Grass:
		return schema.VegGrass
	case v < p.Shrub:
		if elevation != nil && *elevation > p.ForestElevationMid {
			return schema.VegForest
		}
		return schema.VegShrub
	default:
		if elevation != nil && *elevation > p.ForestElevationHigh {
			return schema.VegForest
		}
		return schema.VegAgric
	}
}
