package mapper

import (
	"testing"

	"github.com/geoinfo/firedb/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	p := DefaultVegetationPolicy()

	tests := []struct {
		name      string
		evi       *float64
		ndvi      *float64
		elevation *float64
		want      int
	}{
		{"no indices defaults to barren", nil, nil, nil, schema.VegBarren},
		{"low index is barren", f64(0.05), nil, nil, schema.VegBarren},
		{"urban band", f64(0.15), nil, nil, schema.VegUrban},
		{"grass band", f64(0.3), nil, nil, schema.VegGrass},
		{"mid band low elevation is shrub", f64(0.45), nil, f64(500), schema.VegShrub},
		{"mid band high elevation is forest", f64(0.45), nil, f64(1200), schema.VegForest},
		{"mid band no elevation is shrub", f64(0.45), nil, nil, schema.VegShrub},
		{"high band low elevation is agriculture", f64(0.7), nil, f64(800), schema.VegAgric},
		{"high band high elevation is forest", f64(0.7), nil, f64(1600), schema.VegForest},
		{"ndvi used when evi absent", nil, f64(0.3), nil, schema.VegGrass},
		{"evi wins over ndvi", f64(0.05), f64(0.7), nil, schema.VegBarren},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Classify(tt.evi, tt.ndvi, tt.elevation))
		})
	}
}

func TestParseVegetationPolicy(t *testing.T) {
	t.Run("partial override keeps defaults", func(t *testing.T) {
		p, err := ParseVegetationPolicy([]byte("grass: 0.4\n"))
		require.NoError(t, err)
		assert.Equal(t, 0.4, p.Grass)
		assert.Equal(t, 0.1, p.Barren)
		assert.Equal(t, 0.5, p.Shrub)
	})

	t.Run("empty input yields defaults", func(t *testing.T) {
		p, err := ParseVegetationPolicy(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultVegetationPolicy(), p)
	})

	t.Run("non-increasing thresholds rejected", func(t *testing.T) {
		_, err := ParseVegetationPolicy([]byte("urban: 0.05\n"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		_, err := ParseVegetationPolicy([]byte("grass: [not a number\n"))
		assert.Error(t, err)
	})
}
