package raster

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the index file describing every tile in a DEM
// directory.
const ManifestName = "manifest.json"

// NoDataDefault is the conventional raster no-data sentinel; cells
// carrying it (or the tile's own NoData value) sample as missing.
const NoDataDefault = -9999.0

// TileInfo describes one raster tile: its file, geographic extent,
// grid dimensions and no-data sentinel. Row 0 is the northernmost
// raster row; column 0 the westernmost.
type TileInfo struct {
	File   string  `json:"file"`
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
	Rows   int     `json:"rows"`
	Cols   int     `json:"cols"`
	NoData float64 `json:"nodata"`
}

// Manifest is the tile index of a DEM directory.
type Manifest struct {
	Tiles []TileInfo `json:"tiles"`
}

// ReadManifest loads and sanity-checks the manifest of a DEM
// directory.
func ReadManifest(demDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(demDir, ManifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("malformed DEM manifest: %w", err)
	}
	for _, t := range m.Tiles {
		if t.Rows <= 0 || t.Cols <= 0 {
			return nil, fmt.Errorf(
				"tile %s has invalid dimensions %dx%d", t.File, t.Rows, t.Cols)
		}
		if t.MaxLat <= t.MinLat || t.MaxLon <= t.MinLon {
			return nil, fmt.Errorf("tile %s has an empty extent", t.File)
		}
	}
	return &m, nil
}

// WriteManifest writes the manifest, used by tests and by the
// preprocessing export step.
func WriteManifest(demDir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(demDir, ManifestName), data, 0o644)
}
