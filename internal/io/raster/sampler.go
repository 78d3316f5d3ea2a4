// Package raster samples elevation values from preprocessed DEM tiles.
// A tile set is a directory holding a manifest.json index plus one
// parquet grid per tile (one row per raster row, "values" list column).
// Tile extents live in an R-tree so point queries touch only the tiles
// that can contain them; grids load lazily on first hit.
package raster

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/geo"
	"github.com/parquet-go/parquet-go"
)

// gridRow is the parquet schema of one raster row.
type gridRow struct {
	Row    int32     `parquet:"row"`
	Values []float64 `parquet:"values"`
}

type tileEntry struct {
	info TileInfo
	rect rtreego.Rect
}

func (t *tileEntry) Bounds() rtreego.Rect { return t.rect }

// Sampler implements firedb.ElevationSampler over a DEM directory.
// A Sampler over a missing or empty directory is valid: Available()
// reports false and every sample comes back missing.
type Sampler struct {
	dir   string
	tree  *rtreego.Rtree
	tiles []TileInfo
	grids map[string][][]float64
	log   *slog.Logger
}

var _ firedb.ElevationSampler = (*Sampler)(nil)

// Open reads the manifest of demDir and indexes the tile extents.
// A missing manifest yields an unavailable (but usable) Sampler;
// a malformed one is an error.
func Open(demDir string, log *slog.Logger) (*Sampler, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Sampler{
		dir:   demDir,
		grids: make(map[string][][]float64),
		log:   log,
	}

	m, err := ReadManifest(demDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("no DEM tiles found; elevation sampling disabled",
				"dir", demDir)
			return s, nil
		}
		return nil, err
	}

	s.tiles = m.Tiles
	s.tree = rtreego.NewTree(2, 5, 20)
	for _, t := range m.Tiles {
		corner := rtreego.Point{t.MinLat, t.MinLon}
		lengths := []float64{t.MaxLat - t.MinLat, t.MaxLon - t.MinLon}
		rect, err := rtreego.NewRect(corner, lengths)
		if err != nil {
			return nil, err
		}
		s.tree.Insert(&tileEntry{info: t, rect: rect})
	}
	log.Info("indexed DEM tiles", "dir", demDir, "tiles", len(m.Tiles))
	return s, nil
}

// Available reports whether any tiles were indexed.
func (s *Sampler) Available() bool {
	return s.tree != nil && len(s.tiles) > 0
}

// Sample returns one elevation per input point, in input order.
// Points outside every tile extent, and points hitting no-data cells,
// yield invalid samples; they are never dropped, so results zip back
// into the join set positionally.
func (s *Sampler) Sample(points []geo.Point) []firedb.Elevation {
	out := make([]firedb.Elevation, len(points))
	if !s.Available() {
		return out
	}

	sampled := 0
	for i, p := range points {
		if e, ok := s.sampleOne(p); ok {
			out[i] = e
			sampled++
		}
	}
	s.log.Debug("sampled elevations",
		"points", len(points), "hits", sampled)
	return out
}

// sampleOne tries candidate tiles in lexicographic file-name order
// until one yields a valid cell value; overlapping tiles therefore
// resolve deterministically within and across runs.
func (s *Sampler) sampleOne(p geo.Point) (firedb.Elevation, bool) {
	rect := rtreego.Point{p.Lat, p.Lon}.ToRect(1e-9)
	hits := s.tree.SearchIntersect(rect)
	if len(hits) == 0 {
		return firedb.Elevation{}, false
	}

	candidates := make([]TileInfo, 0, len(hits))
	for _, h := range hits {
		t := h.(*tileEntry).info
		if containsPoint(t, p) {
			candidates = append(candidates, t)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].File < candidates[j].File
	})

	for _, t := range candidates {
		grid, err := s.grid(t)
		if err != nil {
			s.log.Warn("failed to load DEM tile", "tile", t.File, "error", err)
			continue
		}
		v, ok := cellValue(t, grid, p)
		if ok {
			return firedb.Elevation{Meters: v, Valid: true}, true
		}
	}
	return firedb.Elevation{}, false
}

// grid loads a tile's value grid, caching it for later points.
func (s *Sampler) grid(t TileInfo) ([][]float64, error) {
	if g, ok := s.grids[t.File]; ok {
		return g, nil
	}
	rows, err := parquet.ReadFile[gridRow](filepath.Join(s.dir, t.File))
	if err != nil {
		return nil, err
	}
	grid := make([][]float64, t.Rows)
	for _, r := range rows {
		if int(r.Row) >= 0 && int(r.Row) < t.Rows {
			grid[r.Row] = r.Values
		}
	}
	s.grids[t.File] = grid
	return grid, nil
}

func containsPoint(t TileInfo, p geo.Point) bool {
	return p.Lat >= t.MinLat && p.Lat <= t.MaxLat &&
		p.Lon >= t.MinLon && p.Lon <= t.MaxLon
}

// cellValue maps the point into the grid. Row 0 is the northern edge.
// The no-data sentinel of the tile, and the conventional -9999, both
// normalize to missing rather than leaking through as elevations.
func cellValue(t TileInfo, grid [][]float64, p geo.Point) (float64, bool) {
	cellH := (t.MaxLat - t.MinLat) / float64(t.Rows)
	cellW := (t.MaxLon - t.MinLon) / float64(t.Cols)

	row := int(math.Floor((t.MaxLat - p.Lat) / cellH))
	col := int(math.Floor((p.Lon - t.MinLon) / cellW))
	if row == t.Rows {
		row = t.Rows - 1
	}
	if col == t.Cols {
		col = t.Cols - 1
	}
	if row < 0 || row >= t.Rows || col < 0 || col >= len(grid[row]) {
		return 0, false
	}

	v := grid[row][col]
	if v == t.NoData || v == NoDataDefault {
		return 0, false
	}
	return v, true
}
