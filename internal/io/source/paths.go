package source

import "path/filepath"

// Paths centralizes the preprocessed data layout under one root
// directory:
//
//	<root>/cleaned/firms_cleaned.parquet
//	<root>/cleaned/noaa_cleaned.parquet
//	<root>/aligned/firms_aligned.parquet
//	<root>/aligned/noaa_aligned.parquet
//	<root>/aligned/usgs/            (DEM tiles + manifest.json)
type Paths struct {
	Root string
}

func (p Paths) FiresCleaned() string {
	return filepath.Join(p.Root, "cleaned", "firms_cleaned.parquet")
}

func (p Paths) FiresAligned() string {
	return filepath.Join(p.Root, "aligned", "firms_aligned.parquet")
}

func (p Paths) WeatherCleaned() string {
	return filepath.Join(p.Root, "cleaned", "noaa_cleaned.parquet")
}

func (p Paths) WeatherAligned() string {
	return filepath.Join(p.Root, "aligned", "noaa_aligned.parquet")
}

// DEMDir holds the elevation tile set.
func (p Paths) DEMDir() string {
	return filepath.Join(p.Root, "aligned", "usgs")
}

// Fires selects the aligned or cleaned fire detections file.
func (p Paths) Fires(aligned bool) string {
	if aligned {
		return p.FiresAligned()
	}
	return p.FiresCleaned()
}

// Weather selects the aligned or cleaned weather observations file.
func (p Paths) Weather(aligned bool) string {
	if aligned {
		return p.WeatherAligned()
	}
	return p.WeatherCleaned()
}
