package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/geoinfo/firedb/pkg/config"
	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/geo"
	"github.com/geoinfo/firedb/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2020, 6, d, 0, 0, 0, 0, time.UTC)
}

func f64(v float64) *float64 { return &v }

// fakeReader serves in-memory datasets.
type fakeReader struct {
	fires   []firedb.FireDetection
	weather []firedb.WeatherObservation
	avail   firedb.Availability
}

func (f *fakeReader) LoadFires(aligned bool, dates firedb.DateRange,
	bbox *geo.BBox,
) ([]firedb.FireDetection, error) {
	var out []firedb.FireDetection
	for _, fd := range f.fires {
		if dates.Contains(fd.Date) {
			out = append(out, fd)
		}
	}
	return out, nil
}

func (f *fakeReader) LoadWeather(aligned bool, dates firedb.DateRange,
	stations []string,
) ([]firedb.WeatherObservation, error) {
	return f.weather, nil
}

func (f *fakeReader) CheckAvailability() firedb.Availability {
	return f.avail
}

// fakeInserter records what reaches the store.
type fakeInserter struct {
	received       []schema.Observation
	checkpointPath string
}

func (f *fakeInserter) InsertWithProgress(ctx context.Context,
	recs []schema.Observation, batchSize int, showProgress bool,
) (firedb.Stats, error) {
	f.received = recs
	return firedb.Stats{Inserted: len(recs), Total: len(recs)}, nil
}

func (f *fakeInserter) InsertIncremental(ctx context.Context,
	recs []schema.Observation, checkpointPath string, batchSize int,
) (firedb.Stats, error) {
	f.received = recs
	f.checkpointPath = checkpointPath
	return firedb.Stats{Inserted: len(recs), Total: len(recs)}, nil
}

func (f *fakeInserter) Statistics(ctx context.Context,
	filter firedb.StatsFilter,
) (firedb.StoreStats, error) {
	return firedb.StoreStats{}, nil
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Pipeline.JobsNumber = 2
	return cfg
}

func fixtureReader() *fakeReader {
	return &fakeReader{
		avail: firedb.Availability{FiresAligned: true, WeatherAligned: true},
		fires: []firedb.FireDetection{
			{Date: day(1), Latitude: 37.1, Longitude: -120.1,
				Brightness: 335.2, FRP: 18.0},
			{Date: day(2), Latitude: 37.2, Longitude: -120.2,
				Brightness: 341.7, FRP: 25.5},
			// In the study area but far from any station.
			{Date: day(1), Latitude: 33.0, Longitude: -115.5,
				Brightness: 328.9, FRP: 9.1},
		},
		weather: []firedb.WeatherObservation{
			{StationID: "USW001", Date: day(1),
				Latitude: 37.0, Longitude: -120.0,
				MaxTemp: f64(30.0), AvgWind: f64(4.2)},
			{StationID: "USW001", Date: day(2),
				Latitude: 37.0, Longitude: -120.0,
				MaxTemp: f64(32.0)},
		},
	}
}

func TestRun(t *testing.T) {
	t.Run("joins, maps and inserts all detections", func(t *testing.T) {
		reader := fixtureReader()
		ins := &fakeInserter{}
		p := New(testConfig(), nil, reader, nil, ins, nil)

		stats, err := p.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 3, stats.Inserted)
		assert.Zero(t, stats.Failed)
		require.Len(t, ins.received, 3)

		// The two station-matched fires carry converted weather.
		withWeather := 0
		for _, rec := range ins.received {
			assert.True(t, rec.FireOccurred)
			assert.Equal(t, schema.SourceFIRMS, rec.DataSource)
			if rec.LandSurfaceTemp != nil {
				withWeather++
			}
		}
		assert.Equal(t, 2, withWeather)

		// Weather temps converted to Kelvin.
		require.NotNil(t, ins.received[0].LandSurfaceTemp)
		assert.Equal(t, 303.15, *ins.received[0].LandSurfaceTemp)

		// The remote fire has null weather, not zeros.
		assert.Nil(t, ins.received[2].LandSurfaceTemp)
		assert.Nil(t, ins.received[2].WindSpeed)
	})

	t.Run("date filter narrows the run", func(t *testing.T) {
		reader := fixtureReader()
		ins := &fakeInserter{}
		cfg := testConfig()
		cfg.Ingest.DateStart = "2020-06-02"
		p := New(cfg, nil, reader, nil, ins, nil)

		stats, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Inserted)
	})

	t.Run("negatives extend the insert set", func(t *testing.T) {
		reader := fixtureReader()
		ins := &fakeInserter{}
		cfg := testConfig()
		cfg.Ingest.WithNegatives = true
		p := New(cfg, nil, reader, nil, ins, nil)

		_, err := p.Run(context.Background())
		require.NoError(t, err)

		// round(0.5*3) = 2 negatives requested; the candidate pool
		// (station-days on fire dates) holds both USW001 days.
		negatives := 0
		for _, rec := range ins.received {
			if !rec.FireOccurred {
				negatives++
				assert.Equal(t, schema.SourceNOAA, rec.DataSource)
			}
		}
		assert.Equal(t, 2, negatives)
	})

	t.Run("out-of-area records are dropped by validation", func(t *testing.T) {
		reader := fixtureReader()
		reader.fires = append(reader.fires, firedb.FireDetection{
			Date: day(1), Latitude: 45.0, Longitude: -120.0,
			Brightness: 320.0,
		})
		ins := &fakeInserter{}
		p := New(testConfig(), nil, reader, nil, ins, nil)

		stats, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Inserted)
		assert.Len(t, ins.received, 3)
	})

	t.Run("checkpoint path switches to incremental insert", func(t *testing.T) {
		reader := fixtureReader()
		ins := &fakeInserter{}
		cfg := testConfig()
		cfg.Ingest.CheckpointPath = "/tmp/run.checkpoint"
		p := New(cfg, nil, reader, nil, ins, nil)

		_, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/tmp/run.checkpoint", ins.checkpointPath)
	})

	t.Run("missing primary dataset is fatal", func(t *testing.T) {
		reader := fixtureReader()
		reader.avail.WeatherAligned = false
		p := New(testConfig(), nil, reader, nil, &fakeInserter{}, nil)

		_, err := p.Run(context.Background())
		assert.Error(t, err)
	})

	t.Run("empty date window is a no-op", func(t *testing.T) {
		reader := fixtureReader()
		ins := &fakeInserter{}
		cfg := testConfig()
		cfg.Ingest.DateStart = "2021-01-01"
		p := New(cfg, nil, reader, nil, ins, nil)

		stats, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Zero(t, stats.Total)
		assert.Empty(t, ins.received)
	})

	t.Run("invalid date is an error", func(t *testing.T) {
		cfg := testConfig()
		cfg.Ingest.DateStart = "June 1st"
		p := New(cfg, nil, fixtureReader(), nil, &fakeInserter{}, nil)

		_, err := p.Run(context.Background())
		assert.Error(t, err)
	})
}

func TestCheck(t *testing.T) {
	t.Run("ready datasets pass", func(t *testing.T) {
		p := New(testConfig(), nil, fixtureReader(), nil, nil, nil)
		assert.NoError(t, p.Check(context.Background()))
	})

	t.Run("missing primary dataset fails", func(t *testing.T) {
		reader := fixtureReader()
		reader.avail.FiresAligned = false
		p := New(testConfig(), nil, reader, nil, nil, nil)
		assert.Error(t, p.Check(context.Background()))
	})
}
