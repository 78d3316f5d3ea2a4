package loader

import (
	"fmt"

	"github.com/geoinfo/firedb/internal/io/checkpoint"
	"github.com/geoinfo/firedb/pkg/schema"
)

type resumeState = checkpoint.State

// fingerprint derives a cheap identity of the input record set: the
// count plus the natural keys of the first and last records. Different
// inputs with the same fingerprint are possible but would require the
// same size and identical boundary records.
func fingerprint(recs []schema.Observation) string {
	if len(recs) == 0 {
		return "empty"
	}
	first, last := recs[0], recs[len(recs)-1]
	return fmt.Sprintf("%d:%s/%s:%s/%s",
		len(recs),
		first.ObservationDate.Format("2006-01-02"),
		schema.EWKT(first.Latitude, first.Longitude),
		last.ObservationDate.Format("2006-01-02"),
		schema.EWKT(last.Latitude, last.Longitude),
	)
}

// loadState returns a resumable state for the given input. A missing,
// completed or mismatching checkpoint yields a fresh state.
func loadState(path, fp string, batchSize int) (*resumeState, error) {
	state, err := checkpoint.Load(path)
	if err != nil {
		return nil, err
	}
	if state != nil && state.Matches(fp, batchSize) {
		return state, nil
	}
	return checkpoint.New(fp, batchSize), nil
}

func saveState(path string, s *resumeState) error {
	return checkpoint.Save(path, s)
}
