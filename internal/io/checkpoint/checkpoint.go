// Package checkpoint persists incremental-load progress so an
// interrupted run can resume from its last completed batch instead of
// starting over. State is a single JSON file written atomically
// (write to a temp file, then rename).
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// State captures the progress of one incremental load. The fingerprint
// ties a checkpoint to its input set: resuming against different input
// silently starts fresh instead of skipping the wrong records.
type State struct {
	// RunID identifies the run that created this checkpoint.
	RunID string `json:"run_id"`

	// Fingerprint is a cheap identity of the input record set
	// (record count plus first/last natural keys).
	Fingerprint string `json:"fingerprint"`

	// BatchesDone counts fully committed batches. Resume skips
	// BatchesDone*BatchSize leading records.
	BatchesDone int `json:"batches_done"`

	// BatchSize is the batch size the checkpoint was written with.
	// A resume with a different batch size starts fresh.
	BatchSize int `json:"batch_size"`

	// Inserted, Failed and Skipped carry the counters of the
	// committed batches forward into the resumed run.
	Inserted int `json:"inserted"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`

	// Completed marks a run that finished all batches. A completed
	// checkpoint never causes skipping; the next run starts fresh.
	Completed bool `json:"completed"`

	// UpdatedAt is the time of the last save.
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a fresh State for the given input fingerprint.
func New(fingerprint string, batchSize int) *State {
	return &State{
		RunID:       uuid.NewString(),
		Fingerprint: fingerprint,
		BatchSize:   batchSize,
	}
}

// Matches reports whether the saved state can resume a run over the
// given input fingerprint and batch size.
func (s *State) Matches(fingerprint string, batchSize int) bool {
	return !s.Completed &&
		s.Fingerprint == fingerprint &&
		s.BatchSize == batchSize
}

// Load reads a checkpoint file. A missing file returns (nil, nil); that
// is the normal first-run condition, not an error.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("checkpoint %s is corrupt: %w", path, err)
	}
	return &s, nil
}

// Save writes the state atomically. A crash mid-save leaves either the
// previous checkpoint or the new one, never a torn file.
func Save(path string, s *State) error {
	s.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint %s: %w", path, err)
	}
	return nil
}
