package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.checkpoint")

	s := New("4:2020-06-01/...", 1000)
	s.BatchesDone = 3
	s.Inserted = 2900
	s.Skipped = 100
	require.NoError(t, Save(path, s))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, s.RunID, loaded.RunID)
	assert.Equal(t, s.Fingerprint, loaded.Fingerprint)
	assert.Equal(t, 3, loaded.BatchesDone)
	assert.Equal(t, 1000, loaded.BatchSize)
	assert.Equal(t, 2900, loaded.Inserted)
	assert.Equal(t, 100, loaded.Skipped)
	assert.False(t, loaded.Completed)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "run.checkpoint")
	require.NoError(t, Save(path, New("fp", 500)))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.checkpoint")

	require.NoError(t, Save(path, New("fp", 500)))
	require.NoError(t, Save(path, New("fp2", 500)))

	// No temp files left behind after repeated saves.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fp2", loaded.Fingerprint)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.checkpoint")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	s := New("fp", 1000)

	tests := []struct {
		name        string
		mutate      func(*State)
		fingerprint string
		batchSize   int
		want        bool
	}{
		{"same input resumes", func(s *State) {}, "fp", 1000, true},
		{"different input starts fresh", func(s *State) {}, "other", 1000, false},
		{"different batch size starts fresh", func(s *State) {}, "fp", 500, false},
		{
			"completed run starts fresh",
			func(s *State) { s.Completed = true },
			"fp", 1000, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := *s
			tt.mutate(&state)
			assert.Equal(t, tt.want, state.Matches(tt.fingerprint, tt.batchSize))
		})
	}
}
