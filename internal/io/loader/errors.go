package loader

import "fmt"

// StorageUnavailableError signals that the database stopped answering
// mid-run after the bounded retries were exhausted. Partial progress is
// reported through the Stats returned alongside it.
type StorageUnavailableError struct {
	Batch int
	Cause error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf(
		"storage unavailable at batch %d after retries: %v", e.Batch, e.Cause)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Cause
}
