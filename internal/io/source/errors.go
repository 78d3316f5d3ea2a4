package source

import "fmt"

// DataNotFoundError is returned when a required input file is absent.
// It names the missing path so the operator knows which preprocessing
// step to run.
type DataNotFoundError struct {
	Dataset string
	Path    string
}

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf(
		"%s data not found at %s; run the preprocessing pipeline first",
		e.Dataset, e.Path)
}
