package join

import "fmt"

// InputError reports structurally invalid join inputs: an empty station
// set or coordinates outside the WGS84 domain. Partial coverage ("no
// station within radius") is never an InputError; it is a normal
// no-match branch.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid join input: %s", e.Reason)
}

func inputErrorf(format string, args ...any) error {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}
