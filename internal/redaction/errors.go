package redaction

import "fmt"

// BackendError is returned when the redaction backend cannot produce a result.
// It always aborts the run: unredacted text is never passed downstream.
type BackendError struct {
	Backend string
	Message string
	Cause   error
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("redaction backend %s: %s: %v", e.Backend, e.Message, e.Cause)
	}
	return fmt.Sprintf("redaction backend %s: %s", e.Backend, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}
