package generation

import (
	"fmt"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// TaskError wraps a worker failure with the keys of the task that failed so the
// audit timeline shows what was being generated.
type TaskError struct {
	Beat  types.Beat
	Keys  []string
	Cause error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("generation task for beat %s failed: %v", e.Beat, e.Cause)
}

func (e *TaskError) Unwrap() error {
	return e.Cause
}

// MalformedOutputError means the backend answered but the answer breaks the
// worker's structural guarantees.
type MalformedOutputError struct {
	Beat    types.Beat
	Message string
	Cause   error
}

func (e *MalformedOutputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed output for beat %s: %s: %v", e.Beat, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed output for beat %s: %s", e.Beat, e.Message)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Cause
}

// BackendError represents a failed call to the generation backend
type BackendError struct {
	Beat  types.Beat
	Cause error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("generation backend failed for beat %s: %v", e.Beat, e.Cause)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}
