package planning

import (
	"fmt"
	"strings"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// APICallError represents a failed call to the generation backend
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ContractError means the backend returned a plan that is not exactly one item
// per beat A-E, or not a plan at all. It is fatal to the run and never retried.
type ContractError struct {
	Message string
	Beats   []types.Beat
	Cause   error
}

func (e *ContractError) Error() string {
	var sb strings.Builder
	sb.WriteString("planner contract violation: ")
	sb.WriteString(e.Message)
	if e.Beats != nil {
		sb.WriteString(fmt.Sprintf(" (got beats %v)", e.Beats))
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	return sb.String()
}

func (e *ContractError) Unwrap() error {
	return e.Cause
}
