package pipeline

import (
	"fmt"

	"github.com/jonathan/sop-question-agent/internal/audit"
)

// Stage is a state of the run state machine.
type Stage string

// Stages in the order a clean run visits them. Repairing loops back to
// Generating for the failing beats only.
const (
	StageNew        Stage = "new"
	StageRedacted   Stage = "redacted"
	StagePlanned    Stage = "planned"
	StageGenerating Stage = "generating"
	StageAssembled  Stage = "assembled"
	StageValidating Stage = "validating"
	StageRepairing  Stage = "repairing"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// StageDefinition describes where a stage may go next and which agent the
// stage's updates are attributed to.
type StageDefinition struct {
	Name  Stage
	Agent string
	Next  []Stage
}

// StageRegistry holds the transition table. StageFailed is reachable from
// every non-terminal stage and is not listed.
var StageRegistry = map[Stage]StageDefinition{
	StageNew:        {Name: StageNew, Agent: audit.AgentPipeline, Next: []Stage{StageRedacted}},
	StageRedacted:   {Name: StageRedacted, Agent: audit.AgentRedactor, Next: []Stage{StagePlanned}},
	StagePlanned:    {Name: StagePlanned, Agent: audit.AgentPlanner, Next: []Stage{StageGenerating}},
	StageGenerating: {Name: StageGenerating, Agent: audit.AgentGenerator, Next: []Stage{StageAssembled}},
	StageAssembled:  {Name: StageAssembled, Agent: audit.AgentAssembler, Next: []Stage{StageValidating}},
	StageValidating: {Name: StageValidating, Agent: audit.AgentValidator, Next: []Stage{StageDone, StageRepairing}},
	StageRepairing:  {Name: StageRepairing, Agent: audit.AgentValidator, Next: []Stage{StageGenerating}},
	StageDone:       {Name: StageDone, Agent: audit.AgentPipeline},
	StageFailed:     {Name: StageFailed, Agent: audit.AgentPipeline},
}

// TransitionError reports a move the state machine does not allow.
type TransitionError struct {
	From Stage
	To   Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid stage transition: %s -> %s", e.From, e.To)
}

// Terminal reports whether no transition leaves s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to Stage) bool {
	def, ok := StageRegistry[from]
	if !ok || from.Terminal() {
		return false
	}
	if to == StageFailed {
		return true
	}
	for _, next := range def.Next {
		if next == to {
			return true
		}
	}
	return false
}
