package pipeline

import (
	"github.com/google/uuid"

	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/types"
)

// State is the record threaded through one run. It is created by Run and
// discarded once the caller has formatted it.
type State struct {
	RunID   uuid.UUID
	Stage   Stage
	Profile types.ApplicantProfile

	CanonicalInput string
	RedactedInput  string
	PiiSpans       []types.PiiSpan

	BeatPlan types.SectionPlan

	// QuestionsByBeat accumulates worker contributions. Only failing beats
	// are ever cleared.
	QuestionsByBeat      types.QuestionsByBeat
	FinalQuestionsByBeat types.QuestionsByBeat

	ValidationReport *types.ValidationReport
	FailingBeats     []types.Beat
	FailedReasons    map[types.Beat][]string
	AttemptCount     int

	AuditLog audit.Log
}

func newState(runID uuid.UUID, profile types.ApplicantProfile) *State {
	return &State{
		RunID:                runID,
		Stage:                StageNew,
		Profile:              profile,
		PiiSpans:             []types.PiiSpan{},
		BeatPlan:             types.SectionPlan{},
		QuestionsByBeat:      types.QuestionsByBeat{},
		FinalQuestionsByBeat: types.QuestionsByBeat{}.Complete(),
		FailingBeats:         []types.Beat{},
		FailedReasons:        map[types.Beat][]string{},
		AuditLog:             audit.Log{},
	}
}

// PassingBeats returns the beats that are not in FailingBeats, in A-E order.
func (s *State) PassingBeats() []types.Beat {
	failing := make(map[types.Beat]bool, len(s.FailingBeats))
	for _, b := range s.FailingBeats {
		failing[b] = true
	}
	var out []types.Beat
	for _, b := range types.AllBeats() {
		if !failing[b] {
			out = append(out, b)
		}
	}
	return out
}

// Update is an incremental progress notification for streaming callers.
type Update struct {
	Stage    Stage
	Agent    string
	PiiSpans []types.PiiSpan
	AuditLog audit.Log
}

// UpdateFunc receives updates synchronously from the run goroutine.
type UpdateFunc func(Update)
