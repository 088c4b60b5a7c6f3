package pipeline

import (
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/types"
)

// Response is the caller-facing view of a finished run.
type Response struct {
	RunID                string                  `json:"run_id"`
	FinalQuestionsByBeat types.QuestionsByBeat   `json:"final_questions_by_beat"`
	PiiSpans             []types.PiiSpan         `json:"pii_spans"`
	RedactedInput        string                  `json:"redacted_input"`
	CanonicalInput       string                  `json:"canonical_input"`
	BeatPlan             types.SectionPlan       `json:"beat_plan"`
	QuestionsByBeat      types.QuestionsByBeat   `json:"questions_by_beat"`
	ValidationReport     *types.ValidationReport `json:"validation_report"`
	AuditTimeline        audit.Log               `json:"audit_timeline"`
	FallbackUsed         bool                    `json:"fallback_used"`
	AttemptCount         int                     `json:"attempt_count"`
}

// Format renders a finished state. Every beat is present in both question
// mappings and every list is non-nil.
func Format(s *State) Response {
	resp := Response{
		RunID:                s.RunID.String(),
		FinalQuestionsByBeat: s.FinalQuestionsByBeat.Complete(),
		PiiSpans:             nonNilSpans(s.PiiSpans),
		RedactedInput:        s.RedactedInput,
		CanonicalInput:       s.CanonicalInput,
		BeatPlan:             nonNilPlan(s.BeatPlan),
		QuestionsByBeat:      s.QuestionsByBeat.Complete(),
		ValidationReport:     s.ValidationReport,
		AuditTimeline:        audit.Merge(s.AuditLog),
		AttemptCount:         s.AttemptCount,
	}
	if resp.ValidationReport == nil {
		resp.ValidationReport = types.NewValidationReport(false)
	}
	return resp
}

// FallbackResponse builds the static payload substituted when a run failed or
// produced no questions. The run id and audit timeline of s are kept when s
// is not nil so the failure stays traceable.
func FallbackResponse(s *State) Response {
	resp := Response{
		RunID:                uuid.NewString(),
		FinalQuestionsByBeat: FallbackQuestions(),
		PiiSpans:             []types.PiiSpan{},
		BeatPlan:             types.SectionPlan{},
		QuestionsByBeat:      types.QuestionsByBeat{}.Complete(),
		ValidationReport:     FallbackReport(),
		AuditTimeline:        audit.Log{},
		FallbackUsed:         true,
	}
	if s != nil {
		resp.RunID = s.RunID.String()
		resp.AuditTimeline = audit.Merge(s.AuditLog)
		resp.AttemptCount = s.AttemptCount
	}
	return resp
}

// Outcome classifies a finished run as returned by Run.
func Outcome(s *State, err error) string {
	var profileErr *types.ProfileError
	switch {
	case errors.As(err, &profileErr):
		return OutcomeRejected
	case err != nil || s == nil:
		return OutcomeFailed
	case s.ValidationReport != nil && len(s.ValidationReport.Warnings) > 0:
		return OutcomeBestEffort
	default:
		return OutcomeOK
	}
}

// Usable reports whether a finished run produced anything worth returning.
func Usable(s *State, err error) bool {
	return err == nil && s != nil && s.FinalQuestionsByBeat.Total() > 0
}

func nonNilSpans(spans []types.PiiSpan) []types.PiiSpan {
	if spans == nil {
		return []types.PiiSpan{}
	}
	return spans
}

func nonNilPlan(plan types.SectionPlan) types.SectionPlan {
	if plan == nil {
		return types.SectionPlan{}
	}
	return plan
}
