package db

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run represents a pipeline run record
type Run struct {
	ID              uuid.UUID  `json:"id"`
	ProgramCategory string     `json:"program_category"`
	Status          string     `json:"status"`
	Outcome         string     `json:"outcome,omitempty"`
	AttemptCount    int        `json:"attempt_count"`
	FallbackUsed    bool       `json:"fallback_used"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// RunResult is what CompleteRun records about a finished run.
type RunResult struct {
	Status       string
	Outcome      string
	AttemptCount int
	FallbackUsed bool
	ErrorMessage string
}

// Artifact step names. The unredacted canonical input is never stored.
const (
	StepRedactedInput    = "redacted_input"
	StepBeatPlan         = "beat_plan"
	StepQuestionsByBeat  = "questions_by_beat"
	StepFinalQuestions   = "final_questions_by_beat"
	StepValidationReport = "validation_report"
)

// AuditEvent is one stored timeline entry. Seq preserves timeline order.
type AuditEvent struct {
	Seq   int            `json:"seq"`
	TSMs  int64          `json:"ts_ms"`
	Agent string         `json:"agent"`
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}
