// Package validation checks assembled questions for structure and grounding
// against the redacted input, and reports which beats need repair.
package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/entities"
	"github.com/jonathan/sop-question-agent/internal/types"
)

// ReasonNoQuestions marks a beat that reached validation without questions.
const ReasonNoQuestions = "missing questions for this beat"

// Result is the outcome of one validation pass.
type Result struct {
	Report       *types.ValidationReport
	FailingBeats []types.Beat
	Reasons      map[types.Beat][]string
}

// Validator checks the assembled questions against the redacted input.
type Validator struct {
	recognizer entities.Recognizer
	clock      audit.Clock
	logger     *zap.Logger
}

// NewValidator creates a validator. A nil recognizer means entities are found
// with the capitalized-word heuristic only.
func NewValidator(recognizer entities.Recognizer, clock audit.Clock, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{recognizer: recognizer, clock: clock, logger: logger.Named("validator")}
}

// Validate checks every beat of final. A beat fails when it has no questions
// or when any of its questions breaks a structural rule, mentions a number or
// named entity absent from redacted, or carries contact details. The report is
// ok only when no beat failed.
func (v *Validator) Validate(ctx context.Context, redacted string, final types.QuestionsByBeat) (Result, audit.Log) {
	start := time.Now()
	sourceNorm := Normalize(redacted)
	recognizer := v.recognizer

	res := Result{
		Report:       types.NewValidationReport(true),
		FailingBeats: []types.Beat{},
		Reasons:      make(map[types.Beat][]string),
	}

	for _, beat := range types.AllBeats() {
		qs := final[beat]
		var reasons []string
		if len(qs) == 0 {
			reasons = append(reasons, ReasonNoQuestions)
		}
		for _, q := range qs {
			text := strings.TrimSpace(q.Question)
			reasons = append(reasons, CheckStructure(q)...)

			if nums := UngroundedNumbers(text, sourceNorm); len(nums) > 0 {
				reasons = append(reasons, "ungrounded numbers not found in source: "+quoteList(nums))
			}

			ents, err := recognize(ctx, recognizer, text)
			if err != nil {
				v.logger.Warn("entity recognizer failed, using heuristic", zap.Error(err))
				recognizer = nil
			}
			if missing := UngroundedEntities(ents, sourceNorm); len(missing) > 0 {
				reasons = append(reasons, "ungrounded entities not found in source: "+quoteList(missing))
			}

			reasons = append(reasons, CheckContact(text)...)
		}

		if len(reasons) > 0 {
			res.Reasons[beat] = sortedUnique(reasons)
			res.FailingBeats = append(res.FailingBeats, beat)
		}
	}

	res.Report.OK = len(res.FailingBeats) == 0
	for _, beat := range res.FailingBeats {
		res.Report.Errors = append(res.Report.Errors, fmt.Sprintf("%s: %s", beat, strings.Join(res.Reasons[beat], "; ")))
	}

	failed := make([]string, len(res.FailingBeats))
	for i, b := range res.FailingBeats {
		failed[i] = string(b)
	}
	event := audit.NewEvent(v.clock, audit.AgentValidator, audit.EventChecked, map[string]any{
		"ok":               res.Report.OK,
		"failed_beats":     failed,
		"num_failed_beats": len(failed),
	})
	v.logger.Debug("validated questions",
		zap.Bool("ok", res.Report.OK),
		zap.Strings("failed_beats", failed),
		zap.Duration("elapsed", time.Since(start)))

	return res, audit.Log{event}
}
