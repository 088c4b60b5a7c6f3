package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/db"
	"github.com/jonathan/sop-question-agent/internal/types"
)

// RunDetail is the stored view of a past run.
type RunDetail struct {
	Run                  *db.Run                 `json:"run"`
	RedactedInput        string                  `json:"redacted_input"`
	BeatPlan             types.SectionPlan       `json:"beat_plan"`
	QuestionsByBeat      types.QuestionsByBeat   `json:"questions_by_beat"`
	FinalQuestionsByBeat types.QuestionsByBeat   `json:"final_questions_by_beat"`
	ValidationReport     *types.ValidationReport `json:"validation_report"`
	AuditTimeline        []db.AuditEvent         `json:"audit_timeline"`
}

// handleGetRun returns a stored run with its artifacts and timeline.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	detail, err := s.loadRun(r, runID)
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("failed to load run", zap.String("run_id", runID.String()), zap.Error(err))
			s.errorResponse(w, status, "failed to load run")
			return
		}
		s.errorResponse(w, status, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, detail)
}

func (s *Server) loadRun(r *http.Request, runID uuid.UUID) (*RunDetail, error) {
	ctx := r.Context()
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, &ErrRunNotFound{RunID: runID}
	}

	detail := &RunDetail{
		Run:                  run,
		BeatPlan:             types.SectionPlan{},
		QuestionsByBeat:      types.QuestionsByBeat{}.Complete(),
		FinalQuestionsByBeat: types.QuestionsByBeat{}.Complete(),
		ValidationReport:     types.NewValidationReport(false),
	}

	targets := []struct {
		step string
		dst  any
	}{
		{db.StepRedactedInput, &detail.RedactedInput},
		{db.StepBeatPlan, &detail.BeatPlan},
		{db.StepQuestionsByBeat, &detail.QuestionsByBeat},
		{db.StepFinalQuestions, &detail.FinalQuestionsByBeat},
		{db.StepValidationReport, detail.ValidationReport},
	}
	for _, t := range targets {
		if _, err := s.store.GetArtifactInto(ctx, runID, t.step, t.dst); err != nil {
			return nil, err
		}
	}

	detail.AuditTimeline, err = s.store.ListAuditEvents(ctx, runID)
	if err != nil {
		return nil, err
	}
	return detail, nil
}
