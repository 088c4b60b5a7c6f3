package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/db"
	"github.com/jonathan/sop-question-agent/internal/pipeline"
	"github.com/jonathan/sop-question-agent/internal/types"
)

const (
	maxBodyBytes   = 1 << 20
	persistTimeout = 10 * time.Second
)

var badBody = []types.FieldError{{Field: "body", Rule: "json", Message: "request body must be a JSON object"}}

// handleRun executes the pipeline for the posted profile. The response is a
// single JSON document unless the client asks for an NDJSON stream.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var profile types.ApplicantProfile
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.validationError(w, badBody)
		return
	}

	if wantsStream(r) {
		s.streamRun(w, r, profile)
		return
	}

	state, err := s.execute(r.Context(), profile, nil)
	var profileErr *types.ProfileError
	if errors.As(err, &profileErr) {
		s.validationError(w, profileErr.Fields)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.finish(r.Context(), state, err))
}

// streamRun writes one update line per stage and then the result line.
// Input errors are reported in-stream so streaming clients only parse lines.
func (s *Server) streamRun(w http.ResponseWriter, r *http.Request, profile types.ApplicantProfile) {
	nd, err := NewNDJSONWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := profile.Validate(); err != nil {
		var profileErr *types.ProfileError
		if errors.As(err, &profileErr) {
			_ = nd.WriteError(ErrorCodeInputValidation, newValidationBody(profileErr.Fields))
			return
		}
		_ = nd.WriteError(ErrorCodeInputValidation, newValidationBody(nil))
		return
	}

	clientGone := false
	onUpdate := func(u pipeline.Update) {
		if clientGone {
			return
		}
		if err := nd.WriteUpdate(u); err != nil {
			clientGone = true
			s.logger.Debug("stream client went away", zap.Error(err))
		}
	}

	state, runErr := s.execute(r.Context(), profile, onUpdate)
	resp := s.finish(r.Context(), state, runErr)
	if !clientGone {
		_ = nd.WriteResult(resp)
	}
}

// execute runs the pipeline under the configured timeout.
func (s *Server) execute(ctx context.Context, profile types.ApplicantProfile, onUpdate pipeline.UpdateFunc) (*pipeline.State, error) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}
	return s.runner.Run(ctx, profile, onUpdate)
}

// finish formats a finished run, substituting the fallback payload when the
// run failed or produced no questions, and persists it when a store is set.
func (s *Server) finish(ctx context.Context, state *pipeline.State, runErr error) pipeline.Response {
	var resp pipeline.Response
	if pipeline.Usable(state, runErr) {
		resp = pipeline.Format(state)
	} else {
		s.logger.Warn("returning fallback questions", zap.Error(runErr))
		resp = pipeline.FallbackResponse(state)
	}
	s.persist(ctx, state, resp, runErr)
	return resp
}

// persist stores the run. Failures are logged and never reach the caller.
func (s *Server) persist(ctx context.Context, state *pipeline.State, resp pipeline.Response, runErr error) {
	if s.store == nil || state == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.saveRun(ctx, state, resp, runErr); err != nil {
		s.logger.Error("failed to persist run", zap.String("run_id", state.RunID.String()), zap.Error(err))
	}
}

func (s *Server) saveRun(ctx context.Context, state *pipeline.State, resp pipeline.Response, runErr error) error {
	runID := state.RunID
	if err := s.store.CreateRun(ctx, runID, string(state.Profile.ProgramCategory)); err != nil {
		return err
	}

	artifacts := []struct {
		step    string
		content any
	}{
		{db.StepRedactedInput, state.RedactedInput},
		{db.StepBeatPlan, resp.BeatPlan},
		{db.StepQuestionsByBeat, resp.QuestionsByBeat},
		{db.StepFinalQuestions, resp.FinalQuestionsByBeat},
		{db.StepValidationReport, resp.ValidationReport},
	}
	for _, a := range artifacts {
		if err := s.store.SaveArtifact(ctx, runID, a.step, a.content); err != nil {
			return err
		}
	}

	if err := s.store.SaveAuditEvents(ctx, runID, state.AuditLog); err != nil {
		return err
	}

	result := db.RunResult{
		Status:       db.RunStatusCompleted,
		Outcome:      pipeline.Outcome(state, runErr),
		AttemptCount: state.AttemptCount,
		FallbackUsed: resp.FallbackUsed,
	}
	if runErr != nil {
		result.Status = db.RunStatusFailed
		result.ErrorMessage = runErr.Error()
	}
	return s.store.CompleteRun(ctx, runID, result)
}

func wantsStream(r *http.Request) bool {
	if r.URL.Query().Get("stream") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/x-ndjson")
}
