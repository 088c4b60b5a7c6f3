// Package pipeline orchestrates one question-generation run: redaction,
// planning, concurrent per-beat generation, assembly, validation, and the
// bounded repair loop that regenerates only the beats that failed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/assembly"
	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/generation"
	"github.com/jonathan/sop-question-agent/internal/planning"
	"github.com/jonathan/sop-question-agent/internal/redaction"
	"github.com/jonathan/sop-question-agent/internal/types"
	"github.com/jonathan/sop-question-agent/internal/validation"
)

// MaxAttemptsWarning is recorded when the repair budget runs out.
const MaxAttemptsWarning = "Max repair attempts reached; returning best-effort output."

// Redactor is the redaction gate as seen by the pipeline.
type Redactor interface {
	Redact(ctx context.Context, profile types.ApplicantProfile) (*redaction.Output, audit.Log, error)
}

// TaskRunner runs one round of generation tasks to completion.
type TaskRunner interface {
	Run(ctx context.Context, tasks []generation.Task) generation.Round
}

// Checker validates assembled questions.
type Checker interface {
	Validate(ctx context.Context, redacted string, final types.QuestionsByBeat) (validation.Result, audit.Log)
}

// Observer receives run measurements. Implementations must be safe for use
// by concurrent runs.
type Observer interface {
	StageFinished(stage Stage, elapsed time.Duration)
	TaskFinished(beat types.Beat, err error)
	BeatFailed(beat types.Beat)
	RunFinished(outcome string, attempts int)
}

// Run outcomes reported to the Observer.
const (
	OutcomeOK         = "ok"
	OutcomeBestEffort = "best_effort"
	OutcomeFailed     = "failed"
	OutcomeRejected   = "rejected"
)

type nopObserver struct{}

func (nopObserver) StageFinished(Stage, time.Duration) {}
func (nopObserver) TaskFinished(types.Beat, error)     {}
func (nopObserver) BeatFailed(types.Beat)              {}
func (nopObserver) RunFinished(string, int)            {}

// Config holds the run policy.
type Config struct {
	MaxAttempts int
	MaxPerBeat  int
	Clock       audit.Clock
}

// Pipeline wires the stages together. It holds no per-run state and is safe
// for concurrent runs.
type Pipeline struct {
	redactor Redactor
	planner  planning.Planner
	runner   TaskRunner
	checker  Checker
	observer Observer
	cfg      Config
	logger   *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// New creates a pipeline. Zero config values take the defaults of two
// attempts and two questions per beat.
func New(redactor Redactor, planner planning.Planner, runner TaskRunner, checker Checker, cfg Config, logger *zap.Logger, opts ...Option) *Pipeline {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.MaxPerBeat <= 0 {
		cfg.MaxPerBeat = 2
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		redactor: redactor,
		planner:  planner,
		runner:   runner,
		checker:  checker,
		observer: nopObserver{},
		cfg:      cfg,
		logger:   logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run carries the per-run bookkeeping that does not belong in State.
type run struct {
	p        *Pipeline
	state    *State
	onUpdate UpdateFunc
	emitted  int
	logger   *zap.Logger
}

// Run executes the state machine for profile. A profile that violates its
// input contract is rejected with a *types.ProfileError before any stage
// runs. Redaction, planning and backend failures abort the run; the returned
// state is still populated up to the failing stage with a failure event at
// the end of its audit log. onUpdate may be nil.
func (p *Pipeline) Run(ctx context.Context, profile types.ApplicantProfile, onUpdate UpdateFunc) (*State, error) {
	if err := profile.Validate(); err != nil {
		p.observer.RunFinished(OutcomeRejected, 0)
		return nil, err
	}

	runID := uuid.New()
	r := &run{
		p:        p,
		state:    newState(runID, profile),
		onUpdate: onUpdate,
		logger:   p.logger.With(zap.String("run_id", runID.String())),
	}

	if err := r.execute(ctx); err != nil {
		r.fail(err)
		p.observer.RunFinished(OutcomeFailed, r.state.AttemptCount)
		return r.state, err
	}

	p.observer.RunFinished(Outcome(r.state, nil), r.state.AttemptCount)
	return r.state, nil
}

func (r *run) execute(ctx context.Context) error {
	s := r.state

	start := time.Now()
	out, log, err := r.p.redactor.Redact(ctx, s.Profile)
	s.AuditLog = audit.Merge(s.AuditLog, log)
	if err != nil {
		return fmt.Errorf("redaction failed: %w", err)
	}
	s.CanonicalInput = out.Canonical
	s.RedactedInput = out.Redacted
	s.PiiSpans = append([]types.PiiSpan{}, out.Spans...)
	if err := r.advance(StageRedacted, start); err != nil {
		return err
	}

	start = time.Now()
	plan, log, err := r.p.planner.Plan(ctx, s.RedactedInput, s.Profile.ProgramCategory)
	s.AuditLog = audit.Merge(s.AuditLog, log)
	if err != nil {
		return err
	}
	s.BeatPlan = plan
	if err := r.advance(StagePlanned, start); err != nil {
		return err
	}

	// nil selects every beat on the first round.
	var beats []types.Beat
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.generate(ctx, beats); err != nil {
			return err
		}
		if err := r.assemble(beats); err != nil {
			return err
		}

		done, err := r.validate(ctx)
		if err != nil || done {
			return err
		}
		beats = s.FailingBeats
	}
}

// generate dispatches one task per beat and waits for the round to finish. A
// nil beats list dispatches every beat in the plan.
func (r *run) generate(ctx context.Context, beats []types.Beat) error {
	s := r.state
	if beats == nil {
		beats = s.BeatPlan.Beats()
	}
	start := time.Now()
	if err := r.transition(StageGenerating); err != nil {
		return err
	}

	tasks := generation.BuildTasks(s.BeatPlan, beats, s.RedactedInput, s.Profile.ProgramCategory)
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = string(t.Beat)
	}
	s.AuditLog = s.AuditLog.Append(audit.NewEvent(r.p.cfg.Clock, audit.AgentDispatcher, audit.EventDispatched, map[string]any{
		"beats":   names,
		"attempt": s.AttemptCount,
	}))

	round := r.p.runner.Run(ctx, tasks)
	s.QuestionsByBeat = types.MergeQuestions(s.QuestionsByBeat, round.Questions)
	s.AuditLog = audit.Merge(s.AuditLog, round.Log)
	for _, res := range round.Results {
		r.p.observer.TaskFinished(res.Beat, res.Err)
	}
	if len(round.Failed) > 0 {
		r.logger.Warn("generation tasks failed", zap.Int("failed", len(round.Failed)), zap.Int("dispatched", len(tasks)))
	}

	r.p.observer.StageFinished(StageGenerating, time.Since(start))
	r.emit(StageGenerating)
	return nil
}

// assemble reduces the accumulated questions. On a repair round the beats
// that passed keep their final lists.
func (r *run) assemble(regenerated []types.Beat) error {
	s := r.state
	start := time.Now()

	var final types.QuestionsByBeat
	var stats assembly.Stats
	if regenerated == nil {
		final, stats = assembly.Assemble(s.QuestionsByBeat, r.p.cfg.MaxPerBeat)
	} else {
		final, stats = assembly.Reassemble(s.QuestionsByBeat, s.FinalQuestionsByBeat, s.PassingBeats(), r.p.cfg.MaxPerBeat)
	}
	s.FinalQuestionsByBeat = final
	s.AuditLog = s.AuditLog.Append(stats.Event(r.p.cfg.Clock))
	return r.advance(StageAssembled, start)
}

// validate runs the validator and applies the repair policy. It reports true
// when the run is done.
func (r *run) validate(ctx context.Context) (bool, error) {
	s := r.state
	start := time.Now()
	if err := r.transition(StageValidating); err != nil {
		return false, err
	}

	res, log := r.p.checker.Validate(ctx, s.RedactedInput, s.FinalQuestionsByBeat)
	s.AuditLog = audit.Merge(s.AuditLog, log)

	var history []string
	if s.ValidationReport != nil {
		history = s.ValidationReport.RepairsApplied
	}
	report := res.Report
	report.RepairsApplied = append(append([]string{}, history...), report.RepairsApplied...)
	s.ValidationReport = report
	s.FailingBeats = append([]types.Beat{}, res.FailingBeats...)
	s.FailedReasons = res.Reasons
	r.p.observer.StageFinished(StageValidating, time.Since(start))

	if report.OK {
		r.emit(StageValidating)
		return true, r.finish()
	}

	for _, b := range s.FailingBeats {
		r.p.observer.BeatFailed(b)
	}

	s.AttemptCount++
	failed := beatNames(s.FailingBeats)
	report.RepairsApplied = append(report.RepairsApplied, fmt.Sprintf("Attempt %d: regenerate beats %v", s.AttemptCount, failed))
	s.AuditLog = s.AuditLog.Append(audit.NewEvent(r.p.cfg.Clock, audit.AgentValidator, audit.EventRepairPlanned, map[string]any{
		"attempt":        s.AttemptCount,
		"beats_to_regen": failed,
	}))

	if s.AttemptCount >= r.p.cfg.MaxAttempts {
		report.Warnings = append(report.Warnings, MaxAttemptsWarning)
		report.OK = true
		s.AuditLog = s.AuditLog.Append(audit.NewEvent(r.p.cfg.Clock, audit.AgentValidator, audit.EventMaxAttempts, map[string]any{
			"attempt":      s.AttemptCount,
			"max_attempts": r.p.cfg.MaxAttempts,
			"failed_beats": failed,
		}))
		r.logger.Warn("repair budget exhausted", zap.Int("attempts", s.AttemptCount), zap.Strings("failed_beats", failed))
		r.emit(StageValidating)
		return true, r.finish()
	}

	if err := r.transition(StageRepairing); err != nil {
		return false, err
	}
	s.QuestionsByBeat = s.QuestionsByBeat.Without(s.FailingBeats...)
	s.BeatPlan = planning.StrengthenPlan(s.BeatPlan, s.FailingBeats)
	r.logger.Info("repairing beats", zap.Int("attempt", s.AttemptCount), zap.Strings("beats", failed))
	r.emit(StageRepairing)
	return false, nil
}

func (r *run) finish() error {
	return r.transition(StageDone)
}

// advance moves to stage, records its latency and emits its update.
func (r *run) advance(stage Stage, start time.Time) error {
	if err := r.transition(stage); err != nil {
		return err
	}
	r.p.observer.StageFinished(stage, time.Since(start))
	r.emit(stage)
	return nil
}

func (r *run) transition(to Stage) error {
	from := r.state.Stage
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	r.state.Stage = to
	r.logger.Debug("stage transition", zap.String("from", string(from)), zap.String("to", string(to)))
	return nil
}

// emit sends the audit events recorded since the previous update.
func (r *run) emit(stage Stage) {
	if r.onUpdate == nil {
		return
	}
	s := r.state
	u := Update{
		Stage:    stage,
		Agent:    StageRegistry[stage].Agent,
		AuditLog: s.AuditLog.Since(r.emitted),
	}
	if stage == StageRedacted {
		u.PiiSpans = append([]types.PiiSpan{}, s.PiiSpans...)
	}
	r.emitted = len(s.AuditLog)
	r.onUpdate(u)
}

// fail records the run-level failure and moves the state machine to failed.
func (r *run) fail(err error) {
	s := r.state
	s.AuditLog = s.AuditLog.Append(audit.NewEvent(r.p.cfg.Clock, audit.AgentPipeline, audit.EventFailed, map[string]any{
		"stage":      string(s.Stage),
		"error_type": failureType(err),
		"message":    err.Error(),
	}))
	if !s.Stage.Terminal() {
		s.Stage = StageFailed
	}
	r.logger.Error("run failed", zap.Error(err))
	r.emit(StageFailed)
}

func failureType(err error) string {
	var (
		backendErr  *redaction.BackendError
		contractErr *planning.ContractError
		apiErr      *planning.APICallError
		stageErr    *TransitionError
	)
	switch {
	case errors.As(err, &backendErr):
		return "RedactionError"
	case errors.As(err, &contractErr):
		return "ContractError"
	case errors.As(err, &apiErr):
		return "APICallError"
	case errors.As(err, &stageErr):
		return "TransitionError"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Canceled"
	default:
		return "Error"
	}
}

func beatNames(beats []types.Beat) []string {
	out := make([]string, len(beats))
	for i, b := range beats {
		out[i] = string(b)
	}
	return out
}
