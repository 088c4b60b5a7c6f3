// Package planning derives the per-beat section plan from the redacted input.
package planning

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/llm"
	"github.com/jonathan/sop-question-agent/internal/prompts"
	"github.com/jonathan/sop-question-agent/internal/schemas"
	"github.com/jonathan/sop-question-agent/internal/types"
)

// Planner produces exactly one plan item per beat.
type Planner interface {
	Plan(ctx context.Context, redacted string, category types.ProgramCategory) (types.SectionPlan, audit.Log, error)
}

// Config tunes the LLM planner.
type Config struct {
	Tier        llm.ModelTier
	Temperature float32
	Clock       audit.Clock
}

// LLMPlanner asks the generation backend for a plan and enforces the beat
// contract on whatever comes back.
type LLMPlanner struct {
	client llm.Client
	cfg    Config
	logger *zap.Logger
}

var _ Planner = (*LLMPlanner)(nil)

// NewLLMPlanner creates a planner on top of client.
func NewLLMPlanner(client llm.Client, cfg Config, logger *zap.Logger) *LLMPlanner {
	if cfg.Tier == "" {
		cfg.Tier = llm.TierAdvanced
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMPlanner{client: client, cfg: cfg, logger: logger.Named("planner")}
}

type rawPlan struct {
	BeatPlan []rawItem `json:"beat_plan"`
}

type rawItem struct {
	Beat     string   `json:"beat"`
	Missing  []string `json:"missing"`
	Guidance string   `json:"guidance"`
	Anchors  []string `json:"anchors"`
}

// Plan implements Planner.
func (p *LLMPlanner) Plan(ctx context.Context, redacted string, category types.ProgramCategory) (types.SectionPlan, audit.Log, error) {
	seg := audit.NewSegment(audit.AgentPlanner, p.cfg.Clock)
	start := p.cfg.Clock()

	prompt := BuildPrompt(redacted, category)
	responseText, err := p.client.GenerateJSON(ctx, prompt, p.cfg.Tier, llm.WithTemperature(p.cfg.Temperature))
	if err != nil {
		err = &APICallError{Message: "failed to generate beat plan", Cause: err}
		seg.Record(audit.EventError, map[string]any{"error_type": "APICallError", "message": err.Error()})
		return nil, seg.Log(), err
	}

	plan, err := ParsePlan(responseText, redacted)
	if err != nil {
		seg.Record(audit.EventError, map[string]any{"error_type": "ContractError", "message": err.Error()})
		p.logger.Error("planner returned an invalid plan", zap.Error(err))
		return nil, seg.Log(), err
	}

	missingCounts := make(map[string]int, len(plan))
	beats := make([]string, 0, len(plan))
	for _, item := range plan {
		beats = append(beats, string(item.Beat))
		missingCounts[string(item.Beat)] = len(item.Missing)
	}
	latency := p.cfg.Clock().Sub(start).Milliseconds()
	seg.Record(audit.EventPlanCreated, map[string]any{
		"beats":          beats,
		"missing_counts": missingCounts,
		"latency_ms":     latency,
	})
	p.logger.Debug("beat plan created", zap.Strings("beats", beats), zap.Int64("latency_ms", latency))

	return plan, seg.Log(), nil
}

// BuildPrompt renders the planner prompt for a program category.
func BuildPrompt(redacted string, category types.ProgramCategory) string {
	profile := prompts.ForProgram(category, redacted)
	user := prompts.MustFormat(prompts.MustGet("planner.json", "user"), map[string]string{
		"BeatDefinitions": profile.BeatDefinitions,
		"RedactedInput":   prompts.QuoteApplicantInput(redacted),
	})
	return profile.PlannerSystem + "\n\n" + profile.PlannerRules + "\n\n" + user
}

// ParsePlan is the parse-or-reject boundary for planner output. The result is
// ordered A-E. Anchors that are not verbatim substrings of redacted are dropped.
func ParsePlan(responseText, redacted string) (types.SectionPlan, error) {
	if err := schemas.Validate(schemas.BeatPlan, responseText); err != nil {
		return nil, &ContractError{Message: "plan does not match schema", Cause: err}
	}

	var raw rawPlan
	if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
		return nil, &ContractError{Message: "plan is not decodable", Cause: err}
	}

	beats := make([]types.Beat, 0, len(raw.BeatPlan))
	for _, item := range raw.BeatPlan {
		beats = append(beats, types.Beat(strings.TrimSpace(item.Beat)))
	}
	if !types.IsCompleteBeatSet(beats) {
		return nil, &ContractError{Message: "plan must contain beats A-E exactly once", Beats: beats}
	}

	byBeat := make(map[types.Beat]types.SectionPlanItem, len(raw.BeatPlan))
	for i, item := range raw.BeatPlan {
		byBeat[beats[i]] = types.SectionPlanItem{
			Beat:     beats[i],
			Missing:  nonBlank(item.Missing),
			Guidance: strings.TrimSpace(item.Guidance),
			Anchors:  verbatimAnchors(item.Anchors, redacted),
		}
	}

	plan := make(types.SectionPlan, 0, len(byBeat))
	for _, b := range types.AllBeats() {
		plan = append(plan, byBeat[b])
	}
	return plan, nil
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func verbatimAnchors(anchors []string, redacted string) []string {
	out := make([]string, 0, len(anchors))
	for _, a := range anchors {
		a = strings.TrimSpace(a)
		if a != "" && strings.Contains(redacted, a) {
			out = append(out, a)
		}
	}
	return out
}
