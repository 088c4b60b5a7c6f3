package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/llm"
	"github.com/jonathan/sop-question-agent/internal/planning"
	"github.com/jonathan/sop-question-agent/internal/prompts"
	"github.com/jonathan/sop-question-agent/internal/schemas"
	"github.com/jonathan/sop-question-agent/internal/types"
	"github.com/jonathan/sop-question-agent/internal/validation"
)

// Generator produces the questions for one task.
type Generator interface {
	Generate(ctx context.Context, task Task) ([]types.QuestionItem, error)
}

// WorkerConfig tunes the LLM generator.
type WorkerConfig struct {
	Tier             llm.ModelTier
	Temperature      float32
	QuestionsPerTask int
}

// LLMGenerator asks the generation backend for a beat's questions and rejects
// any answer that breaks the structural guarantees.
type LLMGenerator struct {
	client llm.Client
	cfg    WorkerConfig
	logger *zap.Logger
}

var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator creates a generator on top of client.
func NewLLMGenerator(client llm.Client, cfg WorkerConfig, logger *zap.Logger) *LLMGenerator {
	if cfg.Tier == "" {
		cfg.Tier = llm.TierStandard
	}
	if cfg.QuestionsPerTask <= 0 {
		cfg.QuestionsPerTask = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMGenerator{client: client, cfg: cfg, logger: logger.Named("generator")}
}

type rawQuestions struct {
	Beat      string        `json:"beat"`
	Questions []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	Beat     string `json:"beat"`
	Question string `json:"question"`
	Intent   string `json:"intent"`
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context, task Task) ([]types.QuestionItem, error) {
	prompt := BuildPrompt(task, g.cfg.QuestionsPerTask)

	responseText, err := g.client.GenerateJSON(ctx, prompt, g.cfg.Tier, llm.WithTemperature(g.cfg.Temperature))
	if err != nil {
		return nil, &BackendError{Beat: task.Beat, Cause: err}
	}

	return ParseQuestions(responseText, task.Beat, g.cfg.QuestionsPerTask)
}

// BuildPrompt renders the generator prompt for one task.
func BuildPrompt(task Task, questionsPerTask int) string {
	profile := prompts.ForProgram(task.ProgramCategory, task.RedactedText)

	rules := prompts.MustFormat(profile.QuestionRules, map[string]string{
		"QuestionCount": strconv.Itoa(questionsPerTask),
		"Beat":          string(task.Beat),
	})
	if planning.IsRegeneration(task.Guidance) {
		rules += prompts.MustGet("generator.json", "regeneration")
	}

	user := prompts.MustFormat(prompts.MustGet("generator.json", "user"), map[string]string{
		"BeatDefinitions": profile.BeatDefinitions,
		"Beat":            string(task.Beat),
		"Missing":         formatList(task.Missing),
		"Guidance":        task.Guidance,
		"Anchors":         formatList(task.Anchors),
		"RedactedInput":   prompts.QuoteApplicantInput(task.RedactedText),
	})

	return profile.QuestionSystem + "\n\n" + rules + "\n\n" + user
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(items)
	return string(b)
}

// ParseQuestions is the parse-or-reject boundary for generator output. It
// returns exactly want items tagged with beat, or a *MalformedOutputError.
func ParseQuestions(responseText string, beat types.Beat, want int) ([]types.QuestionItem, error) {
	if err := schemas.Validate(schemas.Questions, responseText); err != nil {
		return nil, &MalformedOutputError{Beat: beat, Message: "output does not match schema", Cause: err}
	}

	var raw rawQuestions
	if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
		return nil, &MalformedOutputError{Beat: beat, Message: "output is not decodable", Cause: err}
	}

	if b := strings.TrimSpace(raw.Beat); b != "" && types.Beat(b) != beat {
		return nil, &MalformedOutputError{Beat: beat, Message: fmt.Sprintf("output is for beat %q", b)}
	}
	if len(raw.Questions) != want {
		return nil, &MalformedOutputError{
			Beat:    beat,
			Message: fmt.Sprintf("expected %d questions, got %d", want, len(raw.Questions)),
		}
	}

	items := make([]types.QuestionItem, 0, len(raw.Questions))
	for i, q := range raw.Questions {
		itemBeat := types.Beat(strings.TrimSpace(q.Beat))
		if itemBeat == "" {
			itemBeat = beat
		}
		if itemBeat != beat {
			return nil, &MalformedOutputError{
				Beat:    beat,
				Message: fmt.Sprintf("question %d is tagged with beat %q", i, itemBeat),
			}
		}

		item := types.QuestionItem{
			Beat:     beat,
			Question: strings.TrimSpace(q.Question),
			Intent:   strings.TrimSpace(q.Intent),
		}
		if reasons := validation.CheckStructure(item); len(reasons) > 0 {
			return nil, &MalformedOutputError{
				Beat:    beat,
				Message: fmt.Sprintf("question %d: %s", i, strings.Join(reasons, "; ")),
			}
		}
		items = append(items, item)
	}
	return items, nil
}
