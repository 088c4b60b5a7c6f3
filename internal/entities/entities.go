// Package entities finds named entities in generated questions so the
// validator can tell whether a question introduces facts the applicant never
// supplied.
package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/llm"
	"github.com/jonathan/sop-question-agent/internal/schemas"
)

// Entity labels the validator cares about.
const (
	LabelPerson  = "PERSON"
	LabelOrg     = "ORG"
	LabelGPE     = "GPE"
	LabelLoc     = "LOC"
	LabelDate    = "DATE"
	LabelTime    = "TIME"
	LabelMoney   = "MONEY"
	LabelPercent = "PERCENT"
	LabelEvent   = "EVENT"
	LabelProduct = "PRODUCT"
)

// CheckedLabels is the set of labels whose entities must be grounded in the source text.
var CheckedLabels = map[string]bool{
	LabelPerson: true, LabelOrg: true, LabelGPE: true, LabelLoc: true, LabelDate: true,
	LabelTime: true, LabelMoney: true, LabelPercent: true, LabelEvent: true, LabelProduct: true,
}

// Entity is one recognized span.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Recognizer extracts named entities from text.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// RecognizerError wraps a failure of the recognition backend.
type RecognizerError struct {
	Message string
	Cause   error
}

func (e *RecognizerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("entity recognition failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("entity recognition failed: %s", e.Message)
}

func (e *RecognizerError) Unwrap() error {
	return e.Cause
}

// LLMRecognizer runs entity recognition through the generation backend.
type LLMRecognizer struct {
	client llm.Client
	tier   llm.ModelTier
	logger *zap.Logger
}

var _ Recognizer = (*LLMRecognizer)(nil)

// NewLLMRecognizer creates a recognizer on the given tier; an empty tier means TierLite.
func NewLLMRecognizer(client llm.Client, tier llm.ModelTier, logger *zap.Logger) *LLMRecognizer {
	if tier == "" {
		tier = llm.TierLite
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMRecognizer{client: client, tier: tier, logger: logger.Named("entities")}
}

// Recognize implements Recognizer.
func (r *LLMRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	prompt := llm.BuildExtractionPrompt(llm.NamedEntitiesSchema(), text)
	body, err := r.client.GenerateJSON(ctx, prompt, r.tier, llm.WithTemperature(0))
	if err != nil {
		return nil, &RecognizerError{Message: "backend call failed", Cause: err}
	}
	if err := schemas.Validate(schemas.Entities, body); err != nil {
		return nil, &RecognizerError{Message: "response does not match entities schema", Cause: err}
	}

	var out struct {
		Entities []Entity `json:"entities"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, &RecognizerError{Message: "decode response", Cause: err}
	}
	for i := range out.Entities {
		out.Entities[i].Label = strings.ToUpper(strings.TrimSpace(out.Entities[i].Label))
	}
	r.logger.Debug("recognized entities", zap.Int("count", len(out.Entities)))
	return out.Entities, nil
}

var capitalizedRe = regexp.MustCompile(`\b[A-Z][a-zA-Z]+\b`)

// Words that are routinely capitalized in questions without naming anything.
var functionWords = map[string]bool{
	"I": true, "What": true, "Why": true, "How": true, "When": true, "Where": true,
	"Which": true, "Who": true, "Whom": true, "Whose": true, "Can": true, "Could": true,
	"Would": true, "Should": true, "Did": true, "Do": true, "Does": true, "Is": true,
	"Are": true, "Was": true, "Were": true, "Have": true, "Has": true, "If": true,
	"In": true, "On": true, "At": true, "For": true, "The": true, "A": true, "An": true,
	"Describe": true, "Tell": true, "Share": true, "Looking": true, "Thinking": true,
}

// Heuristic is the fallback recognizer used when no model is available. Every
// capitalized word that is neither sentence-initial nor a function word is
// reported with the ORG label, since the heuristic cannot tell a person from an
// organization.
type Heuristic struct{}

var _ Recognizer = Heuristic{}

// Recognize implements Recognizer. It never fails.
func (Heuristic) Recognize(_ context.Context, text string) ([]Entity, error) {
	var out []Entity
	for _, loc := range capitalizedRe.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		if functionWords[word] || sentenceInitial(text, loc[0]) {
			continue
		}
		out = append(out, Entity{Text: word, Label: LabelOrg})
	}
	return out, nil
}

func sentenceInitial(text string, at int) bool {
	prefix := strings.TrimRight(text[:at], " \t\"'“(")
	if prefix == "" {
		return true
	}
	switch prefix[len(prefix)-1] {
	case '.', '?', '!', ':':
		return true
	}
	return false
}
