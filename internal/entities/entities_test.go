package entities

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sop-question-agent/internal/llm"
	"github.com/jonathan/sop-question-agent/internal/llm/llmtest"
)

func TestLLMRecognizer_Recognize(t *testing.T) {
	client := llmtest.Static("```json\n" + `{"entities":[{"text":"Stanford","label":"org"},{"text":"2019","label":" DATE "}]}` + "\n```")
	r := NewLLMRecognizer(client, "", nil)

	got, err := r.Recognize(context.Background(), "Why did Stanford matter in 2019?")

	require.NoError(t, err)
	assert.Equal(t, []Entity{{Text: "Stanford", Label: LabelOrg}, {Text: "2019", Label: LabelDate}}, got)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, llm.TierLite, calls[0].Tier)
	assert.Contains(t, calls[0].Prompt, "Why did Stanford matter in 2019?")
}

func TestLLMRecognizer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		client *llmtest.Client
	}{
		{"backend failure", llmtest.Failing(errors.New("quota"))},
		{"schema mismatch", llmtest.Static(`{"entities":[{"text":"Stanford"}]}`)},
		{"not json", llmtest.Static("no entities here")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLLMRecognizer(tt.client, llm.TierLite, nil).Recognize(context.Background(), "x")
			var recErr *RecognizerError
			assert.ErrorAs(t, err, &recErr)
		})
	}
}

func TestHeuristic_Recognize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"function words and sentence start skipped", "What did the workshop change for you?", nil},
		{"mid-sentence proper noun", "How did your time at Stanford shape this goal?", []string{"Stanford"}},
		{"second sentence start skipped", "You led the group. Which step mattered most?", nil},
		{"several names", "Why did Maria and Acme back the plan?", []string{"Maria", "Acme"}},
		{"pronoun", "What would I change?", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ents, err := Heuristic{}.Recognize(context.Background(), tt.text)
			require.NoError(t, err)
			var got []string
			for _, e := range ents {
				got = append(got, e.Text)
				assert.Equal(t, LabelOrg, e.Label, "candidate %q", e.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
