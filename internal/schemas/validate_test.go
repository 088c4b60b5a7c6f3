package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_BeatPlan(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantError bool
	}{
		{
			name:      "valid plan",
			doc:       `{"beat_plan": [{"beat": "A", "missing": ["timeline"], "guidance": "Be concrete.", "anchors": ["reading groups"]}]}`,
			wantError: false,
		},
		{
			name:      "anchors optional",
			doc:       `{"beat_plan": [{"beat": "B", "missing": [], "guidance": "g"}]}`,
			wantError: false,
		},
		{
			name:      "missing beat_plan",
			doc:       `{"plan": []}`,
			wantError: true,
		},
		{
			name:      "guidance wrong type",
			doc:       `{"beat_plan": [{"beat": "A", "missing": [], "guidance": 3}]}`,
			wantError: true,
		},
		{
			name:      "empty beat id",
			doc:       `{"beat_plan": [{"beat": "", "missing": [], "guidance": "g"}]}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(BeatPlan, tt.doc)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, BeatPlan, verr.Schema)
			assert.NotEmpty(t, verr.Errors)
		})
	}
}

func TestValidate_Questions(t *testing.T) {
	assert.NoError(t, Validate(Questions, `{"beat": "C", "questions": [{"question": "Why?", "intent": "motive"}]}`))

	err := Validate(Questions, `{"questions": [{"question": "Why?"}]}`)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "intent")
}

func TestValidate_Entities(t *testing.T) {
	assert.NoError(t, Validate(Entities, `{"entities": [{"text": "Toronto", "label": "GPE"}]}`))
	assert.Error(t, Validate(Entities, `{"entities": [{"text": "Toronto"}]}`))
}

func TestValidate_MalformedJSON(t *testing.T) {
	err := Validate(Questions, `{ not json`)
	require.Error(t, err)

	var merr *MalformedJSONError
	assert.True(t, errors.As(err, &merr))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope.schema.json", `{}`)

	var lerr *SchemaLoadError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Error(), "nope.schema.json")
}

func TestValidateJSONString(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string"}}
	}`

	assert.NoError(t, ValidateJSONString(schemaContent, `{"name": "test"}`))

	err := ValidateJSONString(schemaContent, `{"age": 30}`)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Greater(t, len(verr.Errors), 0)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Schema: Questions,
		Errors: []FieldError{
			{Field: "questions.0", Message: "intent is required"},
			{Field: "(root)", Message: "beat is required"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed against questions.schema.json")
	assert.Contains(t, msg, "1. questions.0: intent is required")
	assert.Contains(t, msg, "2. (root): beat is required")
}
