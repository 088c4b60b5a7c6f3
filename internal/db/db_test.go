package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_DefinesTables(t *testing.T) {
	for _, table := range []string{"pipeline_runs", "run_artifacts", "audit_events"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestSchema_NoCanonicalInputColumn(t *testing.T) {
	assert.NotContains(t, strings.ToLower(schemaSQL), "canonical")
}

func TestArtifactStepConstants(t *testing.T) {
	steps := []string{
		StepRedactedInput,
		StepBeatPlan,
		StepQuestionsByBeat,
		StepFinalQuestions,
		StepValidationReport,
	}

	seen := map[string]bool{}
	for _, step := range steps {
		assert.NotEmpty(t, step, "step constant should not be empty")
		assert.False(t, seen[step], "duplicate step %s", step)
		seen[step] = true
	}
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	v := nullIfEmpty("boom")
	if assert.NotNil(t, v) {
		assert.Equal(t, "boom", *v)
	}
	assert.Equal(t, "", derefString(nil))
	assert.Equal(t, "boom", derefString(v))
}
