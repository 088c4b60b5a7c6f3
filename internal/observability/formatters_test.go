package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/pipeline"
	"github.com/jonathan/sop-question-agent/internal/types"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "ééé...", truncate("éééééééé", 6), "cuts on rune boundaries")
}

func TestPrintBox_LinesFitWidth(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", 200)+"\nshort")

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), line)
	}
}

func TestPrintUpdate(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.UpdateFunc()(pipeline.Update{
		Stage:    pipeline.StageRedacted,
		Agent:    audit.AgentRedactor,
		PiiSpans: []types.PiiSpan{{Start: 0, End: 3, PiiType: "PERSON"}},
		AuditLog: audit.Log{
			audit.NewEvent(nil, audit.AgentRedactor, audit.EventStart, nil),
			audit.NewEvent(nil, audit.AgentRedactor, audit.EventEnd, nil),
		},
	})
	p.PrintUpdate(pipeline.Update{
		Stage: pipeline.StageFailed,
		Agent: audit.AgentPipeline,
		AuditLog: audit.Log{audit.NewEvent(nil, audit.AgentPipeline, audit.EventFailed, map[string]any{
			"message": "planner contract violation",
		})},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "redacted")
	assert.Contains(t, lines[0], "2 event(s), 1 PII span(s)")
	assert.Contains(t, lines[1], "[failed: planner contract violation]")
}

func TestPrintRedaction(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRedaction("Goal: <NAME> at <EMAIL>", []types.PiiSpan{
		{PiiType: "PERSON"}, {PiiType: "EMAIL_ADDRESS"}, {PiiType: "PERSON"},
	})
	output := buf.String()

	assert.Contains(t, output, "REDACTED INPUT")
	assert.Contains(t, output, "PII spans: 3")
	assert.Contains(t, output, "PERSON × 2")
	assert.Contains(t, output, "EMAIL_ADDRESS × 1")
	assert.Contains(t, output, "<NAME>")
	assert.Less(t, strings.Index(output, "EMAIL_ADDRESS"), strings.Index(output, "PERSON"), "kinds are sorted")
}

func TestPrintRedaction_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRedaction("", nil)
	assert.Empty(t, buf.String())
}

func TestPrintBeatPlan(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBeatPlan(types.SectionPlan{
		{Beat: types.BeatA, Missing: []string{"why this program", "why now", "career goal", "field fit"}},
		{Beat: types.BeatB, Missing: nil},
	})
	output := buf.String()

	assert.Contains(t, output, "BEAT PLAN")
	assert.Contains(t, output, "Beat A: 4 missing")
	assert.Contains(t, output, "... and 1 more")
	assert.Contains(t, output, "Beat B: 0 missing")
	assert.NotContains(t, output, "field fit")
}

func TestPrintQuestions(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintQuestions(types.QuestionsByBeat{
		types.BeatC: {{Beat: types.BeatC, Question: "Who benefited most?", Intent: "impact evidence"}},
	})
	output := buf.String()

	assert.Contains(t, output, "Total questions: 1")
	assert.Contains(t, output, "1. Who benefited most?")
	assert.Contains(t, output, "intent: impact evidence")
	assert.Equal(t, 4, strings.Count(output, "(none)"))
}

func TestPrintValidationReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintValidationReport(types.NewValidationReport(true), 0)
	assert.Contains(t, buf.String(), "VALIDATION PASSED")

	buf.Reset()
	report := types.NewValidationReport(true)
	report.Errors = []string{"D: ungrounded entities not found in source: [\"Gates Foundation\"]"}
	report.Warnings = []string{pipeline.MaxAttemptsWarning}
	report.RepairsApplied = []string{"Attempt 1: regenerate beats [D]"}
	p.PrintValidationReport(report, 2)
	output := buf.String()

	assert.Contains(t, output, "VALIDATION REPORT")
	assert.Contains(t, output, "Repair attempts: 2")
	assert.Contains(t, output, "Attempt 1: regenerate beats [D]")
	assert.Contains(t, output, "Max repair attempts reached")

	buf.Reset()
	p.PrintValidationReport(nil, 0)
	assert.Empty(t, buf.String())
}

func TestPrintResponse_Fallback(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResponse(pipeline.FallbackResponse(nil))
	output := buf.String()

	assert.Contains(t, output, "fallback questions")
	assert.Contains(t, output, "Total questions: 10")
	assert.Contains(t, output, pipeline.FallbackError)
}
