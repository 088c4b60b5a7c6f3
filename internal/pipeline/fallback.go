package pipeline

import "github.com/jonathan/sop-question-agent/internal/types"

// FallbackError is the report error carried by a fallback response.
const FallbackError = "AI pipeline failed - using fallback questions"

// FallbackQuestions returns the fixed generic questions used when a run cannot
// produce any output of its own. Every call returns a fresh copy.
func FallbackQuestions() types.QuestionsByBeat {
	q := func(beat types.Beat, question, intent string) types.QuestionItem {
		return types.QuestionItem{Beat: beat, Question: question, Intent: intent}
	}
	return types.QuestionsByBeat{
		types.BeatA: {
			q(types.BeatA, "What motivated you to pursue this scholarship opportunity?",
				"Understand personal motivation and alignment with scholarship goals"),
			q(types.BeatA, "How does this scholarship align with your academic and career objectives?",
				"Assess goal clarity and scholarship fit"),
		},
		types.BeatB: {
			q(types.BeatB, "Describe a significant challenge you have overcome and what you learned from it.",
				"Evaluate resilience and growth mindset"),
			q(types.BeatB, "What experiences have shaped your character and prepared you for this opportunity?",
				"Understand personal development and readiness"),
		},
		types.BeatC: {
			q(types.BeatC, "How have you demonstrated leadership or initiative in your academic or community work?",
				"Assess leadership qualities and proactive engagement"),
			q(types.BeatC, "What specific contributions have you made to your field or community?",
				"Evaluate impact and meaningful engagement"),
		},
		types.BeatD: {
			q(types.BeatD, "What are your short-term and long-term goals, and how will this scholarship help you achieve them?",
				"Understand goal clarity and scholarship impact"),
			q(types.BeatD, "How do you plan to use the knowledge and opportunities from this scholarship?",
				"Assess forward-thinking and application of benefits"),
		},
		types.BeatE: {
			q(types.BeatE, "What unique perspectives or experiences do you bring that would enrich this program?",
				"Identify unique value and diversity of thought"),
			q(types.BeatE, "How will you contribute to the scholarship community and give back?",
				"Evaluate commitment to community and reciprocity"),
		},
	}
}

// FallbackReport is the validation report of a fallback response.
func FallbackReport() *types.ValidationReport {
	r := types.NewValidationReport(false)
	r.Errors = append(r.Errors, FallbackError)
	return r
}
