//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func q(beat Beat, text string) QuestionItem {
	return QuestionItem{Beat: beat, Question: text, Intent: "intent"}
}

func TestMergeQuestions_ConcatenatesPerBeat(t *testing.T) {
	left := QuestionsByBeat{BeatA: {q(BeatA, "a1?")}}
	right := QuestionsByBeat{BeatA: {q(BeatA, "a2?")}, BeatB: {q(BeatB, "b1?")}}

	got := MergeQuestions(left, right)

	want := QuestionsByBeat{
		BeatA: {q(BeatA, "a1?"), q(BeatA, "a2?")},
		BeatB: {q(BeatB, "b1?")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeQuestions mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, left[BeatA], 1, "left input must not be modified")
}

func TestMergeQuestions_Associative(t *testing.T) {
	x := QuestionsByBeat{BeatA: {q(BeatA, "x?")}}
	y := QuestionsByBeat{BeatA: {q(BeatA, "y?")}, BeatC: {q(BeatC, "c?")}}
	z := QuestionsByBeat{BeatE: {q(BeatE, "e?")}}

	leftFirst := MergeQuestions(MergeQuestions(x, y), z)
	rightFirst := MergeQuestions(x, MergeQuestions(y, z))

	if diff := cmp.Diff(leftFirst, rightFirst); diff != "" {
		t.Errorf("merge is not associative (-left +right):\n%s", diff)
	}
}

func TestMergeQuestions_DisjointKeysCommute(t *testing.T) {
	x := QuestionsByBeat{BeatA: {q(BeatA, "a?")}}
	y := QuestionsByBeat{BeatD: {q(BeatD, "d?")}}

	if diff := cmp.Diff(MergeQuestions(x, y), MergeQuestions(y, x)); diff != "" {
		t.Errorf("disjoint merge does not commute:\n%s", diff)
	}
}

func TestQuestionsByBeat_Without(t *testing.T) {
	src := QuestionsByBeat{
		BeatA: {q(BeatA, "a?")},
		BeatB: {q(BeatB, "b?")},
		BeatC: {q(BeatC, "c?")},
	}

	got := src.Without(BeatA, BeatC)

	assert.Equal(t, QuestionsByBeat{BeatB: {q(BeatB, "b?")}}, got)
	assert.Len(t, src, 3, "source must keep every key")

	got[BeatB][0].Question = "changed?"
	assert.Equal(t, "b?", src[BeatB][0].Question, "result must not alias the source")
}

func TestQuestionsByBeat_CompleteAndCounts(t *testing.T) {
	src := QuestionsByBeat{BeatB: {q(BeatB, "b?"), q(BeatB, "b2?")}}

	full := src.Complete()

	assert.Len(t, full, 5)
	for _, beat := range AllBeats() {
		assert.NotNil(t, full[beat], "beat %s should be present", beat)
	}
	assert.Equal(t, map[Beat]int{BeatA: 0, BeatB: 2, BeatC: 0, BeatD: 0, BeatE: 0}, full.Counts())
	assert.Equal(t, 2, full.Total())
}

func TestSectionPlan_Replace(t *testing.T) {
	plan := SectionPlan{
		{Beat: BeatA, Guidance: "a"},
		{Beat: BeatB, Guidance: "b"},
	}

	got := plan.Replace(map[Beat]SectionPlanItem{BeatB: {Beat: BeatB, Guidance: "stronger"}})

	assert.Equal(t, "a", got[0].Guidance)
	assert.Equal(t, "stronger", got[1].Guidance)
	assert.Equal(t, "b", plan[1].Guidance, "original plan is untouched")
}
