package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/sop-question-agent/internal/types"
)

func TestForProgram_GenericCategories(t *testing.T) {
	for _, category := range []types.ProgramCategory{
		types.ProgramUndergrad, types.ProgramGraduate, types.ProgramResearch, types.ProgramPhD,
	} {
		t.Run(string(category), func(t *testing.T) {
			p := ForProgram(category, "Scholarship: X\n")

			assert.Contains(t, p.BeatDefinitions, "Purpose & Fit")
			assert.Contains(t, p.PlannerSystem, "Target program type: "+string(category))
			assert.NotContains(t, p.PlannerRules, "Sponsor fit")
			assert.NotContains(t, p.QuestionRules, "Community grant targeting")
		})
	}
}

func TestForProgram_CommunityGrant(t *testing.T) {
	p := ForProgram(types.ProgramCommunityGrant, "Goal: help the library\n")

	assert.Contains(t, p.BeatDefinitions, "Community Need & Alignment")
	assert.Contains(t, p.PlannerRules, "Community grant emphasis")
	assert.Contains(t, p.PlannerRules, "If a sponsor-priorities section exists")
	assert.Contains(t, p.QuestionRules, "Community grant targeting")
}

func TestForProgram_SponsorLens(t *testing.T) {
	p := ForProgram(types.ProgramCommunityGrant, "[Sponsor Lens]\nPriorities: youth STEM\n")

	assert.Contains(t, p.PlannerRules, "A [SPONSOR LENS] section exists")
	assert.Contains(t, p.QuestionRules, `reference "[SPONSOR LENS"`)
}

func TestHasSponsorLens(t *testing.T) {
	assert.True(t, HasSponsorLens("notes\n[SPONSOR LENS]\n"))
	assert.True(t, HasSponsorLens("[sponsor lens: city fund]"))
	assert.False(t, HasSponsorLens("sponsor priorities"))
}
