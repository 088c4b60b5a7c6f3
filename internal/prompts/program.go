package prompts

import (
	"strings"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// SponsorLensMarker is the section header that switches on the sponsor-fit rules
// for community grants.
const SponsorLensMarker = "[SPONSOR LENS"

// ProgramProfile bundles the prompt pieces that vary by program category.
type ProgramProfile struct {
	BeatDefinitions string
	PlannerSystem   string
	PlannerRules    string
	QuestionSystem  string
	QuestionRules   string
}

// HasSponsorLens reports whether the redacted input carries a sponsor lens section.
func HasSponsorLens(redactedInput string) bool {
	return strings.Contains(strings.ToUpper(redactedInput), SponsorLensMarker)
}

// ForProgram selects the prompt profile for a program category. Community grants
// get specialised beats and sponsor-fit rules; every other category shares the
// generic profile.
func ForProgram(category types.ProgramCategory, redactedInput string) ProgramProfile {
	if category != types.ProgramCommunityGrant {
		return ProgramProfile{
			BeatDefinitions: MustGet("beats.json", "generic"),
			PlannerSystem:   MustFormat(MustGet("planner.json", "system"), map[string]string{"ProgramCategory": string(category)}),
			PlannerRules:    MustGet("planner.json", "rules"),
			QuestionSystem:  MustGet("generator.json", "system"),
			QuestionRules:   MustGet("generator.json", "rules"),
		}
	}

	sponsorKey := "sponsor-lens-absent"
	if HasSponsorLens(redactedInput) {
		sponsorKey = "sponsor-lens-present"
	}

	return ProgramProfile{
		BeatDefinitions: MustGet("beats.json", "community-grant"),
		PlannerSystem:   MustGet("planner.json", "system-community-grant"),
		PlannerRules: MustGet("planner.json", "rules") +
			MustGet("planner.json", "rules-community-grant") +
			MustGet("planner.json", sponsorKey),
		QuestionSystem: MustGet("generator.json", "system-community-grant"),
		QuestionRules: MustGet("generator.json", "rules") +
			MustGet("generator.json", "rules-community-grant") +
			MustGet("generator.json", sponsorKey),
	}
}
