package planning

import (
	"slices"
	"strings"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// RegenerateDirective is appended to a failing beat's guidance before it is
// dispatched again. The generator switches to its regeneration rules when it
// sees the "Regenerate questions" prefix.
const RegenerateDirective = "Regenerate questions. Do not introduce any new names, numbers, organizations, dates, or places unless they appear verbatim in the provided redacted input."

// IsRegeneration reports whether guidance carries the regeneration directive.
func IsRegeneration(guidance string) bool {
	return strings.Contains(guidance, "Regenerate questions")
}

// Strengthen returns a new item for the same beat with the directive appended
// to its guidance. Missing details and anchors are carried over unchanged.
// Applying it twice is the same as applying it once.
func Strengthen(item types.SectionPlanItem) types.SectionPlanItem {
	next := types.SectionPlanItem{
		Beat:     item.Beat,
		Missing:  slices.Clone(item.Missing),
		Guidance: item.Guidance,
		Anchors:  slices.Clone(item.Anchors),
	}
	if strings.Contains(next.Guidance, RegenerateDirective) {
		return next
	}
	if g := strings.TrimSpace(next.Guidance); g != "" {
		next.Guidance = g + " " + RegenerateDirective
	} else {
		next.Guidance = RegenerateDirective
	}
	return next
}

// StrengthenPlan returns a new plan where the listed beats are strengthened
// and every other item is kept as is.
func StrengthenPlan(plan types.SectionPlan, beats []types.Beat) types.SectionPlan {
	byBeat := plan.ByBeat()
	replacements := make(map[types.Beat]types.SectionPlanItem, len(beats))
	for _, b := range beats {
		if item, ok := byBeat[b]; ok {
			replacements[b] = Strengthen(item)
		}
	}
	return plan.Replace(replacements)
}
