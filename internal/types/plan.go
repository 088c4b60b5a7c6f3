package types

// PiiSpan records one entity found by the redaction backend. Informational only.
type PiiSpan struct {
	Start      int      `json:"start"`
	End        int      `json:"end"`
	PiiType    string   `json:"pii_type"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// SectionPlanItem is the planner's output for one beat.
// A repaired item replaces the previous one; items are never mutated in place.
type SectionPlanItem struct {
	Beat     Beat     `json:"beat"`
	Missing  []string `json:"missing"`
	Guidance string   `json:"guidance,omitempty"`
	Anchors  []string `json:"anchors,omitempty"`
}

// SectionPlan is the ordered list of plan items, one per beat.
type SectionPlan []SectionPlanItem

// Beats returns the beat ids of the plan in plan order.
func (p SectionPlan) Beats() []Beat {
	beats := make([]Beat, 0, len(p))
	for _, item := range p {
		beats = append(beats, item.Beat)
	}
	return beats
}

// ByBeat indexes the plan by beat.
func (p SectionPlan) ByBeat() map[Beat]SectionPlanItem {
	m := make(map[Beat]SectionPlanItem, len(p))
	for _, item := range p {
		m[item.Beat] = item
	}
	return m
}

// Replace returns a new plan where each item whose beat appears in replacements is swapped
// for the replacement. Order is preserved.
func (p SectionPlan) Replace(replacements map[Beat]SectionPlanItem) SectionPlan {
	out := make(SectionPlan, 0, len(p))
	for _, item := range p {
		if r, ok := replacements[item.Beat]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, item)
	}
	return out
}
