// Package generation turns section plan items into independent per-beat
// question tasks and runs them concurrently.
package generation

import (
	"slices"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// Task carries everything one worker needs and nothing else. Tasks share no
// mutable state; slices are copied when the task is built.
type Task struct {
	Beat            types.Beat
	Missing         []string
	Guidance        string
	Anchors         []string
	RedactedText    string
	ProgramCategory types.ProgramCategory
}

// Keys lists the task's field names, for failure diagnostics.
func (t Task) Keys() []string {
	return []string{"anchors", "beat", "guidance", "missing", "program_category", "redacted_text"}
}

// BuildTasks creates one task per plan item whose beat is in beats. A nil beats
// slice selects every item.
func BuildTasks(plan types.SectionPlan, beats []types.Beat, redacted string, category types.ProgramCategory) []Task {
	tasks := make([]Task, 0, len(plan))
	for _, item := range plan {
		if beats != nil && !slices.Contains(beats, item.Beat) {
			continue
		}
		tasks = append(tasks, Task{
			Beat:            item.Beat,
			Missing:         slices.Clone(item.Missing),
			Guidance:        item.Guidance,
			Anchors:         slices.Clone(item.Anchors),
			RedactedText:    redacted,
			ProgramCategory: category,
		})
	}
	return tasks
}
