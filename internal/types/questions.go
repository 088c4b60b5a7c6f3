package types

import "slices"

// QuestionItem is one generated guidance question. Immutable once created.
type QuestionItem struct {
	Beat     Beat   `json:"beat"`
	Question string `json:"question"`
	Intent   string `json:"intent"`
}

// QuestionsByBeat maps each beat to its questions.
type QuestionsByBeat map[Beat][]QuestionItem

// MergeQuestions is the associative combine for concurrent worker contributions:
// contributions for the same beat are concatenated, never overwritten.
// Neither input is modified.
func MergeQuestions(left, right QuestionsByBeat) QuestionsByBeat {
	out := left.Clone()
	for beat, qs := range right {
		out[beat] = append(out[beat], qs...)
	}
	return out
}

// Clone returns a copy whose slices do not alias the receiver's.
func (q QuestionsByBeat) Clone() QuestionsByBeat {
	out := make(QuestionsByBeat, len(q))
	for beat, qs := range q {
		out[beat] = slices.Clone(qs)
	}
	return out
}

// Without returns a new mapping holding every entry except the listed beats.
func (q QuestionsByBeat) Without(beats ...Beat) QuestionsByBeat {
	out := make(QuestionsByBeat, len(q))
	for beat, qs := range q {
		if slices.Contains(beats, beat) {
			continue
		}
		out[beat] = slices.Clone(qs)
	}
	return out
}

// Complete returns a copy with every beat present, missing ones as empty lists.
func (q QuestionsByBeat) Complete() QuestionsByBeat {
	out := q.Clone()
	for _, beat := range AllBeats() {
		if out[beat] == nil {
			out[beat] = []QuestionItem{}
		}
	}
	return out
}

// Total counts the questions across every beat.
func (q QuestionsByBeat) Total() int {
	n := 0
	for _, qs := range q {
		n += len(qs)
	}
	return n
}

// Counts returns the per-beat question counts for all five beats.
func (q QuestionsByBeat) Counts() map[Beat]int {
	counts := make(map[Beat]int, len(AllBeats()))
	for _, beat := range AllBeats() {
		counts[beat] = len(q[beat])
	}
	return counts
}
