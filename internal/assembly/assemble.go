// Package assembly is the deterministic reduce step: it merges worker output
// into the final per-beat question lists.
package assembly

import (
	"regexp"
	"strings"

	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/types"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	quoteRe        = regexp.MustCompile("[“”\"'`]")
	trailingMarkRe = regexp.MustCompile(`\s*\?\s*$`)
)

// NormalizeKey is the dedupe key for a question: lowercased, whitespace
// collapsed, quote characters removed, and trailing question-mark spacing unified.
func NormalizeKey(q string) string {
	s := strings.ToLower(strings.TrimSpace(q))
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = quoteRe.ReplaceAllString(s, "")
	return trailingMarkRe.ReplaceAllString(s, "?")
}

// Stats summarises one reduce for the audit timeline.
type Stats struct {
	PreDedupe  int
	PostDedupe int
	PerBeat    map[types.Beat]int
}

// Assemble reduces contributed questions into the final mapping. Every beat is
// present in the result. Beats are processed in A-E order and questions in
// arrival order; a question whose key was already seen under any beat is
// dropped, then each beat is cut to maxPerBeat. The input is not modified and
// the result depends only on the input.
func Assemble(byBeat types.QuestionsByBeat, maxPerBeat int) (types.QuestionsByBeat, Stats) {
	return Reassemble(byBeat, nil, nil, maxPerBeat)
}

// Reassemble is Assemble for a repair round. Beats listed in pinned keep their
// lists from previous verbatim, and their keys are reserved before the other
// beats are reduced, so a regenerated question can never displace a question
// that already passed validation.
func Reassemble(byBeat, previous types.QuestionsByBeat, pinned []types.Beat, maxPerBeat int) (types.QuestionsByBeat, Stats) {
	final := make(types.QuestionsByBeat, len(types.AllBeats()))
	isPinned := make(map[types.Beat]bool, len(pinned))
	seen := make(map[string]bool)
	var stats Stats

	for _, beat := range types.AllBeats() {
		final[beat] = []types.QuestionItem{}
	}
	for _, beat := range pinned {
		isPinned[beat] = true
		final[beat] = append([]types.QuestionItem{}, previous[beat]...)
		for _, q := range previous[beat] {
			seen[NormalizeKey(q.Question)] = true
		}
	}

	for _, beat := range types.AllBeats() {
		if isPinned[beat] {
			continue
		}
		for _, q := range byBeat[beat] {
			stats.PreDedupe++
			if strings.TrimSpace(q.Question) == "" {
				continue
			}
			key := NormalizeKey(q.Question)
			if seen[key] {
				continue
			}
			seen[key] = true
			final[beat] = append(final[beat], q)
		}
		if maxPerBeat >= 0 && len(final[beat]) > maxPerBeat {
			final[beat] = final[beat][:maxPerBeat]
		}
	}

	stats.PerBeat = final.Counts()
	stats.PostDedupe = final.Total()
	return final, stats
}

// Event renders stats as the assembler's audit event.
func (s Stats) Event(clock audit.Clock) audit.Event {
	perBeat := make(map[string]int, len(s.PerBeat))
	for b, n := range s.PerBeat {
		perBeat[string(b)] = n
	}
	return audit.NewEvent(clock, audit.AgentAssembler, audit.EventReduceComplete, map[string]any{
		"total_pre_dedupe":  s.PreDedupe,
		"total_post_dedupe": s.PostDedupe,
		"per_beat_counts":   perBeat,
	})
}
