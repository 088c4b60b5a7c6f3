package redaction

import (
	"sort"
	"strings"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// Entity kinds understood by both backends.
const (
	KindPerson     = "PERSON"
	KindPhone      = "PHONE_NUMBER"
	KindEmail      = "EMAIL_ADDRESS"
	KindLocation   = "LOCATION"
	KindCreditCard = "CREDIT_CARD"
	KindURL        = "URL"
)

// DefaultKinds are detected when the caller does not choose.
func DefaultKinds() []string {
	return []string{KindPerson, KindPhone, KindEmail, KindLocation, KindCreditCard, KindURL}
}

var placeholders = map[string]string{
	KindEmail:    "<EMAIL>",
	KindPhone:    "<PHONE>",
	KindPerson:   "<NAME>",
	KindLocation: "<LOCATION>",
	KindURL:      "<URL>",
}

// Placeholder returns the replacement token for an entity kind.
func Placeholder(kind string) string {
	if p, ok := placeholders[kind]; ok {
		return p
	}
	return "<REDACTED>"
}

// Anonymize replaces each byte-offset span in text with its placeholder. Overlapping spans
// are resolved in favour of the earliest start, then the longest match; the
// losers are dropped. It returns the redacted text and the spans applied,
// ordered by start offset.
func Anonymize(text string, spans []types.PiiSpan) (string, []types.PiiSpan) {
	candidates := make([]types.PiiSpan, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			continue
		}
		candidates = append(candidates, s)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Start != candidates[j].Start {
			return candidates[i].Start < candidates[j].Start
		}
		return candidates[i].End > candidates[j].End
	})

	applied := make([]types.PiiSpan, 0, len(candidates))
	var sb strings.Builder
	cursor := 0
	for _, s := range candidates {
		if s.Start < cursor {
			continue
		}
		sb.WriteString(text[cursor:s.Start])
		sb.WriteString(Placeholder(s.PiiType))
		cursor = s.End
		applied = append(applied, s)
	}
	sb.WriteString(text[cursor:])
	return sb.String(), applied
}
