package validation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/sop-question-agent/internal/entities"
)

var (
	numberRe = regexp.MustCompile(`\b\d+(\.\d+)?%?\b`)
	phoneRe  = regexp.MustCompile(`\b\d{3}[-\s]?\d{3}[-\s]?\d{4}\b`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// Contact-detail failure reasons.
const (
	ReasonEmail = "email-like token detected in question"
	ReasonPhone = "phone-like token detected in question"
)

// Normalize lowercases s, collapses whitespace and trims it. Grounding checks
// compare normalized tokens against the normalized source text.
func Normalize(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.ToLower(s), " "))
}

// UngroundedNumbers returns the numeric tokens of question that do not occur in
// the normalized source, sorted and deduplicated.
func UngroundedNumbers(question, sourceNorm string) []string {
	var missing []string
	for _, n := range numberRe.FindAllString(question, -1) {
		if !strings.Contains(sourceNorm, Normalize(n)) {
			missing = append(missing, n)
		}
	}
	return sortedUnique(missing)
}

// UngroundedEntities returns the recognized entities of question that do not
// occur in the normalized source. Entities with unchecked labels or shorter
// than two characters are ignored.
func UngroundedEntities(ents []entities.Entity, sourceNorm string) []string {
	var missing []string
	for _, e := range ents {
		if !entities.CheckedLabels[e.Label] {
			continue
		}
		text := strings.TrimSpace(e.Text)
		if len([]rune(text)) < 2 {
			continue
		}
		if !strings.Contains(sourceNorm, Normalize(text)) {
			missing = append(missing, text)
		}
	}
	return sortedUnique(missing)
}

// CheckContact reports email-like and phone-like tokens in question.
func CheckContact(question string) []string {
	var reasons []string
	if strings.Contains(question, "@") {
		reasons = append(reasons, ReasonEmail)
	}
	if phoneRe.MatchString(question) {
		reasons = append(reasons, ReasonPhone)
	}
	return reasons
}

// recognize runs the primary recognizer and drops to the heuristic when it is
// missing or fails. The primary's error is returned alongside the heuristic result.
func recognize(ctx context.Context, primary entities.Recognizer, text string) ([]entities.Entity, error) {
	if primary != nil {
		ents, err := primary.Recognize(ctx, text)
		if err == nil {
			return ents, nil
		}
		fallback, _ := entities.Heuristic{}.Recognize(ctx, text)
		return fallback, err
	}
	ents, _ := entities.Heuristic{}.Recognize(ctx, text)
	return ents, nil
}

func sortedUnique(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
