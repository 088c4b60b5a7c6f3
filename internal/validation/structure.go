package validation

import (
	"regexp"
	"strings"

	"github.com/jonathan/sop-question-agent/internal/types"
)

var (
	placeholderRe = regexp.MustCompile(`(?i)<(NAME|EMAIL|PHONE|LOCATION|URL|REDACTED)>`)
	listMarkerRe  = regexp.MustCompile(`^(\d+[).](\s|$)|[-*•])`)
)

// Structural failure reasons.
const (
	ReasonEmptyQuestion = "empty question text"
	ReasonMultiLine     = "question must be single-line"
	ReasonNoQuestion    = "question must end with '?'"
	ReasonListItem      = "looks like a list item, not a standalone question"
	ReasonPlaceholder   = "question references redaction placeholders (e.g., <NAME>)"
	ReasonEmptyIntent   = "intent must not be empty"
)

// CheckQuestionText returns every structural rule the question text breaks.
func CheckQuestionText(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return []string{ReasonEmptyQuestion}
	}

	var reasons []string
	if strings.ContainsAny(q, "\r\n") {
		reasons = append(reasons, ReasonMultiLine)
	}
	if !strings.HasSuffix(q, "?") {
		reasons = append(reasons, ReasonNoQuestion)
	}
	if listMarkerRe.MatchString(q) {
		reasons = append(reasons, ReasonListItem)
	}
	if placeholderRe.MatchString(q) {
		reasons = append(reasons, ReasonPlaceholder)
	}
	return reasons
}

// CheckStructure applies the text rules plus the intent rule to one item.
func CheckStructure(item types.QuestionItem) []string {
	reasons := CheckQuestionText(item.Question)
	if strings.TrimSpace(item.Intent) == "" {
		reasons = append(reasons, ReasonEmptyIntent)
	}
	return reasons
}
