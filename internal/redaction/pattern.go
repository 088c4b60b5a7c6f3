package redaction

import (
	"context"
	"regexp"
	"slices"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// PatternBackend detects structured PII (emails, phone numbers, URLs, card
// numbers) with regular expressions. It cannot find names or places, so it is
// meant for local runs and tests where no analyzer service is available.
type PatternBackend struct{}

var kindPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{KindEmail, regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
	{KindURL, regexp.MustCompile(`(?i)\bhttps?://[^\s<>"]+|\bwww\.[^\s<>"]+`)},
	{KindCreditCard, regexp.MustCompile(`\b(?:\d{4}[ -]?){3}\d{4}\b`)},
	{KindPhone, regexp.MustCompile(`(?:\+\d{1,2}[\s.-]?)?\(?\b\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`)},
}

// Name implements Backend.
func (PatternBackend) Name() string { return "pattern" }

// Redact implements Backend.
func (PatternBackend) Redact(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &BackendError{Backend: "pattern", Message: "cancelled", Cause: err}
	}

	var spans []types.PiiSpan
	for _, kp := range kindPatterns {
		if !slices.Contains(req.Kinds, kp.kind) {
			continue
		}
		for _, loc := range kp.re.FindAllStringIndex(req.Text, -1) {
			spans = append(spans, types.PiiSpan{Start: loc[0], End: loc[1], PiiType: kp.kind})
		}
	}

	redacted, applied := Anonymize(req.Text, spans)
	return &Result{Redacted: redacted, Spans: byteToRune(req.Text, applied)}, nil
}
