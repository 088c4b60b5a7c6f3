package redaction

import (
	"context"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// Request is one call to a redaction backend.
type Request struct {
	Text     string
	Language string
	Kinds    []string
}

// Result is the backend's answer: redacted text plus the spans it replaced,
// as character offsets into the request text.
type Result struct {
	Redacted string
	Spans    []types.PiiSpan
}

// Backend detects and replaces PII.
type Backend interface {
	Name() string
	Redact(ctx context.Context, req Request) (*Result, error)
}
