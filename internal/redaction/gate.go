// Package redaction turns an applicant profile into the canonical, PII-scrubbed
// text that every later stage grounds against.
package redaction

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/prompts"
	"github.com/jonathan/sop-question-agent/internal/types"
)

// Output is what the gate hands to the rest of the pipeline. Canonical is the
// unredacted text; it is returned to the caller only and never sent to a
// generation backend.
type Output struct {
	Canonical string
	Redacted  string
	Spans     []types.PiiSpan
}

// GateConfig configures a Gate.
type GateConfig struct {
	Language string
	Kinds    []string
	Clock    audit.Clock
}

// Gate wraps a Backend with canonicalization and audit events.
type Gate struct {
	backend Backend
	cfg     GateConfig
	logger  *zap.Logger
}

// NewGate creates a gate. Empty config fields take defaults.
func NewGate(backend Backend, cfg GateConfig, logger *zap.Logger) *Gate {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = DefaultKinds()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{backend: backend, cfg: cfg, logger: logger.Named("redaction")}
}

// Redact canonicalizes and redacts the profile. Any backend failure is returned
// as a *BackendError; there is no pass-through of unredacted text.
func (g *Gate) Redact(ctx context.Context, profile types.ApplicantProfile) (*Output, audit.Log, error) {
	seg := audit.NewSegment(audit.AgentRedactor, g.cfg.Clock)
	canonical := Canonicalize(profile)
	start := g.cfg.Clock()

	seg.Record(audit.EventStart, map[string]any{
		"len_canonical": len(canonical),
		"backend":       g.backend.Name(),
	})

	res, err := g.backend.Redact(ctx, Request{Text: canonical, Language: g.cfg.Language, Kinds: g.cfg.Kinds})
	if err == nil && strings.TrimSpace(res.Redacted) == "" {
		err = &BackendError{Backend: g.backend.Name(), Message: "backend returned empty text"}
	}
	if err != nil {
		var berr *BackendError
		if !errors.As(err, &berr) {
			err = &BackendError{Backend: g.backend.Name(), Message: "redaction failed", Cause: err}
		}
		seg.Record(audit.EventError, map[string]any{
			"error_type": "BackendError",
			"message":    err.Error(),
		})
		g.logger.Error("redaction failed", zap.String("backend", g.backend.Name()), zap.Error(err))
		return nil, seg.Log(), err
	}

	if check := prompts.CheckInjection(res.Redacted); !check.Safe {
		seg.Record(audit.EventInjectionSuspected, map[string]any{"patterns": check.Matches})
		g.logger.Warn("possible prompt injection in applicant input", zap.Strings("patterns", check.Matches))
	}

	latency := g.cfg.Clock().Sub(start).Milliseconds()
	seg.Record(audit.EventEnd, map[string]any{
		"len_canonical": len(canonical),
		"pii_count":     len(res.Spans),
		"latency_ms":    latency,
	})
	g.logger.Debug("redaction complete",
		zap.Int("pii_count", len(res.Spans)),
		zap.Int64("latency_ms", latency))

	spans := res.Spans
	if spans == nil {
		spans = []types.PiiSpan{}
	}
	return &Output{Canonical: canonical, Redacted: res.Redacted, Spans: spans}, seg.Log(), nil
}
