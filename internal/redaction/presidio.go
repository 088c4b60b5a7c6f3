package redaction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// PresidioBackend calls a Presidio analyzer service for detection and applies
// the placeholder operators locally.
type PresidioBackend struct {
	baseURL    string
	httpClient *http.Client
}

// PresidioOption configures a PresidioBackend.
type PresidioOption func(*PresidioBackend)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) PresidioOption {
	return func(p *PresidioBackend) {
		p.httpClient = c
	}
}

// NewPresidioBackend creates a backend for the analyzer at baseURL.
func NewPresidioBackend(baseURL string, opts ...PresidioOption) (*PresidioBackend, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("presidio analyzer URL is required")
	}
	p := &PresidioBackend{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type analyzeRequest struct {
	Text     string   `json:"text"`
	Language string   `json:"language"`
	Entities []string `json:"entities,omitempty"`
}

type analyzerResult struct {
	EntityType string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
}

// Name implements Backend.
func (p *PresidioBackend) Name() string { return "presidio" }

// Redact implements Backend.
func (p *PresidioBackend) Redact(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(analyzeRequest{Text: req.Text, Language: req.Language, Entities: req.Kinds})
	if err != nil {
		return nil, &BackendError{Backend: p.Name(), Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, &BackendError{Backend: p.Name(), Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &BackendError{Backend: p.Name(), Message: "analyzer unavailable", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &BackendError{
			Backend: p.Name(),
			Message: fmt.Sprintf("analyzer returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	var results []analyzerResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, &BackendError{Backend: p.Name(), Message: "failed to decode analyzer response", Cause: err}
	}

	spans := make([]types.PiiSpan, 0, len(results))
	for _, r := range results {
		score := r.Score
		spans = append(spans, types.PiiSpan{
			Start:      r.Start,
			End:        r.End,
			PiiType:    r.EntityType,
			Confidence: &score,
		})
	}

	redacted, applied := Anonymize(req.Text, runeToByte(req.Text, spans))
	return &Result{Redacted: redacted, Spans: byteToRune(req.Text, applied)}, nil
}
