package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/pipeline"
	"github.com/jonathan/sop-question-agent/internal/types"
)

// Stream event types
const (
	EventTypeUpdate = "update"
	EventTypeResult = "result"
	EventTypeError  = "error"
)

// ErrorCodeInputValidation marks a stream rejected before the run started.
const ErrorCodeInputValidation = "INPUT_VALIDATION"

// StreamEvent is one line of a newline-delimited JSON run stream.
type StreamEvent struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data"`
}

// stageUpdate is the per-agent body of an update event.
type stageUpdate struct {
	Stage    string          `json:"stage"`
	PiiSpans []types.PiiSpan `json:"pii_spans,omitempty"`
	AuditLog audit.Log       `json:"audit_log"`
}

// NDJSONWriter writes newline-delimited JSON events, flushing after each one.
type NDJSONWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	enc     *json.Encoder
}

// NewNDJSONWriter creates a new NDJSON writer and sets the stream headers.
func NewNDJSONWriter(w http.ResponseWriter) (*NDJSONWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	return &NDJSONWriter{w: w, flusher: flusher, enc: json.NewEncoder(w)}, nil
}

// WriteEvent sends one event line.
func (n *NDJSONWriter) WriteEvent(e StreamEvent) error {
	if err := n.enc.Encode(e); err != nil {
		return err
	}
	n.flusher.Flush()
	return nil
}

// WriteUpdate sends a stage update keyed by the agent that produced it.
func (n *NDJSONWriter) WriteUpdate(u pipeline.Update) error {
	log := u.AuditLog
	if log == nil {
		log = audit.Log{}
	}
	return n.WriteEvent(StreamEvent{
		Type: EventTypeUpdate,
		Data: map[string]stageUpdate{
			u.Agent: {Stage: string(u.Stage), PiiSpans: u.PiiSpans, AuditLog: log},
		},
	})
}

// WriteResult sends the final response.
func (n *NDJSONWriter) WriteResult(resp pipeline.Response) error {
	return n.WriteEvent(StreamEvent{Type: EventTypeResult, Data: resp})
}

// WriteError sends an error event.
func (n *NDJSONWriter) WriteError(code string, data any) error {
	return n.WriteEvent(StreamEvent{Type: EventTypeError, Error: code, Data: data})
}
