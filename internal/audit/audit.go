// Package audit records the append-only event timeline of a pipeline run.
//
// Each component produces its own Log segment; segments are combined with
// Merge, which only ever concatenates. Nothing in a Log is rewritten once
// appended.
package audit

import (
	"time"
)

// Agent names used in the timeline.
const (
	AgentRedactor   = "redactor"
	AgentPlanner    = "beat_planner"
	AgentDispatcher = "dispatcher"
	AgentGenerator  = "question_generator"
	AgentAssembler  = "assembler"
	AgentValidator  = "validator"
	AgentPipeline   = "pipeline"
)

// Event names used in the timeline.
const (
	EventStart              = "start"
	EventEnd                = "end"
	EventSuccess            = "success"
	EventError              = "error"
	EventPlanCreated        = "created_beat_plan"
	EventDispatched         = "dispatched"
	EventReduceComplete     = "reduce_complete"
	EventChecked            = "checked"
	EventRepairPlanned      = "repair_planned"
	EventMaxAttempts        = "max_attempts_reached"
	EventFailed             = "failed"
	EventInjectionSuspected = "injection_suspected"
)

// Event is a single timestamped timeline record.
type Event struct {
	TSMs  int64          `json:"ts_ms"`
	Agent string         `json:"agent"`
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// Log is an ordered sequence of events. Treat it as a value: Append and Merge
// return new logs and never modify their inputs.
type Log []Event

// Clock supplies event timestamps. Tests replace it to get stable output.
type Clock func() time.Time

// NewEvent builds an event stamped with the given clock. A nil clock uses time.Now.
func NewEvent(clock Clock, agent, event string, data map[string]any) Event {
	if clock == nil {
		clock = time.Now
	}
	if data == nil {
		data = map[string]any{}
	}
	return Event{
		TSMs:  clock().UnixMilli(),
		Agent: agent,
		Event: event,
		Data:  data,
	}
}

// Append returns a new log with the events added at the end.
func (l Log) Append(events ...Event) Log {
	out := make(Log, 0, len(l)+len(events))
	out = append(out, l...)
	return append(out, events...)
}

// Merge concatenates segments in argument order.
func Merge(segments ...Log) Log {
	n := 0
	for _, s := range segments {
		n += len(s)
	}
	out := make(Log, 0, n)
	for _, s := range segments {
		out = append(out, s...)
	}
	return out
}

// Since returns the events appended after the first n. It is used to emit
// incremental timeline deltas to streaming clients.
func (l Log) Since(n int) Log {
	if n >= len(l) {
		return Log{}
	}
	if n < 0 {
		n = 0
	}
	out := make(Log, len(l)-n)
	copy(out, l[n:])
	return out
}

// Segment accumulates one writer's events privately. Concurrent writers each
// own a Segment and hand back its Log for merging.
type Segment struct {
	agent string
	clock Clock
	log   Log
}

// NewSegment starts an empty segment for agent.
func NewSegment(agent string, clock Clock) *Segment {
	return &Segment{agent: agent, clock: clock}
}

// Record appends an event emitted by the segment's agent.
func (s *Segment) Record(event string, data map[string]any) {
	s.log = append(s.log, NewEvent(s.clock, s.agent, event, data))
}

// Log returns a copy of the recorded events.
func (s *Segment) Log() Log {
	return Merge(s.log)
}
