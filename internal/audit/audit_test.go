package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(ms int64) Clock {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(fixedClock(1700), AgentPlanner, EventPlanCreated, nil)

	assert.Equal(t, int64(1700), e.TSMs)
	assert.Equal(t, "beat_planner", e.Agent)
	assert.Equal(t, "created_beat_plan", e.Event)
	assert.NotNil(t, e.Data)
}

func TestLog_AppendDoesNotModifyReceiver(t *testing.T) {
	base := Log{NewEvent(fixedClock(1), AgentRedactor, EventStart, nil)}

	grown := base.Append(NewEvent(fixedClock(2), AgentRedactor, EventEnd, nil))

	assert.Len(t, base, 1)
	assert.Len(t, grown, 2)
	assert.Equal(t, EventEnd, grown[1].Event)
}

func TestMerge_PreservesSegmentOrder(t *testing.T) {
	a := Log{NewEvent(fixedClock(1), AgentGenerator, EventSuccess, map[string]any{"beat": "A"})}
	b := Log{
		NewEvent(fixedClock(2), AgentGenerator, EventSuccess, map[string]any{"beat": "B"}),
		NewEvent(fixedClock(3), AgentGenerator, EventError, map[string]any{"beat": "C"}),
	}

	merged := Merge(a, nil, b)

	assert.Len(t, merged, 3)
	assert.Equal(t, "A", merged[0].Data["beat"])
	assert.Equal(t, "B", merged[1].Data["beat"])
	assert.Equal(t, "C", merged[2].Data["beat"])
}

func TestMerge_Associative(t *testing.T) {
	x := Log{NewEvent(fixedClock(1), AgentGenerator, EventStart, nil)}
	y := Log{NewEvent(fixedClock(2), AgentGenerator, EventSuccess, nil)}
	z := Log{NewEvent(fixedClock(3), AgentAssembler, EventReduceComplete, nil)}

	assert.Equal(t, Merge(Merge(x, y), z), Merge(x, Merge(y, z)))
}

func TestLog_Since(t *testing.T) {
	l := Log{
		NewEvent(fixedClock(1), AgentRedactor, EventStart, nil),
		NewEvent(fixedClock(2), AgentRedactor, EventEnd, nil),
		NewEvent(fixedClock(3), AgentPlanner, EventPlanCreated, nil),
	}

	assert.Len(t, l.Since(0), 3)
	assert.Equal(t, EventPlanCreated, l.Since(2)[0].Event)
	assert.Empty(t, l.Since(3))
	assert.Empty(t, l.Since(10))
}

func TestSegment_Record(t *testing.T) {
	seg := NewSegment(AgentGenerator, fixedClock(42))
	seg.Record(EventStart, map[string]any{"beat": "A"})
	seg.Record(EventSuccess, map[string]any{"beat": "A", "n_questions": 2})

	l := seg.Log()
	assert.Len(t, l, 2)
	assert.Equal(t, AgentGenerator, l[1].Agent)
	assert.Equal(t, int64(42), l[1].TSMs)

	seg.Record(EventEnd, nil)
	assert.Len(t, l, 2, "returned log is a snapshot")
}
