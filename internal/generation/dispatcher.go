package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/types"
)

// TaskResult is one worker's private output. Err is set when the task failed;
// Questions is then empty.
type TaskResult struct {
	Beat      types.Beat
	Questions []types.QuestionItem
	Log       audit.Log
	Err       error
	LatencyMs int64
}

// Round is the joined output of every task dispatched in one round.
type Round struct {
	Questions types.QuestionsByBeat
	Log       audit.Log
	Failed    map[types.Beat]error
	Results   []TaskResult
}

// Dispatcher fans tasks out to a Generator with bounded parallelism.
type Dispatcher struct {
	gen    Generator
	limit  int
	clock  audit.Clock
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher running at most limit tasks at once.
// A limit below 1 means one goroutine per task.
func NewDispatcher(gen Generator, limit int, clock audit.Clock, logger *zap.Logger) *Dispatcher {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{gen: gen, limit: limit, clock: clock, logger: logger.Named("dispatcher")}
}

// Dispatch starts every task and returns immediately. Results arrive on the
// returned channel in completion order; the channel is closed once every task
// has finished. A failing task never cancels its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, tasks []Task) <-chan TaskResult {
	results := make(chan TaskResult, len(tasks))

	g := new(errgroup.Group)
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}

	go func() {
		defer close(results)
		for _, task := range tasks {
			g.Go(func() error {
				results <- d.runTask(ctx, task)
				return nil
			})
		}
		_ = g.Wait() // errors captured in TaskResult.Err
	}()

	return results
}

// Collect is the join barrier: it drains results until the channel closes and
// merges the private outputs in arrival order.
func Collect(results <-chan TaskResult) Round {
	round := Round{
		Questions: types.QuestionsByBeat{},
		Failed:    map[types.Beat]error{},
	}
	for r := range results {
		round.Results = append(round.Results, r)
		round.Log = audit.Merge(round.Log, r.Log)
		if r.Err != nil {
			round.Failed[r.Beat] = r.Err
			continue
		}
		round.Questions = types.MergeQuestions(round.Questions, types.QuestionsByBeat{r.Beat: r.Questions})
	}
	if round.Log == nil {
		round.Log = audit.Log{}
	}
	return round
}

// Run dispatches tasks and waits for all of them.
func (d *Dispatcher) Run(ctx context.Context, tasks []Task) Round {
	return Collect(d.Dispatch(ctx, tasks))
}

func (d *Dispatcher) runTask(ctx context.Context, task Task) (result TaskResult) {
	seg := audit.NewSegment(audit.AgentGenerator, d.clock)
	start := d.clock()
	result.Beat = task.Beat

	seg.Record(audit.EventStart, map[string]any{"beat": string(task.Beat)})

	defer func() {
		if r := recover(); r != nil {
			result.Questions = nil
			result.Err = d.fail(seg, task, start, fmt.Errorf("worker panic: %v", r))
		}
		result.LatencyMs = d.clock().Sub(start).Milliseconds()
		result.Log = seg.Log()
	}()

	questions, err := d.gen.Generate(ctx, task)
	if err != nil {
		result.Err = d.fail(seg, task, start, err)
		return result
	}

	result.Questions = questions
	seg.Record(audit.EventSuccess, map[string]any{
		"beat":        string(task.Beat),
		"n_questions": len(questions),
		"latency_ms":  d.clock().Sub(start).Milliseconds(),
	})
	return result
}

func (d *Dispatcher) fail(seg *audit.Segment, task Task, start time.Time, cause error) error {
	err := &TaskError{Beat: task.Beat, Keys: task.Keys(), Cause: cause}
	seg.Record(audit.EventError, map[string]any{
		"beat":       string(task.Beat),
		"error_type": errorType(cause),
		"message":    cause.Error(),
		"task_keys":  task.Keys(),
		"latency_ms": d.clock().Sub(start).Milliseconds(),
	})
	d.logger.Warn("generation task failed",
		zap.String("beat", string(task.Beat)),
		zap.Strings("task_keys", task.Keys()),
		zap.Error(cause))
	return err
}

func errorType(err error) string {
	var merr *MalformedOutputError
	var berr *BackendError
	switch {
	case errors.As(err, &merr):
		return "MalformedOutputError"
	case errors.As(err, &berr):
		return "BackendError"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "ContextError"
	default:
		return fmt.Sprintf("%T", err)
	}
}
