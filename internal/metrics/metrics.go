// Package metrics exposes pipeline and HTTP measurements to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonathan/sop-question-agent/internal/pipeline"
	"github.com/jonathan/sop-question-agent/internal/types"
)

const (
	namespace = "sopq"

	outcomeLabel = "outcome"
	beatLabel    = "beat"
	statusLabel  = "status"
	stageLabel   = "stage"

	taskStatusOK    = "ok"
	taskStatusError = "error"
)

// Pipeline records run measurements. It implements pipeline.Observer.
type Pipeline struct {
	runs          *prometheus.CounterVec
	attempts      prometheus.Histogram
	tasks         *prometheus.CounterVec
	beatFailures  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

var _ pipeline.Observer = (*Pipeline)(nil)

// NewPipeline creates unregistered collectors.
func NewPipeline() *Pipeline {
	return &Pipeline{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Number of pipeline runs partitioned by outcome.",
		}, []string{outcomeLabel}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_attempts",
			Help:      "Repair attempts used per finished run.",
			Buckets:   []float64{0, 1, 2, 3, 5},
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tasks_total",
			Help:      "Generation tasks partitioned by beat and status.",
		}, []string{beatLabel, statusLabel}),
		beatFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_beat_failures_total",
			Help:      "Beats that failed a validation pass.",
		}, []string{beatLabel}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_milliseconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{10, 100, 500, 1000, 5000, 15000, 60000},
		}, []string{stageLabel}),
	}
}

// Collectors returns the collectors for a custom registry.
func (m *Pipeline) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.runs, m.attempts, m.tasks, m.beatFailures, m.stageDuration}
}

// MustRegister registers every collector with reg.
func (m *Pipeline) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.Collectors()...)
}

// StageFinished implements pipeline.Observer.
func (m *Pipeline) StageFinished(stage pipeline.Stage, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(string(stage)).Observe(float64(elapsed.Milliseconds()))
}

// TaskFinished implements pipeline.Observer.
func (m *Pipeline) TaskFinished(beat types.Beat, err error) {
	status := taskStatusOK
	if err != nil {
		status = taskStatusError
	}
	m.tasks.WithLabelValues(string(beat), status).Inc()
}

// BeatFailed implements pipeline.Observer.
func (m *Pipeline) BeatFailed(beat types.Beat) {
	m.beatFailures.WithLabelValues(string(beat)).Inc()
}

// RunFinished implements pipeline.Observer.
func (m *Pipeline) RunFinished(outcome string, attempts int) {
	m.runs.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
	if outcome != pipeline.OutcomeRejected {
		m.attempts.Observe(float64(attempts))
	}
}
