package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sop-question-agent/internal/pipeline"
	"github.com/jonathan/sop-question-agent/internal/types"
)

func TestPipeline_Observer(t *testing.T) {
	m := NewPipeline()
	reg := prometheus.NewRegistry()
	m.MustRegister(reg)

	m.TaskFinished(types.BeatA, nil)
	m.TaskFinished(types.BeatA, nil)
	m.TaskFinished(types.BeatB, errors.New("timeout"))
	m.BeatFailed(types.BeatD)
	m.StageFinished(pipeline.StageGenerating, 120*time.Millisecond)
	m.RunFinished(pipeline.OutcomeOK, 1)
	m.RunFinished(pipeline.OutcomeRejected, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tasks.WithLabelValues("A", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("B", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.beatFailures.WithLabelValues("D")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(pipeline.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(pipeline.OutcomeRejected)))
	// Rejected runs are not observed.
	expected := `
# HELP sopq_pipeline_attempts Repair attempts used per finished run.
# TYPE sopq_pipeline_attempts histogram
sopq_pipeline_attempts_bucket{le="0"} 0
sopq_pipeline_attempts_bucket{le="1"} 1
sopq_pipeline_attempts_bucket{le="2"} 1
sopq_pipeline_attempts_bucket{le="3"} 1
sopq_pipeline_attempts_bucket{le="5"} 1
sopq_pipeline_attempts_bucket{le="+Inf"} 1
sopq_pipeline_attempts_sum 1
sopq_pipeline_attempts_count 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.attempts, strings.NewReader(expected), "sopq_pipeline_attempts"))

	n, err := testutil.GatherAndCount(reg, "sopq_stage_duration_milliseconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMiddleware_Handler(t *testing.T) {
	m := NewMiddleware("test")
	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/runs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/abc", nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("404", http.MethodGet, "/runs/{id}")))
}
