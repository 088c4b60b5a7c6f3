package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New("loud")
	assert.Error(t, err)
}

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
		want   zapcore.Level
	}{
		{"server error", http.MethodPost, "/pipeline/run", http.StatusInternalServerError, zapcore.ErrorLevel},
		{"client error", http.MethodPost, "/pipeline/run", http.StatusBadRequest, zapcore.WarnLevel},
		{"health", http.MethodGet, "/health", http.StatusOK, zapcore.DebugLevel},
		{"ok", http.MethodPost, "/pipeline/run", http.StatusOK, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			h := RequestLogger(zap.New(core), "http")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level)
			assert.Equal(t, int64(tt.status), entries[0].ContextMap()["http_status_code"])
		})
	}
}
