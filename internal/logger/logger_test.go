package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(level)
	l.SetOutput(&buf)
	return l, &buf
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		log     func(l *Logger)
		want    string
		visible bool
	}{
		{"debug at debug", DebugLevel, func(l *Logger) { l.Debug("polling") }, "[DEBUG] polling", true},
		{"debug at info", InfoLevel, func(l *Logger) { l.Debug("polling") }, "", false},
		{"info at info", InfoLevel, func(l *Logger) { l.Infof("run %s", "run_1") }, "[INFO] run run_1", true},
		{"warn at warn", WarnLevel, func(l *Logger) { l.Warn("unknown tool") }, "[WARN] unknown tool", true},
		{"info at warn", WarnLevel, func(l *Logger) { l.Info("hidden") }, "", false},
		{"warn at error", ErrorLevel, func(l *Logger) { l.Warnf("%d calls", 2) }, "", false},
		{"error at error", ErrorLevel, func(l *Logger) { l.Errorf("status %d", 500) }, "[ERROR] status 500", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newBufferLogger(tt.level)
			tt.log(l)

			if !tt.visible {
				assert.Empty(t, buf.String())
				return
			}
			out := buf.String()
			assert.Contains(t, out, time.Now().Format("2006-01-02"))
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestLoggerWithFieldsIsSortedAndIsolated(t *testing.T) {
	l, buf := newBufferLogger(DebugLevel)

	child := l.WithFields(map[string]interface{}{
		"thread_id": "thread_1",
		"run_id":    "run_1",
	}).WithField("status", "queued")
	child.Debug("Run status updated")

	out := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(out, "run_id=run_1 status=queued thread_id=thread_1"), out)

	buf.Reset()
	l.Debug("parent")
	assert.NotContains(t, buf.String(), "thread_id")
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"invalid", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevelFromString(tt.input))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("WAITLIST_LOG_LEVEL", "")
		t.Setenv("WAITLIST_VERBOSITY", "")
		t.Setenv("WAITLIST_LOG_FORMAT", "")

		cfg := ConfigFromEnv()
		assert.Equal(t, InfoLevel, cfg.Level)
		assert.True(t, cfg.IsDevelopment())
		assert.False(t, cfg.Caller)
	})

	t.Run("verbosity debug lowers level", func(t *testing.T) {
		t.Setenv("WAITLIST_LOG_LEVEL", "")
		t.Setenv("WAITLIST_VERBOSITY", "debug")

		assert.Equal(t, DebugLevel, ConfigFromEnv().Level)
	})

	t.Run("explicit level wins", func(t *testing.T) {
		t.Setenv("WAITLIST_LOG_LEVEL", "error")
		t.Setenv("WAITLIST_VERBOSITY", "debug")
		t.Setenv("WAITLIST_LOG_FORMAT", "JSON")
		t.Setenv("WAITLIST_LOG_CALLER", "true")

		cfg := ConfigFromEnv()
		assert.Equal(t, ErrorLevel, cfg.Level)
		assert.False(t, cfg.IsDevelopment())
		assert.True(t, cfg.Caller)
	})
}

func TestNewZapLoggerFromConfig(t *testing.T) {
	zl, err := NewZapLoggerFromConfig(&Config{Level: DebugLevel, Format: "json", Stacktrace: "error"})
	require.NoError(t, err)
	require.NotNil(t, zl)

	l := &Logger{zap: zl}
	assert.NotPanics(t, func() {
		l.WithField("run_id", "run_1").Debug("zap backed")
		zl.WithRun("thread_1", "run_1").WithError(assert.AnError).Warn("with error")
		zl.Timed("create_run").DoneWithError(nil)
	})
}

func TestTimedWithoutZapIsNoop(t *testing.T) {
	previous := GetLogger()
	t.Cleanup(func() { SetLogger(previous) })

	SetLogger(NewTestLogger())
	timed := Timed("poll")
	assert.Nil(t, timed)
	assert.NotPanics(t, func() { timed.DoneWithError(assert.AnError) })
}

func TestHTTPMiddlewareLogsStatus(t *testing.T) {
	l, buf := newBufferLogger(DebugLevel)

	handler := HTTPMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/threads/missing/messages", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "Request received")
	assert.Contains(t, out, "[WARN] Request failed with client error")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "request_id=req-1")
}
