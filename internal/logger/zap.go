package logger

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger wraps zap.Logger to provide our logging interface
type ZapLogger struct {
	*zap.Logger
}

func newZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{Logger: l}
}

// NewZapLogger creates a new ZapLogger with the specified configuration
func NewZapLogger(level Level, development bool) (*ZapLogger, error) {
	var config zap.Config

	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		config.DisableStacktrace = true
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	switch level {
	case DebugLevel:
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case InfoLevel:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case WarnLevel:
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case ErrorLevel:
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	logger, err := config.Build(zap.AddCallerSkip(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	return newZapLogger(logger), nil
}

// NewZapLoggerFromConfig builds a zap backend from a logger Config
func NewZapLoggerFromConfig(cfg *Config) (*ZapLogger, error) {
	logger, err := NewZapLogger(cfg.Level, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}

	if cfg.Caller {
		logger = newZapLogger(logger.WithOptions(zap.AddCaller()))
	}

	if cfg.Stacktrace != "" {
		var zapLevel zapcore.Level
		switch cfg.Stacktrace {
		case "error":
			zapLevel = zap.ErrorLevel
		case "panic":
			zapLevel = zap.PanicLevel
		default:
			zapLevel = zap.FatalLevel
		}
		logger = newZapLogger(logger.WithOptions(zap.AddStacktrace(zapLevel)))
	}

	return logger, nil
}

// NewZapLoggerFromEnv creates a logger configured from environment variables
func NewZapLoggerFromEnv() (*ZapLogger, error) {
	return NewZapLoggerFromConfig(ConfigFromEnv())
}

func (l *ZapLogger) with(fields ...zap.Field) *ZapLogger {
	return newZapLogger(l.Logger.With(fields...))
}

// WithHTTPRequest adds HTTP request context to the logger
func (l *ZapLogger) WithHTTPRequest(r *http.Request) *ZapLogger {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if r.URL.RawQuery != "" {
		fields = append(fields, zap.String("query", r.URL.RawQuery))
	}
	return l.with(fields...)
}

// WithRun adds thread and run context to the logger
func (l *ZapLogger) WithRun(threadID, runID string) *ZapLogger {
	return l.with(
		zap.String("thread_id", threadID),
		zap.String("run_id", runID),
	)
}

// WithDuration adds a duration field to the logger
func (l *ZapLogger) WithDuration(duration time.Duration) *ZapLogger {
	return l.with(
		zap.Duration("duration", duration),
		zap.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	)
}

// WithError adds error context to the logger
func (l *ZapLogger) WithError(err error) *ZapLogger {
	if err == nil {
		return l
	}
	return l.with(
		zap.Error(err),
		zap.String("error_type", fmt.Sprintf("%T", err)),
	)
}

// WithFields adds multiple fields to the logger context
func (l *ZapLogger) WithFields(fields map[string]interface{}) *Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return &Logger{zap: l.with(zapFields...)}
}

// Timed creates a timed logger for measuring operation duration
func (l *ZapLogger) Timed(operation string) *TimedLogger {
	l.Logger.Debug("Operation started", zap.String("operation", operation))
	return &TimedLogger{
		logger: l,
		start:  time.Now(),
		op:     operation,
	}
}

// TimedLogger tracks the duration of an operation
type TimedLogger struct {
	logger *ZapLogger
	start  time.Time
	op     string
}

// Done logs the completion of the timed operation
func (t *TimedLogger) Done() {
	if t == nil {
		return
	}
	duration := time.Since(t.start)
	t.logger.Logger.Debug("Operation completed",
		zap.String("operation", t.op),
		zap.Duration("duration", duration),
	)
}

// DoneWithError logs the completion of the timed operation with an error
func (t *TimedLogger) DoneWithError(err error) {
	if t == nil {
		return
	}
	if err == nil {
		t.Done()
		return
	}
	duration := time.Since(t.start)
	t.logger.Logger.Error("Operation failed",
		zap.String("operation", t.op),
		zap.Error(err),
		zap.Duration("duration", duration),
	)
}

// at logs msg at level. Callers are reported three frames up, past the
// Logger wrapper methods.
func (l *ZapLogger) at(level Level, msg string) {
	switch level {
	case DebugLevel:
		l.Logger.Debug(msg)
	case InfoLevel:
		l.Logger.Info(msg)
	case WarnLevel:
		l.Logger.Warn(msg)
	default:
		l.Logger.Error(msg)
	}
}

// Sync flushes any buffered log entries
func (l *ZapLogger) Sync() error {
	return l.Logger.Sync()
}

// Timed starts a timed operation on the global logger. Without a zap backend
// the returned TimedLogger is nil and its methods are no-ops.
func Timed(operation string) *TimedLogger {
	l := GetLogger()
	if l.zap == nil {
		return nil
	}
	return l.zap.Timed(operation)
}
