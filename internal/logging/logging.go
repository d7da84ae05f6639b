// Package logging provides structured logging with request-scoped context.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	// TraceIDKey carries the per-request trace ID.
	TraceIDKey contextKey = "trace_id"
	// UserIDKey carries the authenticated user ID.
	UserIDKey contextKey = "user_id"
)

// Logger wraps logrus with service metadata and context helpers.
type Logger struct {
	entry *logrus.Entry
}

// New creates a logger for the named service. Level is one of
// debug|info|warn|error; format is json or text.
func New(service, level, format string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	base.SetLevel(parsed)

	if strings.EqualFold(format, "text") {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}

	return &Logger{entry: base.WithField("service", service)}
}

// NewDefault creates an info-level JSON logger.
func NewDefault(service string) *Logger {
	return New(service, "info", "json")
}

// WithContext returns an entry annotated with trace and user IDs from ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.entry
	if traceID := GetTraceID(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	if userID := GetUserID(ctx); userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	return entry
}

// WithError returns an entry annotated with err.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.entry.WithError(err)
}

// WithFields returns an entry annotated with the given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.entry.WithFields(fields)
}

func (l *Logger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *Logger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...interface{}) { l.entry.Error(args...) }
func (l *Logger) Fatal(args ...interface{}) { l.entry.Fatal(args...) }

// LogRequest records a completed HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": float64(duration.Microseconds()) / 1000.0,
	}).Info("request completed")
}

// LogSecurityEvent records an auth or abuse related event.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, fields map[string]interface{}) {
	l.WithContext(ctx).WithField("event", event).WithFields(fields).Warn("security event")
}

// NewTraceID generates a fresh trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID attaches a trace ID to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID extracts the trace ID from ctx.
func GetTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(TraceIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID attaches the authenticated user ID to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the authenticated user ID from ctx.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}
