package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// ContextWithRequestID stores the request id used by WithContext.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithUserID stores the authenticated user id used by WithContext.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequestIDFromContext returns the request id, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Logger wraps logrus.Logger with laboratory-specific helpers
type Logger struct {
	*logrus.Logger
}

// New creates a new logger instance writing JSON to stdout
func New(level string) *Logger {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput creates a logger writing to w
func NewWithOutput(level string, w io.Writer) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(w)

	return &Logger{Logger: log}
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *Logger {
	return NewWithOutput("panic", io.Discard)
}

// WithComponent creates a new logger entry with component name field
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithContext creates an entry carrying request and user ids from ctx
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(l.Logger)
	if ctx == nil {
		return entry
	}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	if userID, ok := ctx.Value(userIDKey).(string); ok && userID != "" {
		entry = entry.WithField("user_id", userID)
	}

	return entry
}

// Audit logs audit events with structured format
func (l *Logger) Audit(ctx context.Context, actorID, action, entity, entityID string, details map[string]interface{}) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"audit":     true,
		"actor_id":  actorID,
		"action":    action,
		"entity":    entity,
		"entity_id": entityID,
		"details":   details,
	}).Info("Audit event")
}

// HTTPRequest logs HTTP request events
func (l *Logger) HTTPRequest(ctx context.Context, method, path, userAgent, clientIP string, statusCode int, durationMs int64) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"http_request": true,
		"method":       method,
		"path":         path,
		"user_agent":   userAgent,
		"client_ip":    clientIP,
		"status_code":  statusCode,
		"duration_ms":  durationMs,
	})

	switch {
	case statusCode >= 500:
		entry.Error("HTTP request failed")
	case statusCode >= 400:
		entry.Warn("HTTP request completed with error")
	default:
		entry.Info("HTTP request completed")
	}
}

// DatabaseOperation logs a failed or slow database operation
func (l *Logger) DatabaseOperation(ctx context.Context, operation, table string, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"database":  true,
		"operation": operation,
		"table":     table,
	})

	if err != nil {
		entry.WithError(err).Error("Database operation failed")
		return
	}
	entry.Debug("Database operation completed")
}

// ExternalSync logs the outcome of a document-store mirror write
func (l *Logger) ExternalSync(collection, docID string, attempt int, err error) {
	entry := l.Logger.WithFields(logrus.Fields{
		"external_sync": true,
		"collection":    collection,
		"doc_id":        docID,
		"attempt":       attempt,
	})

	if err != nil {
		entry.WithError(err).Warn("Document store write failed")
		return
	}
	entry.Debug("Document store write completed")
}
