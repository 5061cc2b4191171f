package core

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger provides structured logging scoped per feature
type Logger struct {
	*slog.Logger
	features map[string]*slog.Logger
	mu       *sync.Mutex
}

// NewLoggerWithLevel creates a logger writing to w at the named level
// (debug, info, warn, error). Unknown names fall back to info.
func NewLoggerWithLevel(w io.Writer, level string) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	return &Logger{
		Logger:   slog.New(handler),
		features: make(map[string]*slog.Logger),
		mu:       &sync.Mutex{},
	}
}

// ParseLevel maps a level name to a slog level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ForFeature returns a logger specific to a feature
func (l *Logger) ForFeature(featureName string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	featureLogger, exists := l.features[featureName]
	if !exists {
		featureLogger = l.Logger.With("feature", featureName)
		l.features[featureName] = featureLogger
	}

	return &Logger{
		Logger:   featureLogger,
		features: l.features,
		mu:       l.mu,
	}
}

// WithContext returns a logger carrying the chi request ID, if any
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	if requestID := middleware.GetReqID(ctx); requestID != "" {
		return &Logger{
			Logger:   l.Logger.With("request_id", requestID),
			features: l.features,
			mu:       l.mu,
		}
	}

	return l
}

// WithUser returns a logger with user context
func (l *Logger) WithUser(userID int, email string) *Logger {
	return &Logger{
		Logger:   l.Logger.With("user_id", userID, "user_email", email),
		features: l.features,
		mu:       l.mu,
	}
}

// LogFeatureError logs a feature-specific error
func (l *Logger) LogFeatureError(featureName, message string, err error, attrs ...any) {
	featureLogger := l.ForFeature(featureName)
	allAttrs := append([]any{"error", err}, attrs...)
	featureLogger.Error(message, allAttrs...)
}
