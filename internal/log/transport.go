package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ContextKey type for context keys
type ContextKey string

// LoggerContextKey is the context key for the logger
const LoggerContextKey ContextKey = "logger"

// RequestIDHeader carries the per-call correlation id on outbound requests
const RequestIDHeader = "X-Request-ID"

// NewContext returns a context carrying logger
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Transport is an http.RoundTripper that logs every outbound call
type Transport struct {
	base   http.RoundTripper
	logger *Logger
}

// NewTransport wraps base (http.DefaultTransport when nil) with request logging
func NewTransport(base http.RoundTripper, logger *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, logger: OrDiscard(logger).WithComponent(ComponentHTTP)}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := r.Context()
	requestID := r.Header.Get(RequestIDHeader)

	t.logger.DebugContext(ctx, "HTTP request started",
		NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
			WithRequestID(requestID).
			ToSlice()...)

	resp, err := t.base.RoundTrip(r)
	duration := time.Since(start)

	if err != nil {
		t.logger.WarnContext(ctx, "HTTP request failed without response",
			NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
				WithRequestID(requestID).
				WithError(err).
				ToSlice()...)
		return nil, err
	}

	level := slog.LevelInfo
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		level = slog.LevelWarn
	} else if resp.StatusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
		WithRequestID(requestID).
		WithHTTPResponse(resp.StatusCode, duration.Milliseconds(), resp.StatusCode < 400)
	fields[FieldDurationHuman] = duration.String()

	t.logger.LogContext(ctx, level, "HTTP request completed", fields.ToSlice()...)
	return resp, nil
}
