package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TraceIDHeader carries a request's trace identifier in and out of the feed.
const TraceIDHeader = "X-Trace-ID"

// TraceIDField is the structured field holding the trace identifier.
const TraceIDField = "trace_id"

type requestKey struct{}

// requestScope is what the trace middleware attaches to a request context.
type requestScope struct {
	logger  *Logger
	traceID string
}

// LoggerFromContext returns the request scoped logger, or the global logger
// when the context carries none.
func LoggerFromContext(ctx context.Context) *Logger {
	if scope, ok := scopeFrom(ctx); ok && scope.logger != nil {
		return scope.logger
	}
	return L()
}

// TraceIDFromContext returns the request trace identifier, or "".
func TraceIDFromContext(ctx context.Context) string {
	if scope, ok := scopeFrom(ctx); ok {
		return scope.traceID
	}
	return ""
}

func scopeFrom(ctx context.Context) (requestScope, bool) {
	if ctx == nil {
		return requestScope{}, false
	}
	scope, ok := ctx.Value(requestKey{}).(requestScope)
	return scope, ok
}

func newTraceID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(buf[:])
}

// HTTPTraceMiddleware reuses the caller's X-Trace-ID or mints one, echoes it
// on the response and scopes a trace tagged logger to the request.
func HTTPTraceMiddleware(base *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := strings.TrimSpace(r.Header.Get(TraceIDHeader))
			if traceID == "" {
				traceID = newTraceID()
			}
			logger := base.With(String(TraceIDField, traceID))
			ctx := context.WithValue(r.Context(), requestKey{}, requestScope{logger: logger, traceID: traceID})
			w.Header().Set(TraceIDHeader, traceID)
			logger.Debug("request received", String("method", r.Method), String("path", r.URL.Path))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
