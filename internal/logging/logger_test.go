package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"driftpursuit/arena/internal/config"
	"driftpursuit/arena/internal/ecs"
)

func TestLoggerEmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, InfoLevel).With(String("component", "sim"))

	logger.Debug("hidden")
	logger.Info("vehicle destroyed", Entity(ecs.Entity(7)), Tick(90), FrameTime(1.5), Error(errors.New("boom")))

	//1.- Debug is filtered out, so only one line is written.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), buf.String())
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload["message"] != "vehicle destroyed" || payload["level"] != "info" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["component"] != "sim" || payload["service"] != "arena" {
		t.Fatalf("missing inherited fields %v", payload)
	}
	if payload["entity"] != float64(7) || payload["tick"] != float64(90) || payload["frame_time"] != 1.5 || payload["error"] != "boom" {
		t.Fatalf("unexpected field values %v", payload)
	}
}

func TestParseLevel(t *testing.T) {
	if level, err := parseLevel("WARNING"); err != nil || level != WarnLevel {
		t.Fatalf("unexpected level %v err %v", level, err)
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "arena.log")
	logger, err := New(config.LoggingConfig{Level: "debug", Path: path, MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { ReplaceGlobals(NewTestLogger()) })

	logger.Debug("tick overrun", Int("tick", 3))
	if err := logger.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "tick overrun") {
		t.Fatalf("log file missing entry: %q", data)
	}
	if L() != logger {
		t.Fatalf("New should install the global logger")
	}
}

func TestConsoleSinkSyncToleratesPipes(t *testing.T) {
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() {
		reader.Close()
		writer.Close()
	})

	//1.- A pipe rejects fsync with EINVAL, which must not surface as a logger error.
	previous := stdout
	stdout = func() *os.File { return writer }
	t.Cleanup(func() {
		stdout = previous
		ReplaceGlobals(NewTestLogger())
	})

	logger, err := New(config.LoggingConfig{Level: "info"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("arena ready")
	if err := logger.Sync(); err != nil {
		t.Fatalf("sync over a pipe: %v", err)
	}
	buf := make([]byte, 256)
	n, err := reader.Read(buf)
	if err != nil || !strings.Contains(string(buf[:n]), "arena ready") {
		t.Fatalf("console line missing: %q err %v", buf[:n], err)
	}
}

func TestRotatingWriterRotatesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.log")
	w, err := newRotatingWriter(config.LoggingConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1, Compress: true})
	if err != nil {
		t.Fatalf("newRotatingWriter: %v", err)
	}
	w.maxSize = 16
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	w.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	//1.- Each 12 byte line overflows the 16 byte cap once the file holds one line.
	for i := 0; i < 3; i++ {
		if _, err := w.Write([]byte("line-number\n")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	backups := w.backups()
	if len(backups) != 1 {
		t.Fatalf("expected one retained backup, got %v", backups)
	}
	if !strings.HasSuffix(backups[0].path, ".gz") {
		t.Fatalf("expected compressed backup, got %s", backups[0].path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "line-number\n" {
		t.Fatalf("active file should hold the last line, got %q err %v", data, err)
	}
}

func TestNewRejectsInvalidRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.log")
	if _, err := New(config.LoggingConfig{Level: "info", Path: path, MaxSizeMB: 0}); err == nil {
		t.Fatalf("expected error for zero max size")
	}
}

func TestHTTPTraceMiddlewarePropagatesTraceID(t *testing.T) {
	var seen string
	handler := HTTPTraceMiddleware(NewTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set(TraceIDHeader, "abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "abc123" || rec.Header().Get(TraceIDHeader) != "abc123" {
		t.Fatalf("trace id not propagated: ctx=%q header=%q", seen, rec.Header().Get(TraceIDHeader))
	}
}

func TestHTTPTraceMiddlewareMintsTraceID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	handler := HTTPTraceMiddleware(NewWithWriter(&buf, DebugLevel))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
		LoggerFromContext(r.Context()).Info("viewer joined")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	if len(seen) != 32 || rec.Header().Get(TraceIDHeader) != seen {
		t.Fatalf("expected minted 32 char trace id echoed on response, ctx=%q header=%q", seen, rec.Header().Get(TraceIDHeader))
	}
	//1.- Both the middleware line and the handler line carry the trace id.
	if got := strings.Count(buf.String(), `"trace_id":"`+seen+`"`); got != 2 {
		t.Fatalf("expected 2 trace tagged lines, got %d: %s", got, buf.String())
	}
}

func TestContextWithoutScopeFallsBackToGlobal(t *testing.T) {
	if TraceIDFromContext(context.Background()) != "" {
		t.Fatalf("expected empty trace id")
	}
	if LoggerFromContext(context.Background()) != L() {
		t.Fatalf("expected global logger")
	}
}
