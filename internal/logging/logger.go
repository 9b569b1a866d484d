// Package logging is the host's structured JSON logger: leveled entries with
// typed fields, a process wide fallback logger and request trace propagation.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"driftpursuit/arena/internal/config"
	"driftpursuit/arena/internal/ecs"
)

// Level represents log verbosity ordering.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "info"
	}
}

func parseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}

// Field is a structured logging attribute.
type Field struct {
	Key   string
	Value any
}

// String returns a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int returns an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 returns an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Duration returns a duration field rendered as a string.
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value.String()} }

// Entity tags a line with the entity it is about.
func Entity(e ecs.Entity) Field { return Field{Key: "entity", Value: uint64(e)} }

// Tick tags a line with a simulation tick number.
func Tick(tick uint64) Field { return Field{Key: "tick", Value: tick} }

// FrameTime tags a line with the simulation clock in seconds.
func FrameTime(seconds float64) Field { return Field{Key: "frame_time", Value: seconds} }

// Error returns an error field.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger emits one JSON object per line with its inherited fields merged in.
type Logger struct {
	mu     *sync.Mutex
	level  Level
	sink   sink
	fields map[string]any
}

var (
	globalMu     sync.RWMutex
	globalLogger = NewTestLogger()
)

// New builds the host logger from cfg and installs it as the global logger.
// Lines go to stdout and, when a path is set, to a size rotated file.
func New(cfg config.LoggingConfig) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	sinks := multiSink{consoleSink{w: stdout()}}
	//1.- The file sink is optional; containers usually only collect stdout.
	if strings.TrimSpace(cfg.Path) != "" {
		file, err := newRotatingWriter(cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(multiSink{file}, sinks...)
	}
	logger := newLogger(level, sinks)
	ReplaceGlobals(logger)
	return logger, nil
}

// NewWithWriter builds a logger emitting to w at the given level without
// touching the global logger.
func NewWithWriter(w io.Writer, level Level) *Logger {
	if w == nil {
		return newLogger(level, discardSink{})
	}
	return newLogger(level, plainSink{w})
}

// NewTestLogger returns a logger that discards output.
func NewTestLogger() *Logger {
	return &Logger{mu: &sync.Mutex{}, level: DebugLevel, sink: discardSink{}, fields: map[string]any{}}
}

func newLogger(level Level, s sink) *Logger {
	return &Logger{mu: &sync.Mutex{}, level: level, sink: s, fields: map[string]any{"service": "arena"}}
}

// ReplaceGlobals swaps the fallback logger used when no logger is wired in.
func ReplaceGlobals(logger *Logger) {
	if logger == nil {
		return
	}
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// L returns the current global logger.
func L() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// With returns a child logger carrying extra fields. Children share the
// parent's sink and lock so lines never interleave.
func (l *Logger) With(fields ...Field) *Logger {
	if l == nil {
		return L().With(fields...)
	}
	clone := &Logger{mu: l.mu, level: l.level, sink: l.sink, fields: make(map[string]any, len(l.fields)+len(fields))}
	for k, v := range l.fields {
		clone.fields[k] = v
	}
	for _, field := range fields {
		clone.fields[field.Key] = field.Value
	}
	return clone
}

// Sync flushes the file sink. Consoles and pipes that cannot be synced are skipped.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sink.Sync()
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields ...Field) { l.log(DebugLevel, message, fields) }

// Info logs an informational message.
func (l *Logger) Info(message string, fields ...Field) { l.log(InfoLevel, message, fields) }

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields ...Field) { l.log(WarnLevel, message, fields) }

// Error logs an error message.
func (l *Logger) Error(message string, fields ...Field) { l.log(ErrorLevel, message, fields) }

func (l *Logger) log(level Level, message string, fields []Field) {
	if l == nil {
		L().log(level, message, fields)
		return
	}
	if level < l.level {
		return
	}
	payload := make(map[string]any, len(l.fields)+len(fields)+3)
	for k, v := range l.fields {
		payload[k] = v
	}
	payload["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	payload["level"] = level.String()
	payload["message"] = message
	for _, field := range fields {
		payload[field.Key] = field.Value
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.sink.Write(append(data, '\n'))
}
