package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzip"

	"driftpursuit/arena/internal/config"
)

// sink is a line destination that can be flushed to stable storage.
type sink interface {
	io.Writer
	Sync() error
}

var stdout = func() *os.File { return os.Stdout }

// consoleSink writes to a terminal, pipe or container log stream. Those
// descriptors usually reject fsync, which is not a logging failure.
type consoleSink struct {
	w *os.File
}

func (c consoleSink) Write(p []byte) (int, error) { return c.w.Write(p) }

func (c consoleSink) Sync() error {
	err := c.w.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTSUP) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

// multiSink fans a line out to every sink and reports the first failure.
type multiSink []sink

func (m multiSink) Write(p []byte) (int, error) {
	var firstErr error
	for _, s := range m {
		if _, err := s.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return 0, firstErr
	}
	return len(p), nil
}

func (m multiSink) Sync() error {
	var firstErr error
	for _, s := range m {
		if err := s.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// plainSink adapts a writer that has nothing to flush.
type plainSink struct{ io.Writer }

func (plainSink) Sync() error { return nil }

type discardSink struct{}

func (discardSink) Write(p []byte) (int, error) { return len(p), nil }

func (discardSink) Sync() error { return nil }

// rotatingWriter appends to one log file and moves it aside once it would
// exceed maxSize. Rotated files are named <path>.<utc stamp>[.gz].
type rotatingWriter struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	maxAge     time.Duration
	compress   bool
	file       *os.File
	size       int64
	now        func() time.Time
}

func newRotatingWriter(cfg config.LoggingConfig) (*rotatingWriter, error) {
	var problems []string
	if cfg.MaxSizeMB <= 0 {
		problems = append(problems, "ARENA_LOG_MAX_SIZE_MB must be positive")
	}
	if cfg.MaxBackups < 0 {
		problems = append(problems, "ARENA_LOG_MAX_BACKUPS must be non-negative")
	}
	if cfg.MaxAgeDays < 0 {
		problems = append(problems, "ARENA_LOG_MAX_AGE_DAYS must be non-negative")
	}
	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	w := &rotatingWriter{
		path:       cfg.Path,
		maxSize:    int64(cfg.MaxSizeMB) << 20,
		maxBackups: cfg.MaxBackups,
		maxAge:     time.Duration(cfg.MaxAgeDays) * 24 * time.Hour,
		compress:   cfg.Compress,
		now:        time.Now,
	}
	if err := w.openLocked(os.O_APPEND); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *rotatingWriter) openLocked(mode int) error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|mode, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return err
	}
	w.file, w.size = file, info.Size()
	return nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	//1.- An empty file always takes the line so oversized entries cannot spin rotation.
	if w.size > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *rotatingWriter) rotateLocked() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	rotated := w.path + "." + w.now().UTC().Format("20060102T150405.000")
	if err := os.Rename(w.path, rotated); err != nil {
		return err
	}
	//2.- A failed compression keeps the plain rotated file.
	if w.compress {
		if err := compressFile(rotated, rotated+".gz"); err == nil {
			_ = os.Remove(rotated)
		}
	}
	w.pruneLocked()
	return w.openLocked(os.O_TRUNC)
}

// pruneLocked drops rotated files beyond the backup count and past the age limit.
func (w *rotatingWriter) pruneLocked() {
	backups := w.backups()
	cutoff := w.now().Add(-w.maxAge)
	for i, backup := range backups {
		overCount := w.maxBackups > 0 && i >= w.maxBackups
		tooOld := w.maxAge > 0 && backup.mod.Before(cutoff)
		if overCount || tooOld {
			_ = os.Remove(backup.path)
		}
	}
}

type backupFile struct {
	path string
	mod  time.Time
}

// backups lists rotated files newest first.
func (w *rotatingWriter) backups() []backupFile {
	dir := filepath.Dir(w.path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	prefix := filepath.Base(w.path) + "."
	var out []backupFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, backupFile{path: filepath.Join(dir, entry.Name()), mod: info.ModTime()})
	}
	slices.SortFunc(out, func(a, b backupFile) int { return b.mod.Compare(a.mod) })
	return out
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		out.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
