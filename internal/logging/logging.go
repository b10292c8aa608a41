package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/skobkin/camwatch/internal/config"
)

// Manager owns the process logger: its level, its handler and the optional log file.
type Manager struct {
	mu     sync.RWMutex
	level  slog.LevelVar
	logger *slog.Logger
	file   *os.File
	stdout io.Writer
}

func NewManager() *Manager {
	m := &Manager{stdout: os.Stdout}
	m.level.Set(slog.LevelInfo)
	m.logger = slog.New(slog.NewTextHandler(m.stdout, &slog.HandlerOptions{Level: &m.level}))

	return m
}

// Configure applies cfg. When LogToFile is set, records go both to stdout and
// to filePath; a failing stdout never starves the file.
func (m *Manager) Configure(cfg config.LoggingConfig, filePath string) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file != nil {
		_ = m.file.Close()
		m.file = nil
	}

	writer := m.stdout
	if cfg.LogToFile {
		cleanPath := filepath.Clean(filePath)
		// #nosec G304 -- path is resolved by app runtime and points to user config dir.
		file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		m.file = file
		writer = newTeeWriter(m.stdout, file)
	}

	m.level.Set(level)
	m.logger = slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: &m.level}))
	slog.SetDefault(m.logger)

	return nil
}

func (m *Manager) Logger(component string) *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.logger.With("component", component)
}

func (m *Manager) Level() slog.Level {
	return m.level.Level()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	return nil
}

// ParseLevel maps a config level name onto a slog level. Empty means info.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %q", raw)
	}
}

// teeWriter writes to every destination and succeeds if at least one accepted the full record.
type teeWriter struct {
	writers []io.Writer
}

func newTeeWriter(writers ...io.Writer) io.Writer {
	filtered := make([]io.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			filtered = append(filtered, w)
		}
	}

	return &teeWriter{writers: filtered}
}

func (w *teeWriter) Write(p []byte) (int, error) {
	var (
		delivered bool
		firstErr  error
	)

	for _, dst := range w.writers {
		n, err := dst.Write(p)
		switch {
		case err != nil:
			if firstErr == nil {
				firstErr = err
			}
		case n != len(p):
			if firstErr == nil {
				firstErr = io.ErrShortWrite
			}
		default:
			delivered = true
		}
	}

	if delivered || firstErr == nil {
		return len(p), nil
	}

	return 0, firstErr
}
