package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/skobkin/camwatch/internal/config"
)

func TestTeeWriter_ContinuesWhenOneDestinationFails(t *testing.T) {
	var dst bytes.Buffer
	w := newTeeWriter(errorWriter{err: errors.New("broken stdout")}, &dst)

	n, err := w.Write([]byte("frame"))
	if err != nil {
		t.Fatalf("write returned error: %v", err)
	}
	if n != len("frame") {
		t.Fatalf("unexpected bytes written: got %d, want %d", n, len("frame"))
	}
	if got := dst.String(); got != "frame" {
		t.Fatalf("unexpected destination contents: got %q", got)
	}
}

func TestTeeWriter_ReportsErrorWhenAllDestinationsFail(t *testing.T) {
	want := errors.New("gone")
	w := newTeeWriter(errorWriter{err: want}, nil)

	if _, err := w.Write([]byte("x")); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    slog.Level
		wantErr bool
	}{
		{raw: "debug", want: slog.LevelDebug},
		{raw: "", want: slog.LevelInfo},
		{raw: " INFO ", want: slog.LevelInfo},
		{raw: "warning", want: slog.LevelWarn},
		{raw: "error", want: slog.LevelError},
		{raw: "verbose", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseLevel(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.raw)
			}

			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.raw, tc.want, got)
		}
	}
}

func TestManagerConfigure_RejectsUnknownLevel(t *testing.T) {
	m := NewManager()
	t.Cleanup(func() { _ = m.Close() })

	if err := m.Configure(config.LoggingConfig{Level: "loud"}, ""); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if m.Level() != slog.LevelInfo {
		t.Fatalf("expected level to remain info, got %v", m.Level())
	}
}

func TestManagerConfigure_LogFileStillReceivesLogsWhenStdoutFails(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	brokenStdout, err := os.CreateTemp(t.TempDir(), "broken-stdout-*")
	if err != nil {
		t.Fatalf("create broken stdout: %v", err)
	}
	if err := brokenStdout.Close(); err != nil {
		t.Fatalf("close broken stdout: %v", err)
	}

	logPath := filepath.Join(t.TempDir(), "camwatch.log")
	m := NewManager()
	m.stdout = brokenStdout
	t.Cleanup(func() { _ = m.Close() })

	if err := m.Configure(config.LoggingConfig{Level: "debug", LogToFile: true}, logPath); err != nil {
		t.Fatalf("configure manager: %v", err)
	}
	if m.Level() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", m.Level())
	}

	m.Logger("test").Debug("file must receive this message")

	if err := m.Close(); err != nil {
		t.Fatalf("close manager: %v", err)
	}

	cleanLogPath := filepath.Clean(logPath)
	// #nosec G304 -- logPath is created from t.TempDir() in this test.
	raw, err := os.ReadFile(cleanLogPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !bytes.Contains(raw, []byte("file must receive this message")) {
		t.Fatalf("log file does not contain test message, contents: %q", string(raw))
	}
	if !bytes.Contains(raw, []byte("component=test")) {
		t.Fatalf("log file does not contain component attribute, contents: %q", string(raw))
	}
}

type errorWriter struct {
	err error
}

func (w errorWriter) Write(_ []byte) (int, error) {
	return 0, w.err
}
