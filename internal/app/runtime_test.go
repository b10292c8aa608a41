package app

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/skobkin/camwatch/internal/config"
	"github.com/skobkin/camwatch/internal/connectors"
)

func TestRuntimeRecordsSuccessfulConnectionAndPrefillsNextStart(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	srv := newCameraServer(t)
	paths := newRuntimePaths(t, srv)

	rt, err := InitializeWithPaths(context.Background(), paths)
	if err != nil {
		t.Fatalf("initialize runtime: %v", err)
	}
	if rt.InitialAddress != "" {
		_ = rt.Close()
		t.Fatalf("expected empty initial address on first start, got %q", rt.InitialAddress)
	}

	if err := rt.Controller.Connect(" 127.0.0.1 "); err != nil {
		_ = rt.Close()
		t.Fatalf("connect: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	var recent []string
	for time.Now().Before(deadline) {
		recent, err = rt.RecentAddresses(context.Background())
		if err != nil {
			_ = rt.Close()
			t.Fatalf("recent addresses: %v", err)
		}
		if len(recent) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(recent) != 1 || recent[0] != "127.0.0.1" {
		_ = rt.Close()
		t.Fatalf("expected recorded address, got %v", recent)
	}
	if status, known := rt.CurrentConnStatus(); !known || status.Address != "127.0.0.1" {
		_ = rt.Close()
		t.Fatalf("expected captured status for 127.0.0.1, got %+v (known=%v)", status, known)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close runtime: %v", err)
	}

	rt, err = InitializeWithPaths(context.Background(), paths)
	if err != nil {
		t.Fatalf("reinitialize runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	if rt.InitialAddress != "127.0.0.1" {
		t.Fatalf("expected prefilled address, got %q", rt.InitialAddress)
	}
	if rt.Controller.State() != connectors.ConnectionStateIdle {
		t.Fatalf("startup must not auto-connect, state=%s", rt.Controller.State())
	}

	if err := rt.ClearHistory(context.Background()); err != nil {
		t.Fatalf("clear history: %v", err)
	}
	recent, err = rt.RecentAddresses(context.Background())
	if err != nil {
		t.Fatalf("recent addresses after clear: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected empty history after clear, got %v", recent)
	}
}

func TestInitializeWithPathsRejectsInvalidConfig(t *testing.T) {
	paths, err := PathsIn(t.TempDir())
	if err != nil {
		t.Fatalf("paths: %v", err)
	}
	if err := os.WriteFile(paths.ConfigFile, []byte(`{"connection":{"video_port":70000}}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := InitializeWithPaths(context.Background(), paths); err == nil {
		t.Fatalf("expected invalid config error")
	}
}

func TestRuntimeCloseIsIdempotent(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	paths, err := PathsIn(t.TempDir())
	if err != nil {
		t.Fatalf("paths: %v", err)
	}
	rt, err := InitializeWithPaths(context.Background(), paths)
	if err != nil {
		t.Fatalf("initialize runtime: %v", err)
	}

	if err := rt.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

// newCameraServer serves an endless MJPEG stream at /video_feed on 127.0.0.1.
func newCameraServer(t *testing.T) *httptest.Server {
	t.Helper()

	var frame bytes.Buffer
	if err := jpeg.Encode(&frame, image.NewGray(image.Rect(0, 0, 2, 2)), nil); err != nil {
		t.Fatalf("encode frame: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/video_feed", func(w http.ResponseWriter, r *http.Request) {
		mw := multipart.NewWriter(w)
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mw.Boundary())
		pw, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"image/jpeg"}})
		if err != nil {
			return
		}
		_, _ = pw.Write(frame.Bytes())
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newRuntimePaths(t *testing.T, srv *httptest.Server) Paths {
	t.Helper()

	paths, err := PathsIn(t.TempDir())
	if err != nil {
		t.Fatalf("paths: %v", err)
	}
	_, portText, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split server address: %v", err)
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}

	cfg := config.Default()
	cfg.Connection.VideoPort = port
	cfg.Connection.TelemetryPort = port
	if err := config.Save(paths.ConfigFile, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	return paths
}
