package domain

import (
	"encoding/json"
	"testing"

	"github.com/skobkin/camwatch/internal/connectors"
)

func ptr[T any](v T) *T { return &v }

func TestNewDashboardPlaceholders(t *testing.T) {
	d := NewDashboard()

	if d.State != connectors.ConnectionStateIdle {
		t.Fatalf("expected idle state, got %q", d.State)
	}
	for name, v := range map[string]string{
		"address":    d.Address,
		"port":       d.Port,
		"latency":    d.Latency,
		"packetLoss": d.PacketLoss,
		"jitter":     d.Jitter,
		"throughput": d.Throughput,
		"frameRate":  d.FrameRate,
		"resolution": d.Resolution,
	} {
		if v != Placeholder {
			t.Fatalf("%s: expected placeholder, got %q", name, v)
		}
	}
	if !d.ConnectEnabled || !d.ConnectVisible || d.DisconnectVisible {
		t.Fatalf("unexpected control layout: %+v", d)
	}
}

func TestApplySampleFormatsUnits(t *testing.T) {
	d := NewDashboard()
	d.ApplySample(TelemetrySample{
		LatencyMS:     ptr(12.0),
		PacketLossPct: ptr(0.5),
		JitterMS:      ptr(3.0),
		BandwidthMbps: ptr(8.2),
		FPS:           ptr(30.0),
	})

	if d.Latency != "12 ms" {
		t.Fatalf("unexpected latency %q", d.Latency)
	}
	if d.PacketLoss != "0.5%" {
		t.Fatalf("unexpected packet loss %q", d.PacketLoss)
	}
	if d.Jitter != "3 ms" {
		t.Fatalf("unexpected jitter %q", d.Jitter)
	}
	if d.Throughput != "8.2 Mbps" {
		t.Fatalf("unexpected throughput %q", d.Throughput)
	}
	if d.FrameRate != "30" {
		t.Fatalf("unexpected frame rate %q", d.FrameRate)
	}
	if d.Quality != LinkGood {
		t.Fatalf("expected good link quality, got %s", d.Quality)
	}
}

func TestApplySampleWithoutFPSKeepsLocalFrameRate(t *testing.T) {
	d := NewDashboard()
	d.SetFrameRate(24)
	d.ApplySample(TelemetrySample{LatencyMS: ptr(80.0)})

	if d.FrameRate != "24" {
		t.Fatalf("expected local frame rate to survive, got %q", d.FrameRate)
	}
	if d.Latency != "80 ms" {
		t.Fatalf("unexpected latency %q", d.Latency)
	}
	if d.Quality != LinkUnknown {
		t.Fatalf("expected unknown quality without packet loss, got %s", d.Quality)
	}
}

func TestServerFrameRateDoesNotTouchLocalFrameRate(t *testing.T) {
	d := NewDashboard()
	d.SetFrameRate(24)
	raw := json.RawMessage(`{"fps":29.5,"resolution":"1280x720"}`)
	sample, ok, err := DecodeTelemetryEvent(EventStatsUpdate, raw)
	if err != nil || !ok {
		t.Fatalf("decode stats_update: ok=%v err=%v", ok, err)
	}
	d.ApplySample(sample)

	if d.FrameRate != "24" {
		t.Fatalf("expected local frame rate to survive, got %q", d.FrameRate)
	}
	if d.ServerFrameRate != "29.5" || d.Resolution != "1280x720" {
		t.Fatalf("unexpected server panel %q %q", d.ServerFrameRate, d.Resolution)
	}

	d.ApplySample(TelemetrySample{FPS: ptr(12.0)})
	if d.FrameRate != "12" || d.ServerFrameRate != "29.5" {
		t.Fatalf("network fps must override only the local rate, got %q %q", d.FrameRate, d.ServerFrameRate)
	}

	d.ResetTelemetry()
	if d.ServerFrameRate != Placeholder {
		t.Fatalf("expected placeholder after reset, got %q", d.ServerFrameRate)
	}
}

func TestResetTelemetry(t *testing.T) {
	d := NewDashboard()
	d.SetEndpoint("10.0.0.1", 5000)
	d.ApplySample(TelemetrySample{LatencyMS: ptr(1.0), PacketLossPct: ptr(0.0), Resolution: ptr("640x480")})
	d.ResetTelemetry()

	if d.Address != Placeholder || d.Port != Placeholder || d.Latency != Placeholder || d.Resolution != Placeholder {
		t.Fatalf("expected placeholders after reset, got %+v", d)
	}
	if d.Quality != LinkUnknown {
		t.Fatalf("expected unknown quality after reset, got %s", d.Quality)
	}
}

func TestControlLayouts(t *testing.T) {
	d := NewDashboard()
	d.ConnectEnabled = false
	d.ShowDisconnect()
	if d.ConnectVisible || !d.DisconnectVisible {
		t.Fatalf("expected disconnect layout, got %+v", d)
	}
	d.ShowConnect()
	if !d.ConnectEnabled || !d.ConnectVisible || d.DisconnectVisible {
		t.Fatalf("expected connect layout, got %+v", d)
	}
}
