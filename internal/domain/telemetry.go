package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Telemetry event names pushed by the camera server.
const (
	EventNetworkStats = "network_stats"
	EventLatencyStats = "latency_stats"
	EventStatsUpdate  = "stats_update"
	EventSystemStats  = "system_stats"
)

// TelemetrySample is one server-pushed measurement. A nil field was absent
// from the payload and must not overwrite what is on screen.
type TelemetrySample struct {
	LatencyMS     *float64
	PacketLossPct *float64
	JitterMS      *float64
	BandwidthMbps *float64
	// FPS overrides the locally sampled frame rate.
	FPS *float64

	Resolution *string
	// ServerFPS is the capture rate the server reports for itself.
	ServerFPS  *float64
	CPUPercent *float64
	MemPercent *float64
}

// Empty reports whether the sample carries nothing displayable.
func (s TelemetrySample) Empty() bool {
	return s.LatencyMS == nil && s.PacketLossPct == nil && s.JitterMS == nil &&
		s.BandwidthMbps == nil && s.FPS == nil && s.Resolution == nil &&
		s.ServerFPS == nil && s.CPUPercent == nil && s.MemPercent == nil
}

type networkStatsPayload struct {
	Latency       *float64 `json:"latency"`
	PacketLoss    *float64 `json:"packetLoss"`
	Jitter        *float64 `json:"jitter"`
	Bandwidth     *float64 `json:"bandwidth"`
	BandwidthKbps *float64 `json:"bandwidth_kbps"`
	FPS           *float64 `json:"fps"`
}

type latencyStatsPayload struct {
	AvgLatencyMS *float64 `json:"avg_latency_ms"`
	JitterMS     *float64 `json:"jitter_ms"`
}

type statsUpdatePayload struct {
	FPS        *float64 `json:"fps"`
	Resolution *string  `json:"resolution"`
}

type systemStatsPayload struct {
	CPUPercent *float64 `json:"cpu_percent"`
	MemPercent *float64 `json:"mem_percent"`
}

// DecodeTelemetryEvent maps a named server event onto a sample. ok is false
// for events that carry no telemetry.
func DecodeTelemetryEvent(event string, raw json.RawMessage) (sample TelemetrySample, ok bool, err error) {
	switch event {
	case EventNetworkStats:
		var p networkStatsPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return TelemetrySample{}, false, fmt.Errorf("decode %s: %w", event, err)
		}
		sample = TelemetrySample{
			LatencyMS:     p.Latency,
			PacketLossPct: p.PacketLoss,
			JitterMS:      p.Jitter,
			BandwidthMbps: p.Bandwidth,
			FPS:           p.FPS,
		}
		if sample.BandwidthMbps == nil && p.BandwidthKbps != nil {
			mbps := *p.BandwidthKbps / 1000
			sample.BandwidthMbps = &mbps
		}
	case EventLatencyStats:
		var p latencyStatsPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return TelemetrySample{}, false, fmt.Errorf("decode %s: %w", event, err)
		}
		sample = TelemetrySample{LatencyMS: p.AvgLatencyMS, JitterMS: p.JitterMS}
	case EventStatsUpdate:
		var p statsUpdatePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return TelemetrySample{}, false, fmt.Errorf("decode %s: %w", event, err)
		}
		sample = TelemetrySample{ServerFPS: p.FPS, Resolution: p.Resolution}
	case EventSystemStats:
		var p systemStatsPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return TelemetrySample{}, false, fmt.Errorf("decode %s: %w", event, err)
		}
		sample = TelemetrySample{CPUPercent: p.CPUPercent, MemPercent: p.MemPercent}
	default:
		return TelemetrySample{}, false, nil
	}

	return sample, !sample.Empty(), nil
}

// FormatNumber renders v the way a browser stringifies a number: shortest
// round-trip decimal, no trailing zeros.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

func FormatMilliseconds(v float64) string { return FormatNumber(v) + " ms" }
func FormatPercent(v float64) string      { return FormatNumber(v) + "%" }
func FormatMbps(v float64) string         { return FormatNumber(v) + " Mbps" }
