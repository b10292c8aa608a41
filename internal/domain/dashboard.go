package domain

import (
	"strconv"

	"github.com/skobkin/camwatch/internal/connectors"
)

// Placeholder is shown in every telemetry field that has no value yet.
const Placeholder = "-"

// StatusTone hints how the status line should be styled.
type StatusTone string

const (
	ToneNeutral StatusTone = "neutral"
	ToneInfo    StatusTone = "info"
	ToneSuccess StatusTone = "success"
	ToneDanger  StatusTone = "danger"
)

// Dashboard is the presentation snapshot published after every controller
// transition and telemetry update. It is a value; receivers own their copy.
type Dashboard struct {
	State  connectors.ConnectionState
	Status string
	Tone   StatusTone
	Busy   bool
	Error  string

	Address    string
	Port       string
	Latency    string
	PacketLoss string
	Jitter     string
	Throughput string
	FrameRate  string

	Resolution      string
	ServerFrameRate string
	ServerCPU       string
	ServerMemory    string

	Quality LinkQuality

	ConnectEnabled    bool
	ConnectVisible    bool
	DisconnectVisible bool

	latencyMS     float64
	packetLossPct float64
	hasLatency    bool
	hasPacketLoss bool
}

func NewDashboard() Dashboard {
	d := Dashboard{
		State:          connectors.ConnectionStateIdle,
		Tone:           ToneNeutral,
		ConnectEnabled: true,
		ConnectVisible: true,
	}
	d.ResetTelemetry()

	return d
}

// ResetTelemetry puts every connection-derived field back to the placeholder.
func (d *Dashboard) ResetTelemetry() {
	d.Address = Placeholder
	d.Port = Placeholder
	d.Latency = Placeholder
	d.PacketLoss = Placeholder
	d.Jitter = Placeholder
	d.Throughput = Placeholder
	d.FrameRate = Placeholder
	d.Resolution = Placeholder
	d.ServerFrameRate = Placeholder
	d.ServerCPU = Placeholder
	d.ServerMemory = Placeholder
	d.Quality = LinkUnknown
	d.latencyMS, d.packetLossPct = 0, 0
	d.hasLatency, d.hasPacketLoss = false, false
}

// ApplySample projects a telemetry sample. Absent fields keep their current text.
func (d *Dashboard) ApplySample(s TelemetrySample) {
	if s.LatencyMS != nil {
		d.Latency = FormatMilliseconds(*s.LatencyMS)
		d.latencyMS, d.hasLatency = *s.LatencyMS, true
	}
	if s.PacketLossPct != nil {
		d.PacketLoss = FormatPercent(*s.PacketLossPct)
		d.packetLossPct, d.hasPacketLoss = *s.PacketLossPct, true
	}
	if s.JitterMS != nil {
		d.Jitter = FormatMilliseconds(*s.JitterMS)
	}
	if s.BandwidthMbps != nil {
		d.Throughput = FormatMbps(*s.BandwidthMbps)
	}
	if s.FPS != nil {
		d.FrameRate = FormatNumber(*s.FPS)
	}
	if s.Resolution != nil {
		d.Resolution = *s.Resolution
	}
	if s.ServerFPS != nil {
		d.ServerFrameRate = FormatNumber(*s.ServerFPS)
	}
	if s.CPUPercent != nil {
		d.ServerCPU = FormatPercent(*s.CPUPercent)
	}
	if s.MemPercent != nil {
		d.ServerMemory = FormatPercent(*s.MemPercent)
	}
	d.Quality = DetermineLinkQuality(d.latencyMS, d.packetLossPct, d.hasLatency && d.hasPacketLoss)
}

// SetFrameRate stores the locally counted frames of the last sample window.
func (d *Dashboard) SetFrameRate(frames int) {
	d.FrameRate = strconv.Itoa(frames)
}

// SetEndpoint fills the address and port fields of an established connection.
func (d *Dashboard) SetEndpoint(address string, port int) {
	d.Address = address
	d.Port = strconv.Itoa(port)
}

// ShowConnect switches controls to the "ready to connect" layout.
func (d *Dashboard) ShowConnect() {
	d.ConnectEnabled = true
	d.ConnectVisible = true
	d.DisconnectVisible = false
}

// ShowDisconnect switches controls to the "connected" layout.
func (d *Dashboard) ShowDisconnect() {
	d.ConnectVisible = false
	d.DisconnectVisible = true
}
