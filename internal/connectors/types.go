package connectors

import (
	"image"
	"time"
)

// ConnectionState is the lifecycle state of a camera connection attempt.
type ConnectionState string

const (
	ConnectionStateIdle       ConnectionState = "idle"
	ConnectionStateConnecting ConnectionState = "connecting"
	ConnectionStateConnected  ConnectionState = "connected"
	ConnectionStateFailed     ConnectionState = "failed"
)

var legalTransitions = map[ConnectionState][]ConnectionState{
	ConnectionStateIdle:       {ConnectionStateConnecting},
	ConnectionStateConnecting: {ConnectionStateConnecting, ConnectionStateConnected, ConnectionStateFailed, ConnectionStateIdle},
	ConnectionStateConnected:  {ConnectionStateConnecting, ConnectionStateFailed, ConnectionStateIdle},
	ConnectionStateFailed:     {ConnectionStateConnecting, ConnectionStateIdle},
}

// CanTransitionTo reports whether next may follow s. Connecting may follow
// itself when a different address supersedes a pending attempt.
func (s ConnectionState) CanTransitionTo(next ConnectionState) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// FailureReason classifies why an attempt left the connecting or connected state.
type FailureReason string

const (
	FailureNone           FailureReason = ""
	FailureTimeout        FailureReason = "timeout"
	FailureVideo          FailureReason = "video"
	FailureTelemetryLost  FailureReason = "telemetry_lost"
	FailureTelemetryError FailureReason = "telemetry_error"
)

// ConnectionStatus is a bus event snapshot of the controller state.
type ConnectionStatus struct {
	State     ConnectionState
	Reason    FailureReason
	Err       string
	Address   string
	AttemptID string
	Timestamp time.Time
}

// VideoFrame carries one decoded frame of the active attempt.
type VideoFrame struct {
	AttemptID string
	Seq       uint64
	Image     image.Image
}

// FrameRate is the locally observed number of frames in the last sample window.
type FrameRate struct {
	AttemptID string
	Frames    int
}
