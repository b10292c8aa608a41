package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/skobkin/camwatch/internal/bus"
	"github.com/skobkin/camwatch/internal/config"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/domain"
	"github.com/skobkin/camwatch/internal/messages"
	"github.com/skobkin/camwatch/internal/transport"
)

// ErrInvalidAddress is returned by Connect for input that is not a dotted quad.
var ErrInvalidAddress = errors.New("invalid ip address")

// Recorder persists successful connections. It must not block.
type Recorder interface {
	RecordConnection(l domain.LastConnection)
}

type Options struct {
	VideoPort      int
	TelemetryPort  int
	VideoPath      string
	ConnectTimeout time.Duration
	SampleInterval time.Duration
}

func OptionsFromConfig(cfg config.ConnectionConfig) Options {
	return Options{
		VideoPort:      cfg.VideoPort,
		TelemetryPort:  cfg.TelemetryPort,
		VideoPath:      cfg.VideoPath,
		ConnectTimeout: cfg.ConnectTimeout(),
		SampleInterval: cfg.SampleInterval(),
	}
}

// Deps are the collaborators of a Controller. Surface.Load, Surface.Clear and
// Dialer.Dial must return without waiting for their callbacks.
type Deps struct {
	Bus      bus.MessageBus
	Surface  transport.Surface
	Dialer   transport.ChannelDialer
	Recorder Recorder
	Messages messages.Catalog
	Clock    Clock
	Logger   *slog.Logger
}

type outboxEvent struct {
	topic string
	msg   any
}

// Controller drives one camera connection at a time: video first, then the
// telemetry channel once the first frame proves the device is reachable.
//
// All entry points and transport callbacks serialize on mu. Every attempt has
// a generation; callbacks captured for an older generation are dropped.
type Controller struct {
	opts     Options
	bus      bus.MessageBus
	surface  transport.Surface
	dialer   transport.ChannelDialer
	recorder Recorder
	msgs     messages.Catalog
	clock    Clock
	logger   *slog.Logger

	gen atomic.Uint64

	mu        sync.Mutex
	state     connectors.ConnectionState
	address   string
	attemptID string
	dash      domain.Dashboard
	deadline  Timer
	sampler   Timer
	channel   transport.Channel
	frames    int
	seq       uint64
	outbox    []outboxEvent

	publishMu sync.Mutex
}

func NewController(opts Options, deps Deps) *Controller {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default().With("component", "lifecycle")
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = time.Duration(config.DefaultConnectTimeoutMS) * time.Millisecond
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = time.Duration(config.DefaultSampleIntervalMS) * time.Millisecond
	}
	if opts.VideoPort <= 0 {
		opts.VideoPort = config.DefaultVideoPort
	}
	if opts.TelemetryPort <= 0 {
		opts.TelemetryPort = config.DefaultTelemetryPort
	}
	if opts.VideoPath == "" {
		opts.VideoPath = config.DefaultVideoPath
	}

	return &Controller{
		opts:     opts,
		bus:      deps.Bus,
		surface:  deps.Surface,
		dialer:   deps.Dialer,
		recorder: deps.Recorder,
		msgs:     deps.Messages,
		clock:    deps.Clock,
		logger:   deps.Logger,
		state:    connectors.ConnectionStateIdle,
		dash:     domain.NewDashboard(),
	}
}

func (c *Controller) State() connectors.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Dashboard returns a copy of the current presentation snapshot.
func (c *Controller) Dashboard() domain.Dashboard {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dash
}

// Refresh republishes the current dashboard, e.g. for a freshly built view.
func (c *Controller) Refresh() {
	c.mu.Lock()
	c.emitDashboardLocked()
	c.unlockAndFlush()
}

// Connect starts an attempt to rawAddress. Invalid input only updates the
// status text. A repeated request for the address already being connected
// is ignored; anything else replaces the current attempt.
func (c *Controller) Connect(rawAddress string) error {
	address := domain.NormalizeAddressInput(rawAddress)

	c.mu.Lock()
	if !domain.ValidateAddress(address) {
		c.dash.Status = c.msgs.InvalidAddress()
		c.dash.Tone = domain.ToneDanger
		c.emitDashboardLocked()
		c.unlockAndFlush()
		c.logger.Debug("rejected address", "input", rawAddress)

		return fmt.Errorf("%w: %q", ErrInvalidAddress, rawAddress)
	}
	if c.state == connectors.ConnectionStateConnecting && c.address == address {
		c.mu.Unlock()
		c.logger.Debug("connect ignored: attempt already in progress", "address", address)

		return nil
	}

	if from := c.state; !c.canEnterLocked(connectors.ConnectionStateConnecting) {
		c.mu.Unlock()

		return fmt.Errorf("connect from state %s", from)
	}
	c.teardownLocked()
	gen := c.gen.Add(1)
	c.state = connectors.ConnectionStateConnecting
	c.address = address
	c.attemptID = uuid.NewString()

	c.dash.State = c.state
	c.dash.Status = c.msgs.Connecting()
	c.dash.Tone = domain.ToneInfo
	c.dash.Busy = true
	c.dash.Error = ""
	c.dash.ResetTelemetry()
	c.dash.ShowConnect()
	c.dash.ConnectEnabled = false

	videoURL := fmt.Sprintf("http://%s:%d%s?ts=%d", address, c.opts.VideoPort, c.opts.VideoPath, c.clock.Now().UnixMilli())
	c.logger.Info("connecting", "address", address, "attempt_id", c.attemptID, "video_url", videoURL)

	c.deadline = c.clock.AfterFunc(c.opts.ConnectTimeout, func() { c.onDeadline(gen) })
	c.surface.Load(videoURL,
		func(img image.Image) { c.onFrame(gen, img) },
		func(err error) { c.onVideoError(gen, err) },
	)

	c.emitStatusLocked(connectors.FailureNone, "")
	c.emitDashboardLocked()
	c.unlockAndFlush()

	return nil
}

// Disconnect is the user-initiated teardown. It is a no-op while idle.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	if c.state == connectors.ConnectionStateIdle {
		c.mu.Unlock()

		return
	}
	c.logger.Info("disconnecting", "address", c.address, "attempt_id", c.attemptID)
	c.toIdleLocked(connectors.FailureNone, nil)
	c.unlockAndFlush()
}

// Close tears everything down without touching the status text.
func (c *Controller) Close() {
	c.mu.Lock()
	c.teardownLocked()
	c.state = connectors.ConnectionStateIdle
	c.unlockAndFlush()
}

func (c *Controller) current(gen uint64) bool {
	return c.gen.Load() == gen
}

func (c *Controller) onDeadline(gen uint64) {
	if !c.current(gen) {
		return
	}
	c.mu.Lock()
	if !c.current(gen) || c.state != connectors.ConnectionStateConnecting {
		c.mu.Unlock()

		return
	}
	c.logger.Warn("connect timed out", "address", c.address, "attempt_id", c.attemptID, "timeout", c.opts.ConnectTimeout)
	c.failLocked(connectors.FailureTimeout, c.msgs.Timeout(), "")
	c.unlockAndFlush()
}

func (c *Controller) onFrame(gen uint64, img image.Image) {
	if !c.current(gen) {
		return
	}
	c.mu.Lock()
	if !c.current(gen) {
		c.mu.Unlock()

		return
	}
	c.frames++
	c.seq++
	c.outbox = append(c.outbox, outboxEvent{
		topic: connectors.TopicVideoFrame,
		msg:   connectors.VideoFrame{AttemptID: c.attemptID, Seq: c.seq, Image: img},
	})
	if c.state == connectors.ConnectionStateConnecting {
		c.establishLocked(gen)
	}
	c.unlockAndFlush()
}

func (c *Controller) onVideoError(gen uint64, err error) {
	if !c.current(gen) {
		return
	}
	c.mu.Lock()
	if !c.current(gen) {
		c.mu.Unlock()

		return
	}
	switch c.state {
	case connectors.ConnectionStateConnecting, connectors.ConnectionStateConnected:
		c.logger.Warn("video failed", "address", c.address, "attempt_id", c.attemptID, "error", err)
		c.failLocked(connectors.FailureVideo, c.msgs.VideoFailed(), errString(err))
	}
	c.unlockAndFlush()
}

func (c *Controller) onSample(gen uint64) {
	if !c.current(gen) {
		return
	}
	c.mu.Lock()
	if !c.current(gen) || c.state != connectors.ConnectionStateConnected {
		c.mu.Unlock()

		return
	}
	frames := c.frames
	c.frames = 0
	c.dash.SetFrameRate(frames)
	c.outbox = append(c.outbox, outboxEvent{
		topic: connectors.TopicFrameRate,
		msg:   connectors.FrameRate{AttemptID: c.attemptID, Frames: frames},
	})
	c.sampler = c.clock.AfterFunc(c.opts.SampleInterval, func() { c.onSample(gen) })
	c.emitDashboardLocked()
	c.unlockAndFlush()
}

func (c *Controller) establishLocked(gen uint64) {
	if !c.canEnterLocked(connectors.ConnectionStateConnected) {
		return
	}
	c.stopDeadlineLocked()
	c.state = connectors.ConnectionStateConnected
	now := c.clock.Now()

	c.dash.State = c.state
	c.dash.Status = c.msgs.Connected()
	c.dash.Tone = domain.ToneSuccess
	c.dash.Busy = false
	c.dash.ShowDisconnect()
	c.dash.SetEndpoint(c.address, c.opts.VideoPort)

	c.logger.Info("connected", "address", c.address, "attempt_id", c.attemptID)
	if c.recorder != nil {
		c.recorder.RecordConnection(domain.NewLastConnection(c.address, now))
	}

	telemetryURL := fmt.Sprintf("http://%s:%d", c.address, c.opts.TelemetryPort)
	c.channel = c.dialer.Dial(telemetryURL, c.telemetryHandlers(gen))
	c.frames = 0
	c.sampler = c.clock.AfterFunc(c.opts.SampleInterval, func() { c.onSample(gen) })

	c.emitStatusLocked(connectors.FailureNone, "")
	c.emitDashboardLocked()
}

func (c *Controller) telemetryHandlers(gen uint64) transport.EventHandlers {
	return transport.EventHandlers{
		OnConnect: func() {
			c.withConnected(gen, func() {
				c.logger.Info("telemetry connected", "address", c.address)
				c.dash.Error = ""
				c.emitDashboardLocked()
			})
		},
		OnEvent: func(event string, payload json.RawMessage) {
			if len(payload) == 0 {
				return
			}
			sample, ok, err := domain.DecodeTelemetryEvent(event, payload)
			if err != nil {
				c.logger.Debug("dropping telemetry event", "event", event, "error", err)

				return
			}
			if !ok {
				return
			}
			c.withConnected(gen, func() {
				c.dash.ApplySample(sample)
				c.outbox = append(c.outbox, outboxEvent{topic: connectors.TopicTelemetry, msg: sample})
				c.emitDashboardLocked()
			})
		},
		OnDisconnect: func(reason string) {
			c.withConnected(gen, func() {
				c.logger.Warn("telemetry disconnected", "address", c.address, "reason", reason)
				lost := c.msgs.ConnectionLost()
				c.toIdleLocked(connectors.FailureTelemetryLost, &lost)
			})
		},
		OnConnectError: func(err error) {
			c.withConnected(gen, func() {
				c.logger.Warn("telemetry connect error", "address", c.address, "error", err)
				msg := c.msgs.ConnectionError(errString(err))
				c.toIdleLocked(connectors.FailureTelemetryError, &msg)
			})
		},
	}
}

func (c *Controller) withConnected(gen uint64, fn func()) {
	if !c.current(gen) {
		return
	}
	c.mu.Lock()
	if !c.current(gen) || c.state != connectors.ConnectionStateConnected {
		c.mu.Unlock()

		return
	}
	fn()
	c.unlockAndFlush()
}

func (c *Controller) failLocked(reason connectors.FailureReason, status, detail string) {
	if !c.canEnterLocked(connectors.ConnectionStateFailed) {
		return
	}
	c.teardownLocked()
	c.state = connectors.ConnectionStateFailed

	c.dash.State = c.state
	c.dash.Status = status
	c.dash.Tone = domain.ToneDanger
	c.dash.Busy = false
	c.dash.Error = c.msgs.Troubleshooting(c.opts.VideoPort)
	c.dash.ResetTelemetry()
	c.dash.ShowConnect()

	c.emitStatusLocked(reason, detail)
	c.emitDashboardLocked()
}

// toIdleLocked ends the session. errText replaces the error line when not nil.
func (c *Controller) toIdleLocked(reason connectors.FailureReason, errText *string) {
	if !c.canEnterLocked(connectors.ConnectionStateIdle) {
		return
	}
	c.teardownLocked()
	c.state = connectors.ConnectionStateIdle

	c.dash.State = c.state
	c.dash.Status = c.msgs.Disconnected()
	c.dash.Tone = domain.ToneNeutral
	c.dash.Busy = false
	if errText != nil {
		c.dash.Error = *errText
	}
	c.dash.ResetTelemetry()
	c.dash.ShowConnect()

	detail := ""
	if errText != nil {
		detail = *errText
	}
	c.emitStatusLocked(reason, detail)
	c.emitDashboardLocked()
}

func (c *Controller) canEnterLocked(next connectors.ConnectionState) bool {
	if c.state.CanTransitionTo(next) {
		return true
	}
	c.logger.Error("illegal state transition", "from", c.state, "to", next, "attempt_id", c.attemptID)

	return false
}

// teardownLocked invalidates the current generation and releases every
// resource of the attempt. The channel is closed before returning so a new
// attempt can never dial while the old one is still open; Close does not
// invoke handlers and does not wait for the reader goroutine.
func (c *Controller) teardownLocked() {
	c.gen.Add(1)
	c.stopDeadlineLocked()
	if c.sampler != nil {
		c.sampler.Stop()
		c.sampler = nil
	}
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Debug("close telemetry channel failed", "error", err, "attempt_id", c.attemptID)
		}
		c.channel = nil
	}
	c.surface.Clear()
	c.frames = 0
}

func (c *Controller) stopDeadlineLocked() {
	if c.deadline != nil {
		c.deadline.Stop()
		c.deadline = nil
	}
}

func (c *Controller) emitStatusLocked(reason connectors.FailureReason, detail string) {
	c.outbox = append(c.outbox, outboxEvent{
		topic: connectors.TopicConnStatus,
		msg: connectors.ConnectionStatus{
			State:     c.state,
			Reason:    reason,
			Err:       detail,
			Address:   c.address,
			AttemptID: c.attemptID,
			Timestamp: c.clock.Now(),
		},
	})
}

func (c *Controller) emitDashboardLocked() {
	c.outbox = append(c.outbox, outboxEvent{topic: connectors.TopicDashboard, msg: c.dash})
}

// unlockAndFlush releases mu and publishes queued events in the order they
// were produced.
func (c *Controller) unlockAndFlush() {
	c.mu.Unlock()

	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	c.mu.Lock()
	events := c.outbox
	c.outbox = nil
	c.mu.Unlock()
	if c.bus == nil {
		return
	}
	for _, e := range events {
		c.bus.Publish(e.topic, e.msg)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
