package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultDialTimeout = 10 * time.Second
	closeSendTimeout   = 2 * time.Second
	engineIOPath       = "/socket.io/"
)

// Disconnect reasons reported to EventHandlers.OnDisconnect.
const (
	ReasonServerDisconnect = "io server disconnect"
	ReasonTransportClose   = "transport close"
	ReasonTransportError   = "transport error"
	ReasonPingTimeout      = "ping timeout"
)

var errPingTimeout = errors.New("ping timeout")

// SocketIODialer opens socket.io v5 channels over Engine.IO v4.
type SocketIODialer struct {
	DialTimeout time.Duration
	Namespace   string
	UserAgent   string
	// Transports in order of preference. The first one opens the session;
	// websocket listed after polling is tried as an upgrade.
	Transports []string
	HTTPClient *http.Client
}

func NewSocketIODialer() *SocketIODialer {
	return &SocketIODialer{
		DialTimeout: defaultDialTimeout,
		Namespace:   "/",
		Transports:  []string{TransportPolling, TransportWebsocket},
		HTTPClient:  &http.Client{},
	}
}

// Dial starts connecting to rawURL (http, https, ws or wss) in the background.
func (d *SocketIODialer) Dial(rawURL string, h EventHandlers) Channel {
	timeout := d.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	namespace := d.Namespace
	if namespace == "" {
		namespace = "/"
	}
	transports := d.Transports
	if len(transports) == 0 {
		transports = []string{TransportPolling, TransportWebsocket}
	}
	client := d.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch := &SocketIOChannel{
		rawURL:      rawURL,
		namespace:   namespace,
		userAgent:   d.UserAgent,
		transports:  transports,
		client:      client,
		handlers:    h,
		dialTimeout: timeout,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		logger:      endpointLogger(transportLogger("socketio"), rawURL),
	}
	go ch.run()

	return ch
}

// SocketIOChannel is one socket.io session.
type SocketIOChannel struct {
	rawURL      string
	namespace   string
	userAgent   string
	transports  []string
	client      *http.Client
	handlers    EventHandlers
	dialTimeout time.Duration
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool

	mu      sync.Mutex
	conn    engineConn
	writeMu sync.Mutex
}

// Close sends a namespace disconnect and releases the transport. No handler
// is invoked once Close has been called.
func (c *SocketIOChannel) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.logger.Debug("closed before connect")

		return nil
	}
	goodbye := []string{encodeSocketPacket(socketDisconnect, c.namespace)}
	if conn.name() == TransportPolling {
		goodbye = append(goodbye, string(engineClose))
	}
	if err := c.sendWithin(conn, closeSendTimeout, goodbye...); err != nil {
		c.logger.Debug("send disconnect failed", "error", err)
	}
	if err := conn.close(); err != nil {
		return fmt.Errorf("close %s transport: %w", conn.name(), err)
	}
	c.logger.Info("closed", "transport", conn.name())

	return nil
}

// Done is closed when the reader goroutine has exited.
func (c *SocketIOChannel) Done() <-chan struct{} {
	return c.done
}

func (c *SocketIOChannel) run() {
	defer close(c.done)

	c.logger.Info("connecting", "transports", c.transports)
	conn, open, pending, err := c.open()
	if err != nil {
		if !c.closed.Load() {
			c.logger.Warn("connect failed", "error", err)
		}
		c.emitConnectError(err)

		return
	}
	defer func() { _ = conn.close() }()

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()

		return
	}
	c.conn = conn
	c.mu.Unlock()
	c.logger.Debug("engine.io open", "sid", open.SID, "transport", conn.name(),
		"ping_interval_ms", open.PingInterval, "ping_timeout_ms", open.PingTimeout)

	if err := c.send(conn, encodeSocketPacket(socketConnect, c.namespace)); err != nil {
		c.logger.Warn("namespace connect failed", "error", err)
		c.emitConnectError(fmt.Errorf("send namespace connect: %w", err))

		return
	}

	c.readLoop(conn, pending, time.Duration(open.PingInterval+open.PingTimeout)*time.Millisecond)
}

// open performs the Engine.IO handshake on the first configured transport
// and upgrades to websocket when both sides allow it. Packets that arrived
// together with the open packet are returned as pending.
func (c *SocketIOChannel) open() (engineConn, openPayload, []string, error) {
	switch c.transports[0] {
	case TransportWebsocket:
		return c.openWebsocket()
	case TransportPolling:
	default:
		return nil, openPayload{}, nil, fmt.Errorf("unsupported engine.io transport: %q", c.transports[0])
	}

	poll, open, pending, err := c.openPolling()
	if err != nil {
		return nil, openPayload{}, nil, err
	}
	if !c.allows(TransportWebsocket) || !open.canUpgradeTo(TransportWebsocket) {
		return poll, open, pending, nil
	}
	ws, err := c.upgrade(open.SID)
	if err != nil {
		c.logger.Debug("websocket upgrade failed, staying on polling", "error", err)

		return poll, open, pending, nil
	}
	c.logger.Debug("upgraded to websocket", "sid", open.SID)

	return ws, open, pending, nil
}

func (c *SocketIOChannel) allows(transportName string) bool {
	for _, t := range c.transports {
		if t == transportName {
			return true
		}
	}

	return false
}

func (c *SocketIOChannel) openPolling() (*pollingConn, openPayload, []string, error) {
	poll := &pollingConn{client: c.client, ctx: c.ctx, rawURL: c.rawURL, userAgent: c.userAgent}
	packets, err := poll.receive(c.dialTimeout)
	if err != nil {
		return nil, openPayload{}, nil, fmt.Errorf("polling handshake: %w", err)
	}
	if len(packets) == 0 {
		return nil, openPayload{}, nil, errors.New("polling handshake: empty response")
	}
	open, err := decodeOpenPacket(packets[0])
	if err != nil {
		return nil, openPayload{}, nil, err
	}
	if open.SID == "" {
		return nil, openPayload{}, nil, errors.New("polling handshake: open packet without sid")
	}
	poll.sid = open.SID

	return poll, open, packets[1:], nil
}

func (c *SocketIOChannel) openWebsocket() (engineConn, openPayload, []string, error) {
	wsURL, err := EngineIOURL(c.rawURL, TransportWebsocket)
	if err != nil {
		return nil, openPayload{}, nil, err
	}
	ws, err := dialWebsocket(c.ctx, wsURL, c.userAgent, c.dialTimeout)
	if err != nil {
		return nil, openPayload{}, nil, err
	}
	packets, err := ws.receive(c.dialTimeout)
	if err != nil {
		_ = ws.close()

		return nil, openPayload{}, nil, fmt.Errorf("read open packet: %w", err)
	}
	open, err := decodeOpenPacket(packets[0])
	if err != nil {
		_ = ws.close()

		return nil, openPayload{}, nil, err
	}

	return ws, open, nil, nil
}

// upgrade moves the polling session sid onto a websocket: a ping carrying
// upgradePayload must come back as a pong before the upgrade packet is sent.
func (c *SocketIOChannel) upgrade(sid string) (engineConn, error) {
	u, err := engineEndpoint(c.rawURL, TransportWebsocket, sid)
	if err != nil {
		return nil, err
	}
	ws, err := dialWebsocket(c.ctx, u.String(), c.userAgent, c.dialTimeout)
	if err != nil {
		return nil, err
	}
	if err := ws.send(c.dialTimeout, string(enginePing)+upgradePayload); err != nil {
		_ = ws.close()

		return nil, err
	}
	packets, err := ws.receive(c.dialTimeout)
	if err != nil {
		_ = ws.close()

		return nil, fmt.Errorf("read upgrade reply: %w", err)
	}
	if packets[0] != string(enginePong)+upgradePayload {
		_ = ws.close()

		return nil, fmt.Errorf("unexpected upgrade reply %q", packets[0])
	}
	if err := ws.send(c.dialTimeout, string(engineUpgrade)); err != nil {
		_ = ws.close()

		return nil, err
	}

	return ws, nil
}

func (c *SocketIOChannel) readLoop(conn engineConn, pending []string, heartbeat time.Duration) {
	connected := false
	for _, raw := range pending {
		if !c.handlePacket(conn, &connected, raw) {
			return
		}
	}
	for {
		packets, err := conn.receive(heartbeat)
		if err != nil {
			if c.closed.Load() {
				return
			}
			if errors.Is(err, errReceiveTimeout) {
				c.fail(connected, ReasonPingTimeout, errPingTimeout)

				return
			}
			c.logger.Debug("read failed", "transport", conn.name(), "error", err)
			c.fail(connected, ReasonTransportClose, err)

			return
		}
		for _, raw := range packets {
			if !c.handlePacket(conn, &connected, raw) {
				return
			}
		}
	}
}

// fail reports a lost session as a disconnect once the namespace is joined
// and as a connect error before that.
func (c *SocketIOChannel) fail(connected bool, reason string, err error) {
	if connected {
		c.emitDisconnect(reason)

		return
	}
	c.emitConnectError(err)
}

// handlePacket dispatches one Engine.IO packet and reports whether the
// session is still alive.
func (c *SocketIOChannel) handlePacket(conn engineConn, connected *bool, raw string) bool {
	t, body, err := splitEnginePacket(raw)
	if err != nil {
		c.logger.Debug("skipping packet", "error", err)

		return true
	}
	switch t {
	case enginePing:
		if err := c.send(conn, string(enginePong)+body); err != nil {
			c.fail(*connected, ReasonTransportError, fmt.Errorf("send pong: %w", err))

			return false
		}
	case engineClose:
		c.fail(*connected, ReasonTransportClose, errors.New("server closed the session"))

		return false
	case engineMessage:
		p, err := decodeSocketPacket(body)
		if err != nil {
			c.logger.Debug("skipping socket.io packet", "error", err)

			return true
		}
		if p.Namespace != c.namespace {
			return true
		}
		switch p.Type {
		case socketConnect:
			*connected = true
			c.logger.Info("connected", "transport", conn.name())
			c.emitConnect()
		case socketConnectError:
			c.emitConnectError(errors.New(connectErrorMessage(p.Data)))

			return false
		case socketDisconnect:
			c.fail(*connected, ReasonServerDisconnect, errors.New(ReasonServerDisconnect))

			return false
		case socketEvent, socketBinaryEvent:
			name, payload, err := decodeEventData(p.Data)
			if err != nil {
				c.logger.Debug("skipping malformed event", "error", err)

				return true
			}
			c.emitEvent(name, payload)
		}
	}

	return true
}

func (c *SocketIOChannel) send(conn engineConn, packets ...string) error {
	return c.sendWithin(conn, c.dialTimeout, packets...)
}

func (c *SocketIOChannel) sendWithin(conn engineConn, timeout time.Duration, packets ...string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return conn.send(timeout, packets...)
}

func (c *SocketIOChannel) emitConnect() {
	if c.closed.Load() || c.handlers.OnConnect == nil {
		return
	}
	c.handlers.OnConnect()
}

func (c *SocketIOChannel) emitEvent(name string, payload json.RawMessage) {
	if c.closed.Load() || c.handlers.OnEvent == nil {
		return
	}
	c.handlers.OnEvent(name, payload)
}

func (c *SocketIOChannel) emitDisconnect(reason string) {
	if c.closed.Load() || c.handlers.OnDisconnect == nil {
		return
	}
	c.logger.Info("disconnected", "reason", reason)
	c.handlers.OnDisconnect(reason)
}

func (c *SocketIOChannel) emitConnectError(err error) {
	if c.closed.Load() || c.handlers.OnConnectError == nil {
		return
	}
	c.handlers.OnConnectError(err)
}
