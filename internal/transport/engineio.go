package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/websocket"
)

// Engine.IO transport names, as used in the transport query parameter.
const (
	TransportPolling   = "polling"
	TransportWebsocket = "websocket"
)

const maxPollPayload = 8 << 20

var errReceiveTimeout = errors.New("engine.io receive timeout")

// engineConn is one Engine.IO transport carrying text packets.
type engineConn interface {
	name() string
	// receive blocks for the next batch of packets; it returns
	// errReceiveTimeout when nothing arrived within timeout.
	receive(timeout time.Duration) ([]string, error)
	send(timeout time.Duration, packets ...string) error
	close() error
}

// EngineIOURL turns a socket.io server URL into the endpoint of the given
// Engine.IO transport.
func EngineIOURL(rawURL, transportName string) (string, error) {
	u, err := engineEndpoint(rawURL, transportName, "")
	if err != nil {
		return "", err
	}

	return u.String(), nil
}

func engineEndpoint(rawURL, transportName, sid string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse socket.io url: %w", err)
	}
	secure := false
	switch u.Scheme {
	case "http", "ws":
	case "https", "wss":
		secure = true
	default:
		return nil, fmt.Errorf("unsupported socket.io url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("socket.io url without host: %q", rawURL)
	}
	switch transportName {
	case TransportPolling:
		u.Scheme = "http"
		if secure {
			u.Scheme = "https"
		}
	case TransportWebsocket:
		u.Scheme = "ws"
		if secure {
			u.Scheme = "wss"
		}
	default:
		return nil, fmt.Errorf("unsupported engine.io transport: %q", transportName)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = engineIOPath
	}
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", transportName)
	if sid != "" {
		q.Set("sid", sid)
	}
	u.RawQuery = q.Encode()

	return u, nil
}

func originFor(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "http://localhost/"
	}
	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}

	return scheme + "://" + u.Host + "/"
}

type wsConn struct {
	conn *websocket.Conn
}

func dialWebsocket(ctx context.Context, wsURL, userAgent string, timeout time.Duration) (*wsConn, error) {
	cfg, err := websocket.NewConfig(wsURL, originFor(wsURL))
	if err != nil {
		return nil, fmt.Errorf("websocket config: %w", err)
	}
	if userAgent != "" {
		cfg.Header.Set("User-Agent", userAgent)
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := cfg.DialContext(dialCtx)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	return &wsConn{conn: conn}, nil
}

func (w *wsConn) name() string { return TransportWebsocket }

func (w *wsConn) receive(timeout time.Duration) ([]string, error) {
	_ = w.conn.SetReadDeadline(time.Now().Add(timeout))
	var raw string
	if err := websocket.Message.Receive(w.conn, &raw); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, errReceiveTimeout
		}

		return nil, fmt.Errorf("websocket read: %w", err)
	}

	return []string{raw}, nil
}

func (w *wsConn) send(timeout time.Duration, packets ...string) error {
	_ = w.conn.SetWriteDeadline(time.Now().Add(timeout))
	for _, p := range packets {
		if err := websocket.Message.Send(w.conn, p); err != nil {
			return fmt.Errorf("websocket write: %w", err)
		}
	}

	return nil
}

func (w *wsConn) close() error {
	return w.conn.Close()
}

// pollingConn is the HTTP long-polling transport. Receives are cancelled
// with ctx; sends are bounded by their own timeout so a goodbye can still be
// posted after ctx is cancelled.
type pollingConn struct {
	client    *http.Client
	ctx       context.Context
	rawURL    string
	sid       string
	userAgent string
}

func (p *pollingConn) name() string { return TransportPolling }

func (p *pollingConn) endpoint() (string, error) {
	u, err := engineEndpoint(p.rawURL, TransportPolling, p.sid)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(time.Now().UnixNano(), 36))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (p *pollingConn) receive(timeout time.Duration) ([]string, error) {
	endpoint, err := p.endpoint()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	p.decorate(req)

	resp, err := p.client.Do(req)
	if err != nil {
		if p.timedOut(ctx) {
			return nil, errReceiveTimeout
		}

		return nil, fmt.Errorf("poll: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPollPayload))
	if err != nil {
		if p.timedOut(ctx) {
			return nil, errReceiveTimeout
		}

		return nil, fmt.Errorf("read poll response: %w", err)
	}

	return decodePayload(string(body)), nil
}

func (p *pollingConn) timedOut(ctx context.Context) bool {
	return p.ctx.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func (p *pollingConn) send(timeout time.Duration, packets ...string) error {
	endpoint, err := p.endpoint()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encodePayload(packets)))
	if err != nil {
		return fmt.Errorf("build post request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	p.decorate(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post packets: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post packets: unexpected status %s", resp.Status)
	}

	return nil
}

func (p *pollingConn) decorate(req *http.Request) {
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
}

func (p *pollingConn) close() error { return nil }
