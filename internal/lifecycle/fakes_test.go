package lifecycle

import (
	"image"
	"sync"
	"time"

	"github.com/skobkin/camwatch/internal/bus"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/domain"
	"github.com/skobkin/camwatch/internal/transport"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	fn    func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1700000000000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)

	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true

	return true
}

// Advance moves time forward, firing due timers in order, including timers
// armed by the callbacks themselves.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.done || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()

			return
		}
		next.done = true
		c.now = next.at
		c.mu.Unlock()
		next.fn()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}

	return n
}

type surfaceLoad struct {
	url     string
	onFrame func(image.Image)
	onError func(error)
}

type fakeSurface struct {
	mu     sync.Mutex
	loads  []surfaceLoad
	clears int
	// streaming delivers one frame from a separate goroutine right after Load.
	streaming bool
}

func (s *fakeSurface) Load(rawURL string, onFrame func(image.Image), onError func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads = append(s.loads, surfaceLoad{url: rawURL, onFrame: onFrame, onError: onError})
	if s.streaming {
		go onFrame(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	}
}

func (s *fakeSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
}

func (s *fakeSurface) last() surfaceLoad {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loads[len(s.loads)-1]
}

func (s *fakeSurface) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.loads)
}

type fakeChannel struct {
	mu         sync.Mutex
	url        string
	handlers   transport.EventHandlers
	closed     int
	closeDelay time.Duration
}

func (c *fakeChannel) Close() error {
	// The channel stays open for the whole delay, like a socket flushing its
	// disconnect packet.
	time.Sleep(c.closeDelay)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++

	return nil
}

func (c *fakeChannel) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

type fakeDialer struct {
	mu         sync.Mutex
	channels   []*fakeChannel
	maxOpen    int
	closeDelay time.Duration
}

func (d *fakeDialer) Dial(rawURL string, h transport.EventHandlers) transport.Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch := &fakeChannel{url: rawURL, handlers: h, closeDelay: d.closeDelay}
	d.channels = append(d.channels, ch)
	open := 0
	for _, c := range d.channels {
		if c.closeCount() == 0 {
			open++
		}
	}
	if open > d.maxOpen {
		d.maxOpen = open
	}

	return ch
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.channels)
}

func (d *fakeDialer) maxOpenChannels() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.maxOpen
}

func (d *fakeDialer) last() *fakeChannel {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.channels[len(d.channels)-1]
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []domain.LastConnection
}

func (r *fakeRecorder) RecordConnection(l domain.LastConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, l)
}

type published struct {
	topic string
	msg   any
}

type recordingBus struct {
	mu     sync.Mutex
	events []published
}

var _ bus.MessageBus = (*recordingBus)(nil)

func (b *recordingBus) Publish(topic string, msg any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{topic: topic, msg: msg})
}

func (b *recordingBus) Subscribe(...string) bus.Subscription { return make(bus.Subscription) }
func (b *recordingBus) Unsubscribe(bus.Subscription, ...string) {}
func (b *recordingBus) Close()                                  {}

func (b *recordingBus) statuses() []connectors.ConnectionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []connectors.ConnectionStatus
	for _, e := range b.events {
		if s, ok := e.msg.(connectors.ConnectionStatus); ok {
			out = append(out, s)
		}
	}

	return out
}

func (b *recordingBus) count(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.topic == topic {
			n++
		}
	}

	return n
}

func (b *recordingBus) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.events)
}
