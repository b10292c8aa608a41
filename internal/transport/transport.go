package transport

import (
	"encoding/json"
	"image"
)

// Surface renders a remote image stream. Load replaces whatever was loading.
type Surface interface {
	Load(rawURL string, onFrame func(image.Image), onError func(error))
	Clear()
}

// Channel is an open real-time event connection.
type Channel interface {
	Close() error
}

// EventHandlers receive the lifecycle and events of a Channel. Handlers are
// invoked from the channel's reader goroutine, one at a time, and never after
// Close has been called.
type EventHandlers struct {
	OnConnect      func()
	OnEvent        func(event string, payload json.RawMessage)
	OnDisconnect   func(reason string)
	OnConnectError func(err error)
}

// ChannelDialer opens channels asynchronously: failures are reported through
// OnConnectError rather than returned.
type ChannelDialer interface {
	Dial(rawURL string, h EventHandlers) Channel
}
