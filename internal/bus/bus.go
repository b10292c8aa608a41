package bus

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/cskr/pubsub"

	"github.com/skobkin/camwatch/internal/connectors"
)

type Subscription chan any

type MessageBus interface {
	Publish(topic string, msg any)
	Subscribe(topics ...string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

// PubSubBus is the in-process event bus between the controller, the UI and background services.
type PubSubBus struct {
	ps     *pubsub.PubSub
	logger *slog.Logger
}

func New(logger *slog.Logger) *PubSubBus {
	if logger == nil {
		logger = slog.Default().With("component", "bus")
	}

	return &PubSubBus{
		ps:     pubsub.New(128),
		logger: logger,
	}
}

func (b *PubSubBus) Publish(topic string, msg any) {
	if b.logger.Enabled(context.Background(), slog.LevelDebug) && !isHighRate(topic) {
		b.logger.Debug("publish", "topic", topic, "payload_type", payloadType(msg))
	}
	b.ps.Pub(msg, topic)
}

func (b *PubSubBus) Subscribe(topics ...string) Subscription {
	ch := b.ps.Sub(topics...)
	b.logger.Debug("subscribe", "topics", topics)

	return ch
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		b.logger.Debug("unsubscribe", "mode", "all")

		return
	}
	b.ps.Unsub(ch, topics...)
	b.logger.Debug("unsubscribe", "topics", topics)
}

func (b *PubSubBus) Close() {
	b.ps.Shutdown()
}

// Video frames arrive at stream rate and would drown the debug log.
func isHighRate(topic string) bool {
	return topic == connectors.TopicVideoFrame
}

func payloadType(v any) string {
	if v == nil {
		return "<nil>"
	}

	return reflect.TypeOf(v).String()
}
