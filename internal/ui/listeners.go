package ui

import (
	"fmt"
	"sync"

	"github.com/skobkin/camwatch/internal/bus"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/domain"
)

var uiTopics = []string{
	connectors.TopicConnStatus,
	connectors.TopicDashboard,
	connectors.TopicVideoFrame,
}

type uiEventHandlers struct {
	OnConnStatus func(connectors.ConnectionStatus)
	OnDashboard  func(domain.Dashboard)
	OnVideoFrame func(connectors.VideoFrame)
}

// startUIEventListeners forwards controller events to handlers. All topics
// share one subscription so handlers observe them in publish order.
func startUIEventListeners(messageBus bus.MessageBus, handlers uiEventHandlers) func() {
	if messageBus == nil {
		appLogger.Debug("skipping UI event listeners: message bus is nil")

		return func() {}
	}

	sub := messageBus.Subscribe(uiTopics...)
	appLogger.Debug("subscribed to UI bus topics", "topics", uiTopics)
	done := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		for {
			select {
			case <-done:
				return
			case raw, ok := <-sub:
				if !ok {
					appLogger.Debug("UI subscription closed")

					return
				}
				select {
				case <-done:
					return
				default:
				}
				dispatchUIEvent(raw, handlers)
			}
		}
	}()

	return func() {
		stopOnce.Do(func() {
			appLogger.Debug("stopping UI event listeners")
			close(done)
			messageBus.Unsubscribe(sub, uiTopics...)
		})
	}
}

func dispatchUIEvent(raw any, handlers uiEventHandlers) {
	switch event := raw.(type) {
	case connectors.ConnectionStatus:
		if handlers.OnConnStatus != nil {
			handlers.OnConnStatus(event)
		}
	case domain.Dashboard:
		if handlers.OnDashboard != nil {
			handlers.OnDashboard(event)
		}
	case connectors.VideoFrame:
		if handlers.OnVideoFrame != nil {
			handlers.OnVideoFrame(event)
		}
	default:
		appLogger.Debug("ignoring unexpected UI payload", "payload_type", fmt.Sprintf("%T", raw))
	}
}
