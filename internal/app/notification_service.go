package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/skobkin/camwatch/internal/bus"
	"github.com/skobkin/camwatch/internal/config"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/notifications"
)

// NotificationService listens to connection status events and emits user-facing notifications.
type NotificationService struct {
	bus           bus.MessageBus
	texts         NotificationTexts
	currentConfig func() config.AppConfig
	isForeground  func() bool
	sender        notifications.Sender
	logger        *slog.Logger

	connStatusMu  sync.Mutex
	lastConnState connectors.ConnectionState
	lastReason    connectors.FailureReason
	lastStateSet  bool
}

func NewNotificationService(
	messageBus bus.MessageBus,
	texts NotificationTexts,
	currentConfig func() config.AppConfig,
	isForeground func() bool,
	sender notifications.Sender,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifications")
	}

	return &NotificationService{
		bus:           messageBus,
		texts:         texts,
		currentConfig: currentConfig,
		isForeground:  isForeground,
		sender:        sender,
		logger:        logger,
	}
}

func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.bus == nil || s.sender == nil || s.texts == nil {
		return
	}

	connSub := s.bus.Subscribe(connectors.TopicConnStatus)

	go func() {
		defer s.bus.Unsubscribe(connSub, connectors.TopicConnStatus)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-connSub:
				if !ok {
					return
				}
				status, ok := raw.(connectors.ConnectionStatus)
				if !ok {
					continue
				}
				s.handleConnectionStatus(status)
			}
		}
	}()
}

func (s *NotificationService) handleConnectionStatus(status connectors.ConnectionStatus) {
	if status.State == "" {
		return
	}

	s.connStatusMu.Lock()
	if s.lastStateSet && s.lastConnState == status.State && s.lastReason == status.Reason {
		s.connStatusMu.Unlock()

		return
	}
	s.lastConnState = status.State
	s.lastReason = status.Reason
	s.lastStateSet = true
	s.connStatusMu.Unlock()

	payload, kind := connectionNotification(status, s.texts)
	prefs := s.notificationPrefs()
	switch kind {
	case notifyConnectionStatus:
		if !s.shouldNotify(prefs, prefs.Events.ConnectionStatus) {
			return
		}
	case notifyTelemetryLost:
		if !s.shouldNotify(prefs, prefs.Events.TelemetryLost) {
			return
		}
	default:
		return
	}

	s.send(payload)
}

func (s *NotificationService) shouldNotify(prefs config.NotificationConfig, kindEnabled bool) bool {
	if !kindEnabled {
		return false
	}
	if prefs.NotifyWhenFocused {
		return true
	}
	if s.isForeground == nil {
		return true
	}

	return !s.isForeground()
}

func (s *NotificationService) notificationPrefs() config.NotificationConfig {
	cfg := config.Default()
	if s.currentConfig != nil {
		cfg = s.currentConfig()
		cfg.FillMissingDefaults()
	}

	return cfg.UI.Notifications
}

func (s *NotificationService) send(notification notifications.Payload) {
	notification, ok := notification.Normalize()
	if !ok {
		return
	}
	s.logger.Debug("sending notification", "title", notification.Title, "kind", notification.Kind, "address", notification.Address)
	s.sender.Send(notification)
}
