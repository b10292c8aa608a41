package app

import (
	"strings"

	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/messages"
	"github.com/skobkin/camwatch/internal/notifications"
)

// NotificationTexts is the localized text source for connection notifications.
type NotificationTexts interface {
	messages.Catalog
	Text(id string) string
}

type notificationKind int

const (
	notifyNone notificationKind = iota
	notifyConnectionStatus
	notifyTelemetryLost
)

// connectionNotification maps a status transition onto a desktop notification.
// Transitions nobody needs to hear about map to notifyNone.
func connectionNotification(status connectors.ConnectionStatus, texts NotificationTexts) (notifications.Payload, notificationKind) {
	address := strings.TrimSpace(status.Address)

	switch status.State {
	case connectors.ConnectionStateConnected:
		return notifications.Payload{
			Title:   texts.Text(messages.NotifyConnectedTitle),
			Content: address,
			Kind:    notifications.KindInfo,
			Address: address,
		}, notifyConnectionStatus
	case connectors.ConnectionStateFailed:
		content := texts.VideoFailed()
		if status.Reason == connectors.FailureTimeout {
			content = texts.Timeout()
		}
		if address != "" {
			content = address + ": " + content
		}

		return notifications.Payload{
			Title:   texts.Text(messages.NotifyFailedTitle),
			Content: content,
			Kind:    notifications.KindFailure,
			Address: address,
		}, notifyConnectionStatus
	case connectors.ConnectionStateIdle:
		switch status.Reason {
		case connectors.FailureTelemetryLost, connectors.FailureTelemetryError:
		default:
			return notifications.Payload{}, notifyNone
		}
		content := strings.TrimSpace(status.Err)
		if content == "" {
			content = texts.ConnectionLost()
		}

		return notifications.Payload{
			Title:   texts.Text(messages.NotifyLostTitle),
			Content: content,
			Kind:    notifications.KindFailure,
			Address: address,
		}, notifyTelemetryLost
	default:
		return notifications.Payload{}, notifyNone
	}
}
