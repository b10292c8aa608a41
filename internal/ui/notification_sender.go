package ui

import (
	"fyne.io/fyne/v2"

	"github.com/skobkin/camwatch/internal/notifications"
)

// FyneNotificationSender posts notifications through the running fyne app.
type FyneNotificationSender struct {
	app fyne.App
}

func NewFyneNotificationSender(app fyne.App) *FyneNotificationSender {
	return &FyneNotificationSender{app: app}
}

func (s *FyneNotificationSender) Send(payload notifications.Payload) {
	if s == nil || s.app == nil {
		return
	}

	payload, ok := payload.Normalize()
	if !ok {
		return
	}
	title := payload.Title
	if title == "" {
		title = s.app.Metadata().Name
	}

	notification := fyne.NewNotification(title, payload.Content)
	fyne.Do(func() {
		s.app.SendNotification(notification)
	})
}
