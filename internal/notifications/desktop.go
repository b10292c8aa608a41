package notifications

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// DesktopSender posts notifications through the OS notification daemon.
// It is used where no fyne app is running. Failures also play the alert
// sound.
type DesktopSender struct {
	notify func(title, message string) error
	alert  func(title, message string) error
	logger *slog.Logger
}

func NewDesktopSender(logger *slog.Logger) *DesktopSender {
	if logger == nil {
		logger = slog.Default().With("component", "notifications.desktop")
	}

	return &DesktopSender{
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
		logger: logger,
	}
}

func (s *DesktopSender) Send(payload Payload) {
	if s == nil || s.notify == nil {
		return
	}
	payload, ok := payload.Normalize()
	if !ok {
		return
	}
	post := s.notify
	if payload.Kind == KindFailure && s.alert != nil {
		post = s.alert
	}
	if err := post(payload.Title, payload.Content); err != nil {
		s.logger.Warn("desktop notification failed", "title", payload.Title, "address", payload.Address, "error", err)
	}
}
