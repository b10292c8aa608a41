package notifications

import "strings"

// Kind tells a sender how loudly to present a notification.
type Kind string

const (
	// KindInfo is a camera that came online.
	KindInfo Kind = "info"
	// KindFailure is a failed attempt or a lost telemetry link.
	KindFailure Kind = "failure"
)

// Payload is one camera connection notification.
type Payload struct {
	Title   string
	Content string
	Kind    Kind
	// Address is the camera the notification is about, if known.
	Address string
}

// Normalize trims the texts and reports whether anything is left to show.
func (p Payload) Normalize() (Payload, bool) {
	p.Title = strings.TrimSpace(p.Title)
	p.Content = strings.TrimSpace(p.Content)
	p.Address = strings.TrimSpace(p.Address)
	if p.Kind == "" {
		p.Kind = KindInfo
	}

	return p, p.Title != "" || p.Content != ""
}

// Sender delivers notifications to the desktop.
type Sender interface {
	Send(payload Payload)
}
