package ui

import (
	"log/slog"

	"github.com/skobkin/camwatch/internal/bus"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/domain"
	"github.com/skobkin/camwatch/internal/notifications"
)

// TextSource resolves localized UI labels by message ID.
type TextSource interface {
	Text(id string) string
}

type DataDependencies struct {
	Bus               bus.MessageBus
	Texts             TextSource
	InitialAddress    string
	RecentAddresses   func() []string
	CurrentConnStatus func() (connectors.ConnectionStatus, bool)
	CurrentDashboard  func() domain.Dashboard
}

type ActionDependencies struct {
	OnConnect          func(address string) error
	OnDisconnect       func()
	StartNotifications func(sender notifications.Sender, isForeground func() bool) func()
	OnQuit             func()
}

type LaunchOptions struct {
	StartHidden bool
	// Address prefills the address entry instead of the stored last connection.
	Address string
}

type RuntimeDependencies struct {
	Data    DataDependencies
	Actions ActionDependencies
	Launch  LaunchOptions
	Logger  *slog.Logger
}
