package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	camapp "github.com/skobkin/camwatch/internal/app"
	"github.com/skobkin/camwatch/internal/messages"
	"github.com/skobkin/camwatch/internal/resources"
)

// configureSystemTray installs the tray menu when the driver supports one and
// returns the icon setter used on theme changes.
func configureSystemTray(
	fyApp fyne.App,
	texts TextSource,
	initialVariant fyne.ThemeVariant,
	show func(),
	quit func(),
) func(fyne.ThemeVariant) {
	setTrayIcon := func(_ fyne.ThemeVariant) {}

	desk, ok := fyApp.(desktop.App)
	if !ok {
		appLogger.Debug("system tray is not supported by the driver")

		return setTrayIcon
	}

	setTrayIcon = func(variant fyne.ThemeVariant) {
		desk.SetSystemTrayIcon(resources.TrayIconResource(variant))
	}
	setTrayIcon(initialVariant)
	desk.SetSystemTrayMenu(fyne.NewMenu(camapp.Name,
		fyne.NewMenuItem(texts.Text(messages.TrayShow), func() {
			appLogger.Debug("system tray show action invoked")
			if show != nil {
				show()
			}
		}),
		fyne.NewMenuItem(texts.Text(messages.TrayQuit), func() {
			appLogger.Debug("system tray quit action invoked")
			if quit != nil {
				quit()
			}
		}),
	))

	return setTrayIcon
}
