package ui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	camapp "github.com/skobkin/camwatch/internal/app"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/resources"
)

var appLogger = slog.Default().With("component", "ui")

var newFyneApp = func() fyne.App {
	return fyneapp.NewWithID(camapp.Name)
}

// Run starts the desktop UI and blocks until the user quits.
func Run(dep RuntimeDependencies) error {
	return runWithApp(dep, newFyneApp())
}

func runWithApp(dep RuntimeDependencies, fyApp fyne.App) error {
	if dep.Logger != nil {
		appLogger = dep.Logger
	}
	initialVariant := fyApp.Settings().ThemeVariant()
	fyApp.SetIcon(resources.AppIconResource(initialVariant))
	appLogger.Info(
		"starting UI runtime",
		"start_hidden", dep.Launch.StartHidden,
		"address_from_flag", dep.Launch.Address != "",
		"initial_theme", initialVariant,
	)

	initialStatus := resolveInitialConnStatus(dep)

	window := fyApp.NewWindow(formatWindowTitle(initialStatus))
	window.Resize(fyne.NewSize(960, 640))

	presenter := newConnectionStatusPresenter(window, initialStatus, initialVariant)

	var recent []string
	if dep.Data.RecentAddresses != nil {
		recent = dep.Data.RecentAddresses()
	}
	view := newCameraView(
		dep.Data.Texts,
		dep.Data.InitialAddress,
		recent,
		presenter.StatusIcon(),
		initialVariant,
		func(address string) {
			if dep.Actions.OnConnect == nil {
				return
			}
			// Rejections are rendered through the dashboard.
			if err := dep.Actions.OnConnect(address); err != nil {
				appLogger.Debug("connect rejected", "address", address, "error", err)
			}
		},
		dep.Actions.OnDisconnect,
	)

	themeRuntime := newThemeRuntime(fyApp, view, presenter)
	themeRuntime.BindSettings()

	stopNotifications := startNotificationService(dep, fyApp, dep.Launch.StartHidden)
	stopUIListeners := bindPresentationListeners(dep, fyApp, view, presenter, nil)

	window.SetContent(view.Content())

	uiRuntime := newUIRuntime(
		fyApp,
		window,
		stopNotifications,
		stopUIListeners,
		dep.Actions.OnQuit,
	)
	uiRuntime.BindCloseIntercept()

	setTrayIcon := configureSystemTray(fyApp, dep.Data.Texts, initialVariant, uiRuntime.Show, uiRuntime.Quit)
	themeRuntime.SetTrayIconSetter(setTrayIcon)
	themeRuntime.Apply(initialVariant)

	uiRuntime.Run(dep.Launch.StartHidden)

	return nil
}

func resolveInitialConnStatus(dep RuntimeDependencies) connectors.ConnectionStatus {
	if dep.Data.CurrentConnStatus != nil {
		if status, ok := dep.Data.CurrentConnStatus(); ok {
			return status
		}
	}

	return connectors.ConnectionStatus{State: connectors.ConnectionStateIdle}
}
