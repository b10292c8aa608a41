package ui

import (
	"sync/atomic"

	"fyne.io/fyne/v2"
)

func startNotificationService(dep RuntimeDependencies, fyApp fyne.App, startHidden bool) func() {
	var appForeground atomic.Bool
	appForeground.Store(!startHidden)
	fyApp.Lifecycle().SetOnEnteredForeground(func() {
		appForeground.Store(true)
	})
	fyApp.Lifecycle().SetOnExitedForeground(func() {
		appForeground.Store(false)
	})

	if dep.Actions.StartNotifications == nil {
		appLogger.Debug("notifications are not wired")

		return func() {}
	}

	return dep.Actions.StartNotifications(NewFyneNotificationSender(fyApp), appForeground.Load)
}
