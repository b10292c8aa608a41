package ui

import (
	"sync"

	"fyne.io/fyne/v2"
)

type uiRuntime struct {
	fyApp  fyne.App
	window fyne.Window

	stopNotifications func()
	stopUIListeners   func()
	onQuit            func()

	shutdownOnce sync.Once
}

func newUIRuntime(
	fyApp fyne.App,
	window fyne.Window,
	stopNotifications func(),
	stopUIListeners func(),
	onQuit func(),
) *uiRuntime {
	return &uiRuntime{
		fyApp:             fyApp,
		window:            window,
		stopNotifications: stopNotifications,
		stopUIListeners:   stopUIListeners,
		onQuit:            onQuit,
	}
}

func (r *uiRuntime) BindCloseIntercept() {
	if r.window == nil {
		return
	}
	r.window.SetCloseIntercept(func() {
		appLogger.Debug("main window close intercepted: hiding to tray")
		r.window.Hide()
	})
}

func (r *uiRuntime) Quit() {
	r.shutdownOnce.Do(func() {
		appLogger.Info("quitting UI runtime")
		r.stop()
		if r.fyApp != nil {
			r.fyApp.Quit()
		}
	})
}

// Show brings the hidden window back, e.g. from the tray.
func (r *uiRuntime) Show() {
	if r.window == nil {
		return
	}
	r.window.Show()
	r.window.RequestFocus()
}

// Run blocks in the fyne event loop. The session's resources are released
// once when the loop returns, whether or not Quit was used.
func (r *uiRuntime) Run(startHidden bool) {
	if r.window != nil {
		r.window.Show()
		if startHidden {
			appLogger.Info("launch option start_hidden is enabled: hiding main window")
			r.window.Hide()
		}
	}
	if r.fyApp != nil {
		r.fyApp.Run()
	}
	appLogger.Info("UI runtime stopped")
	r.shutdownOnce.Do(func() {
		r.stop()
	})
}

func (r *uiRuntime) stop() {
	if r.stopNotifications != nil {
		r.stopNotifications()
	}
	if r.stopUIListeners != nil {
		r.stopUIListeners()
	}
	if r.onQuit != nil {
		r.onQuit()
	}
}
