package ui

import (
	"sync/atomic"

	"fyne.io/fyne/v2"

	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/domain"
)

// frameCoalescer keeps only the newest frame pending for the UI goroutine,
// so a slow repaint drops frames instead of queueing them.
type frameCoalescer struct {
	latest  atomic.Pointer[connectors.VideoFrame]
	pending atomic.Bool
	runOnUI func(func())
	show    func(connectors.VideoFrame)
}

func (c *frameCoalescer) Push(frame connectors.VideoFrame) {
	c.latest.Store(&frame)
	if !c.pending.CompareAndSwap(false, true) {
		return
	}
	c.runOnUI(func() {
		c.pending.Store(false)
		if f := c.latest.Swap(nil); f != nil {
			c.show(*f)
		}
	})
}

func bindPresentationListeners(
	dep RuntimeDependencies,
	fyApp fyne.App,
	view *cameraView,
	connStatusPresenter *connectionStatusPresenter,
	runOnUI func(func()),
) func() {
	if runOnUI == nil {
		runOnUI = fyne.Do
	}
	frames := &frameCoalescer{
		runOnUI: runOnUI,
		show: func(frame connectors.VideoFrame) {
			if view != nil {
				view.ShowFrame(frame.Image)
			}
		},
	}

	appLogger.Debug("starting UI event listeners")
	stop := startUIEventListeners(dep.Data.Bus, uiEventHandlers{
		OnConnStatus: func(status connectors.ConnectionStatus) {
			runOnUI(func() {
				if connStatusPresenter != nil {
					connStatusPresenter.Set(status, fyApp.Settings().ThemeVariant())
				}
				if view != nil && status.State == connectors.ConnectionStateConnected {
					view.RememberAddress(status.Address)
				}
			})
		},
		OnDashboard: func(d domain.Dashboard) {
			runOnUI(func() {
				if view != nil {
					view.ApplyDashboard(d)
				}
			})
		},
		OnVideoFrame: frames.Push,
	})

	if dep.Data.CurrentConnStatus != nil && connStatusPresenter != nil {
		if status, ok := dep.Data.CurrentConnStatus(); ok {
			connStatusPresenter.Set(status, fyApp.Settings().ThemeVariant())
		}
	}
	if dep.Data.CurrentDashboard != nil && view != nil {
		view.ApplyDashboard(dep.Data.CurrentDashboard())
	}

	return stop
}
