package ui

import (
	"fyne.io/fyne/v2"

	"github.com/skobkin/camwatch/internal/resources"
)

type themeRuntime struct {
	fyApp               fyne.App
	view                *cameraView
	connStatusPresenter *connectionStatusPresenter
	setTrayIcon         func(fyne.ThemeVariant)
}

func newThemeRuntime(
	fyApp fyne.App,
	view *cameraView,
	connStatusPresenter *connectionStatusPresenter,
) *themeRuntime {
	return &themeRuntime{
		fyApp:               fyApp,
		view:                view,
		connStatusPresenter: connStatusPresenter,
		setTrayIcon:         func(fyne.ThemeVariant) {},
	}
}

func (r *themeRuntime) SetTrayIconSetter(setter func(fyne.ThemeVariant)) {
	if setter == nil {
		r.setTrayIcon = func(fyne.ThemeVariant) {}

		return
	}
	r.setTrayIcon = setter
}

func (r *themeRuntime) BindSettings() {
	r.fyApp.Settings().AddListener(func(_ fyne.Settings) {
		appLogger.Debug("theme settings changed")
		r.Apply(r.fyApp.Settings().ThemeVariant())
	})
}

// Apply swaps every themed icon to the variant.
func (r *themeRuntime) Apply(variant fyne.ThemeVariant) {
	appLogger.Debug("applying theme resources", "theme", variant)
	r.fyApp.SetIcon(resources.AppIconResource(variant))
	r.setTrayIcon(variant)
	if r.view != nil {
		r.view.ApplyTheme(variant)
	}
	if r.connStatusPresenter != nil {
		r.connStatusPresenter.ApplyTheme(variant)
	}
}
