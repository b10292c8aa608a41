package ui

import (
	"testing"

	fynetest "fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
)

func TestConfigureSystemTrayDesktopApp(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)

	app := &trayAppSpy{App: base}
	var showCalls, quitCalls int

	setTrayIcon := configureSystemTray(app, newTestTexts(t), theme.VariantLight,
		func() { showCalls++ },
		func() { quitCalls++ },
	)
	if setTrayIcon == nil {
		t.Fatalf("expected tray icon setter")
	}
	if app.trayIcon == nil {
		t.Fatalf("expected initial tray icon to be set")
	}
	if app.trayMenu == nil {
		t.Fatalf("expected tray menu to be configured")
	}
	if len(app.trayMenu.Items) != 2 {
		t.Fatalf("expected two tray menu items, got %d", len(app.trayMenu.Items))
	}
	if app.trayMenu.Items[0].Label != "Show" || app.trayMenu.Items[1].Label != "Quit" {
		t.Fatalf("unexpected tray labels: %q, %q", app.trayMenu.Items[0].Label, app.trayMenu.Items[1].Label)
	}

	setTrayIcon(theme.VariantDark)
	if app.trayIcon == nil {
		t.Fatalf("expected tray icon after theme change")
	}

	app.trayMenu.Items[0].Action()
	if showCalls != 1 {
		t.Fatalf("expected show action once, got %d", showCalls)
	}

	app.trayMenu.Items[1].Action()
	if quitCalls != 1 {
		t.Fatalf("expected quit action callback once, got %d", quitCalls)
	}
}

func TestConfigureSystemTrayNonDesktopAppReturnsNoopSetter(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)

	app := &basicAppWrapper{App: base}
	setTrayIcon := configureSystemTray(app, newTestTexts(t), theme.VariantLight, nil, nil)
	if setTrayIcon == nil {
		t.Fatalf("expected non-nil setter for non-desktop app")
	}

	setTrayIcon(theme.VariantDark)
}
