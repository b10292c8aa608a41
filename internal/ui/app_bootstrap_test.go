package ui

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	fynetest "fyne.io/fyne/v2/test"

	"github.com/skobkin/camwatch/internal/bus"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/domain"
	"github.com/skobkin/camwatch/internal/notifications"
)

func TestRunWithAppWiresWindowAndReleasesOnExit(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)
	app := &appRunWindowSpy{App: base}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	messageBus := bus.New(logger)
	defer messageBus.Close()

	origLogger := appLogger
	t.Cleanup(func() { appLogger = origLogger })

	var quitCalls, notificationStops int
	var notificationStarts int
	dep := RuntimeDependencies{
		Data: DataDependencies{
			Bus:             messageBus,
			Texts:           newTestTexts(t),
			InitialAddress:  "192.168.4.1",
			RecentAddresses: func() []string { return []string{"192.168.4.1", "10.0.0.2"} },
			CurrentConnStatus: func() (connectors.ConnectionStatus, bool) {
				return connectors.ConnectionStatus{State: connectors.ConnectionStateIdle}, true
			},
			CurrentDashboard: domain.NewDashboard,
		},
		Actions: ActionDependencies{
			OnConnect:    func(string) error { return nil },
			OnDisconnect: func() {},
			StartNotifications: func(sender notifications.Sender, isForeground func() bool) func() {
				notificationStarts++
				if sender == nil || isForeground == nil {
					t.Errorf("expected sender and foreground check")
				}
				if !isForeground() {
					t.Errorf("expected visible launch to start in foreground")
				}

				return func() { notificationStops++ }
			},
			OnQuit: func() { quitCalls++ },
		},
		Logger: logger,
	}

	if err := runWithApp(dep, app); err != nil {
		t.Fatalf("run UI: %v", err)
	}

	if app.runCalls != 1 {
		t.Fatalf("expected app run once, got %d", app.runCalls)
	}
	if app.createdWindow == nil {
		t.Fatalf("expected main window to be created")
	}
	if !strings.HasPrefix(app.createdWindow.Title(), "camwatch ") {
		t.Fatalf("unexpected window title %q", app.createdWindow.Title())
	}
	if app.createdWindow.closeIntercept == nil {
		t.Fatalf("expected close to be intercepted")
	}
	if app.createdWindow.showCalls != 1 || app.createdWindow.hideCalls != 0 {
		t.Fatalf("expected window shown once, show=%d hide=%d", app.createdWindow.showCalls, app.createdWindow.hideCalls)
	}
	if notificationStarts != 1 || notificationStops != 1 {
		t.Fatalf("expected notifications started and stopped once, got %d/%d", notificationStarts, notificationStops)
	}
	if quitCalls != 1 {
		t.Fatalf("expected quit callback once, got %d", quitCalls)
	}
	if appLogger != logger {
		t.Fatalf("expected runtime logger to replace the default")
	}
}
