package ui

import (
	"image"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	fynetest "fyne.io/fyne/v2/test"

	"github.com/skobkin/camwatch/internal/bus"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/domain"
)

// uiQueue stands in for fyne.Do: callbacks are queued by listener goroutines
// and executed by the test goroutine.
type uiQueue chan func()

func (q uiQueue) run(fn func()) {
	q <- fn
}

func (q uiQueue) drainUntil(t *testing.T, check func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !check() {
		select {
		case fn := <-q:
			fn()
		case <-deadline:
			t.Fatalf("condition was not met before timeout")
		}
	}
}

func TestBindPresentationListenersAppliesInitialAndLiveUpdates(t *testing.T) {
	app := fynetest.NewApp()
	t.Cleanup(app.Quit)

	window := app.NewWindow("bindings")
	variant := app.Settings().ThemeVariant()
	presenter := newConnectionStatusPresenter(window, connectors.ConnectionStatus{}, variant)
	view := newCameraView(newTestTexts(t), "", nil, presenter.StatusIcon(), variant, nil, nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	messageBus := bus.New(logger)
	defer messageBus.Close()

	initial := domain.NewDashboard()
	initial.Status = "Connecting..."
	initial.State = connectors.ConnectionStateConnecting
	initial.Busy = true

	dep := RuntimeDependencies{
		Data: DataDependencies{
			Bus: messageBus,
			CurrentConnStatus: func() (connectors.ConnectionStatus, bool) {
				return connectors.ConnectionStatus{
					State:   connectors.ConnectionStateConnecting,
					Address: "10.0.0.5",
				}, true
			},
			CurrentDashboard: func() domain.Dashboard { return initial },
		},
	}

	queue := make(uiQueue, 64)
	stop := bindPresentationListeners(dep, app, view, presenter, queue.run)
	defer stop()

	if !strings.Contains(window.Title(), "connecting (10.0.0.5)") {
		t.Fatalf("expected initial status in title, got %q", window.Title())
	}
	if view.statusLabel.Text != "Connecting..." || !view.busy.Visible() {
		t.Fatalf("expected initial dashboard to be applied, status=%q busy=%v", view.statusLabel.Text, view.busy.Visible())
	}

	connected := domain.NewDashboard()
	connected.State = connectors.ConnectionStateConnected
	connected.Status = "Connected"
	connected.Address = "10.0.0.5"
	connected.ConnectVisible = false
	connected.DisconnectVisible = true

	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{
		State:   connectors.ConnectionStateConnected,
		Address: "10.0.0.5",
	})
	messageBus.Publish(connectors.TopicDashboard, connected)
	messageBus.Publish(connectors.TopicVideoFrame, connectors.VideoFrame{Image: image.NewGray(image.Rect(0, 0, 4, 3))})

	queue.drainUntil(t, func() bool {
		return presenter.CurrentStatus().State == connectors.ConnectionStateConnected &&
			view.statusLabel.Text == "Connected" &&
			view.video.Image != nil
	})

	if !strings.Contains(window.Title(), "connected (10.0.0.5)") {
		t.Fatalf("unexpected title %q", window.Title())
	}
	if len(view.recent) != 1 || view.recent[0] != "10.0.0.5" {
		t.Fatalf("expected connected address to be remembered, got %v", view.recent)
	}
	if view.connectButton.Visible() || !view.disconnectButton.Visible() {
		t.Fatalf("expected disconnect control only while connected")
	}
	if view.values[statAddress].Text != "10.0.0.5" {
		t.Fatalf("expected address value, got %q", view.values[statAddress].Text)
	}

	messageBus.Publish(connectors.TopicDashboard, domain.NewDashboard())
	queue.drainUntil(t, func() bool {
		return view.state == connectors.ConnectionStateIdle
	})
	if view.video.Image != nil || view.video.Visible() {
		t.Fatalf("expected video to be cleared when the session ends")
	}
}

func TestFrameCoalescerKeepsOnlyLatestPendingFrame(t *testing.T) {
	queue := make(uiQueue, 8)
	var shown []uint64
	coalescer := &frameCoalescer{
		runOnUI: queue.run,
		show: func(frame connectors.VideoFrame) {
			shown = append(shown, frame.Seq)
		},
	}

	coalescer.Push(connectors.VideoFrame{Seq: 1})
	coalescer.Push(connectors.VideoFrame{Seq: 2})
	coalescer.Push(connectors.VideoFrame{Seq: 3})
	if len(queue) != 1 {
		t.Fatalf("expected one scheduled repaint, got %d", len(queue))
	}
	(<-queue)()
	if len(shown) != 1 || shown[0] != 3 {
		t.Fatalf("expected only the newest frame, got %v", shown)
	}

	coalescer.Push(connectors.VideoFrame{Seq: 4})
	if len(queue) != 1 {
		t.Fatalf("expected a new repaint after the previous one ran, got %d", len(queue))
	}
	(<-queue)()
	if len(shown) != 2 || shown[1] != 4 {
		t.Fatalf("expected frame 4 to be shown, got %v", shown)
	}
}
