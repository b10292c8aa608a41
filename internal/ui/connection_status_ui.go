package ui

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	camapp "github.com/skobkin/camwatch/internal/app"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/resources"
)

// connectionStatusPresenter mirrors the connection state into the window title
// and the status icon next to the status line.
type connectionStatusPresenter struct {
	window     fyne.Window
	statusIcon *widget.Icon

	mu      sync.RWMutex
	current connectors.ConnectionStatus
}

func newConnectionStatusPresenter(
	window fyne.Window,
	initialStatus connectors.ConnectionStatus,
	initialVariant fyne.ThemeVariant,
) *connectionStatusPresenter {
	presenter := &connectionStatusPresenter{
		window:     window,
		statusIcon: widget.NewIcon(resources.UIIconResource(statusIconFor(initialStatus), initialVariant)),
		current:    initialStatus,
	}
	presenter.applyUI(initialStatus, initialVariant)

	return presenter
}

func (p *connectionStatusPresenter) StatusIcon() *widget.Icon {
	return p.statusIcon
}

func (p *connectionStatusPresenter) Set(status connectors.ConnectionStatus, variant fyne.ThemeVariant) {
	p.mu.Lock()
	p.current = status
	p.mu.Unlock()
	p.applyUI(status, variant)
}

func (p *connectionStatusPresenter) ApplyTheme(variant fyne.ThemeVariant) {
	p.mu.RLock()
	status := p.current
	p.mu.RUnlock()
	if p.statusIcon != nil {
		p.statusIcon.SetResource(resources.UIIconResource(statusIconFor(status), variant))
	}
}

func (p *connectionStatusPresenter) CurrentStatus() connectors.ConnectionStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.current
}

func (p *connectionStatusPresenter) applyUI(status connectors.ConnectionStatus, variant fyne.ThemeVariant) {
	if p.window != nil {
		p.window.SetTitle(formatWindowTitle(status))
	}
	if p.statusIcon != nil {
		p.statusIcon.SetResource(resources.UIIconResource(statusIconFor(status), variant))
	}
}

func formatConnStatus(status connectors.ConnectionStatus) string {
	state := status.State
	if state == "" {
		state = connectors.ConnectionStateIdle
	}
	text := string(state)
	if address := strings.TrimSpace(status.Address); address != "" && state != connectors.ConnectionStateIdle {
		text += " (" + address + ")"
	}
	if status.Reason != connectors.FailureNone {
		text += " [" + string(status.Reason) + "]"
	}

	return text
}

func formatWindowTitle(status connectors.ConnectionStatus) string {
	return fmt.Sprintf("%s %s - %s", camapp.Name, camapp.BuildVersion(), formatConnStatus(status))
}

func statusIconFor(status connectors.ConnectionStatus) resources.UIIcon {
	if status.State == connectors.ConnectionStateConnected {
		return resources.UIIconConnected
	}

	return resources.UIIconDisconnected
}
