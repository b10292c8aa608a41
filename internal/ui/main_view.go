package ui

import (
	"image"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	camapp "github.com/skobkin/camwatch/internal/app"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/domain"
	"github.com/skobkin/camwatch/internal/messages"
	"github.com/skobkin/camwatch/internal/resources"
)

var videoMinSize = fyne.NewSize(480, 360)

type statField int

const (
	statAddress statField = iota
	statPort
	statLatency
	statPacketLoss
	statJitter
	statThroughput
	statFrameRate
	statResolution
	statServerFrameRate
	statServerCPU
	statServerMemory
)

var (
	networkStatFields = []statField{statAddress, statPort, statLatency, statPacketLoss, statJitter, statThroughput, statFrameRate}
	serverStatFields  = []statField{statResolution, statServerFrameRate, statServerCPU, statServerMemory}
)

func (f statField) labelID() string {
	switch f {
	case statAddress:
		return messages.LabelAddress
	case statPort:
		return messages.LabelPort
	case statLatency:
		return messages.LabelLatency
	case statPacketLoss:
		return messages.LabelPacketLoss
	case statJitter:
		return messages.LabelJitter
	case statThroughput:
		return messages.LabelThroughput
	case statFrameRate:
		return messages.LabelFrameRate
	case statResolution:
		return messages.LabelResolution
	case statServerFrameRate:
		return messages.LabelServerFrameRate
	case statServerCPU:
		return messages.LabelServerCPU
	default:
		return messages.LabelServerMemory
	}
}

func (f statField) value(d domain.Dashboard) string {
	switch f {
	case statAddress:
		return d.Address
	case statPort:
		return d.Port
	case statLatency:
		return d.Latency
	case statPacketLoss:
		return d.PacketLoss
	case statJitter:
		return d.Jitter
	case statThroughput:
		return d.Throughput
	case statFrameRate:
		return d.FrameRate
	case statResolution:
		return d.Resolution
	case statServerFrameRate:
		return d.ServerFrameRate
	case statServerCPU:
		return d.ServerCPU
	default:
		return d.ServerMemory
	}
}

// cameraView is the single window of the app: address entry and controls on
// top, the video in the middle and the statistics panels on the right.
type cameraView struct {
	texts TextSource

	addressEntry     *widget.SelectEntry
	connectButton    *widget.Button
	disconnectButton *widget.Button
	busy             *widget.ProgressBarInfinite
	statusLabel      *widget.Label
	errorLabel       *widget.Label

	video       *canvas.Image
	noVideoIcon *widget.Icon
	noVideo     *fyne.Container

	values  map[statField]*widget.Label
	quality *widget.Label

	state   connectors.ConnectionState
	recent  []string
	content fyne.CanvasObject
}

func newCameraView(
	texts TextSource,
	initialAddress string,
	recent []string,
	statusIcon fyne.CanvasObject,
	variant fyne.ThemeVariant,
	onConnect func(address string),
	onDisconnect func(),
) *cameraView {
	v := &cameraView{
		texts:  texts,
		values: make(map[statField]*widget.Label),
		state:  connectors.ConnectionStateIdle,
	}

	v.addressEntry = widget.NewSelectEntry(nil)
	v.addressEntry.SetPlaceHolder(texts.Text(messages.LabelAddressPlaceholder))
	v.addressEntry.SetText(initialAddress)
	v.SetRecentAddresses(recent)

	connect := func() {
		if onConnect != nil {
			onConnect(v.addressEntry.Text)
		}
	}
	v.addressEntry.OnSubmitted = func(string) {
		if v.connectButton.Visible() && !v.connectButton.Disabled() {
			connect()
		}
	}
	v.connectButton = widget.NewButton(texts.Text(messages.LabelConnect), connect)
	v.connectButton.Importance = widget.HighImportance
	v.disconnectButton = widget.NewButton(texts.Text(messages.LabelDisconnect), func() {
		if onDisconnect != nil {
			onDisconnect()
		}
	})
	v.disconnectButton.Importance = widget.DangerImportance
	v.disconnectButton.Hide()

	v.busy = widget.NewProgressBarInfinite()
	v.busy.Stop()
	v.busy.Hide()
	v.statusLabel = widget.NewLabel("")
	v.errorLabel = widget.NewLabel("")
	v.errorLabel.Wrapping = fyne.TextWrapWord
	v.errorLabel.Importance = widget.DangerImportance
	v.errorLabel.Hide()

	v.video = canvas.NewImageFromImage(nil)
	v.video.FillMode = canvas.ImageFillContain
	v.video.ScaleMode = canvas.ImageScaleFastest
	v.video.SetMinSize(videoMinSize)
	v.video.Hide()
	v.noVideoIcon = widget.NewIcon(resources.UIIconResource(resources.UIIconNoVideo, variant))
	v.noVideo = container.NewCenter(container.NewVBox(
		container.NewGridWrap(fyne.NewSize(64, 64), v.noVideoIcon),
		widget.NewLabelWithStyle(texts.Text(messages.LabelNoVideo), fyne.TextAlignCenter, fyne.TextStyle{}),
	))

	v.quality = widget.NewLabel(domain.Placeholder)

	controls := container.NewHBox(v.connectButton, v.disconnectButton)
	top := container.NewVBox(
		container.NewBorder(nil, nil, nil, controls, v.addressEntry),
		container.NewBorder(nil, nil, statusIcon, nil, container.NewStack(v.busy, v.statusLabel)),
		v.errorLabel,
	)
	videoArea := container.NewStack(v.noVideo, v.video)
	side := container.NewVBox(
		widget.NewCard(texts.Text(messages.LabelNetworkPanel), "", v.statsForm(networkStatFields)),
		widget.NewCard(texts.Text(messages.LabelServerPanel), "", v.statsForm(serverStatFields)),
		container.New(layout.NewFormLayout(),
			widget.NewLabelWithStyle(texts.Text(messages.LabelLinkQuality), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			v.quality,
		),
	)
	v.content = container.NewBorder(top, nil, nil, container.NewVScroll(side), videoArea)
	v.ApplyDashboard(domain.NewDashboard())

	return v
}

func (v *cameraView) statsForm(fields []statField) fyne.CanvasObject {
	form := container.New(layout.NewFormLayout())
	for _, field := range fields {
		value := widget.NewLabel(domain.Placeholder)
		v.values[field] = value
		form.Add(widget.NewLabelWithStyle(v.texts.Text(field.labelID()), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
		form.Add(value)
	}

	return form
}

func (v *cameraView) Content() fyne.CanvasObject {
	return v.content
}

// ApplyDashboard renders a controller snapshot. Must run on the UI goroutine.
func (v *cameraView) ApplyDashboard(d domain.Dashboard) {
	v.state = d.State

	v.statusLabel.SetText(d.Status)
	v.statusLabel.Importance = importanceForTone(d.Tone)
	v.statusLabel.Refresh()
	if d.Busy {
		v.busy.Show()
		v.busy.Start()
	} else {
		v.busy.Stop()
		v.busy.Hide()
	}

	v.errorLabel.SetText(d.Error)
	if strings.TrimSpace(d.Error) == "" {
		v.errorLabel.Hide()
	} else {
		v.errorLabel.Show()
	}

	setVisible(v.connectButton, d.ConnectVisible)
	if d.ConnectEnabled {
		v.connectButton.Enable()
	} else {
		v.connectButton.Disable()
	}
	setVisible(v.disconnectButton, d.DisconnectVisible)

	for field, label := range v.values {
		label.SetText(field.value(d))
	}
	v.quality.SetText(linkBarsOrPlaceholder(d.Quality))
	v.quality.Importance = importanceForQuality(d.Quality)
	v.quality.Refresh()

	if !videoExpected(d.State) {
		v.ClearVideo()
	}
}

// ShowFrame replaces the displayed video frame. Frames that arrive after the
// session ended are dropped.
func (v *cameraView) ShowFrame(img image.Image) {
	if img == nil || !videoExpected(v.state) {
		return
	}
	v.video.Image = img
	v.video.Show()
	v.noVideo.Hide()
	v.video.Refresh()
}

func (v *cameraView) ClearVideo() {
	if v.video.Image == nil && !v.video.Visible() {
		return
	}
	v.video.Image = nil
	v.video.Hide()
	v.noVideo.Show()
}

// SetRecentAddresses replaces the dropdown options of the address entry.
func (v *cameraView) SetRecentAddresses(addresses []string) {
	v.recent = append(v.recent[:0], addresses...)
	v.addressEntry.SetOptions(append([]string(nil), v.recent...))
}

// RememberAddress moves address to the front of the recent list.
func (v *cameraView) RememberAddress(address string) {
	address = strings.TrimSpace(address)
	if address == "" {
		return
	}
	next := []string{address}
	for _, a := range v.recent {
		if a != address && len(next) < camapp.RecentAddressesLimit {
			next = append(next, a)
		}
	}
	v.SetRecentAddresses(next)
}

func (v *cameraView) ApplyTheme(variant fyne.ThemeVariant) {
	v.noVideoIcon.SetResource(resources.UIIconResource(resources.UIIconNoVideo, variant))
}

func videoExpected(state connectors.ConnectionState) bool {
	return state == connectors.ConnectionStateConnecting || state == connectors.ConnectionStateConnected
}

func importanceForTone(tone domain.StatusTone) widget.Importance {
	switch tone {
	case domain.ToneSuccess:
		return widget.SuccessImportance
	case domain.ToneDanger:
		return widget.DangerImportance
	case domain.ToneInfo:
		return widget.HighImportance
	default:
		return widget.MediumImportance
	}
}

func setVisible(obj fyne.CanvasObject, visible bool) {
	if visible {
		obj.Show()
	} else {
		obj.Hide()
	}
}
