package messages

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/skobkin/camwatch/internal/config"
)

//go:embed locales/*.json
var localeFS embed.FS

var localeFiles = []string{
	"locales/active.id.json",
	"locales/active.en.json",
}

// Message IDs shared by the controller and the UI.
const (
	IDInvalidAddress  = "InvalidAddress"
	IDConnecting      = "Connecting"
	IDConnected       = "Connected"
	IDTimeout         = "Timeout"
	IDVideoFailed     = "VideoFailed"
	IDTroubleshooting = "Troubleshooting"
	IDDisconnected    = "Disconnected"
	IDConnectionLost  = "ConnectionLost"
	IDConnectionError = "ConnectionError"

	LabelAddressPlaceholder = "LabelAddressPlaceholder"
	LabelConnect            = "LabelConnect"
	LabelDisconnect         = "LabelDisconnect"
	LabelAddress            = "LabelAddress"
	LabelPort               = "LabelPort"
	LabelLatency            = "LabelLatency"
	LabelPacketLoss         = "LabelPacketLoss"
	LabelJitter             = "LabelJitter"
	LabelThroughput         = "LabelThroughput"
	LabelFrameRate          = "LabelFrameRate"
	LabelResolution         = "LabelResolution"
	LabelServerFrameRate    = "LabelServerFrameRate"
	LabelServerCPU          = "LabelServerCPU"
	LabelServerMemory       = "LabelServerMemory"
	LabelLinkQuality        = "LabelLinkQuality"
	LabelNetworkPanel       = "LabelNetworkPanel"
	LabelServerPanel        = "LabelServerPanel"
	LabelNoVideo            = "LabelNoVideo"
	TrayShow                = "TrayShow"
	TrayQuit                = "TrayQuit"
	NotifyConnectedTitle    = "NotifyConnectedTitle"
	NotifyFailedTitle       = "NotifyFailedTitle"
	NotifyLostTitle         = "NotifyLostTitle"
)

// Catalog is the set of user-facing status texts the connection lifecycle emits.
type Catalog interface {
	InvalidAddress() string
	Connecting() string
	Connected() string
	Timeout() string
	VideoFailed() string
	Troubleshooting(port int) string
	Disconnected() string
	ConnectionLost() string
	ConnectionError(msg string) string
}

// Table resolves messages for one language. Missing translations fall back to Indonesian.
type Table struct {
	lang      config.Language
	localizer *i18n.Localizer
	logger    *slog.Logger
}

func NewBundle() (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.Indonesian)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, path := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, path); err != nil {
			return nil, fmt.Errorf("load message file %s: %w", path, err)
		}
	}

	return bundle, nil
}

func New(lang config.Language, logger *slog.Logger) (*Table, error) {
	bundle, err := NewBundle()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default().With("component", "messages")
	}

	return &Table{
		lang:      lang,
		localizer: i18n.NewLocalizer(bundle, string(lang), language.Indonesian.String()),
		logger:    logger,
	}, nil
}

func (t *Table) Language() config.Language {
	return t.lang
}

// Text returns the message for id, or id itself if the message is unknown.
func (t *Table) Text(id string) string {
	return t.localize(id, nil)
}

func (t *Table) localize(id string, data map[string]any) string {
	out, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		t.logger.Warn("message lookup failed", "id", id, "error", err)

		return id
	}

	return out
}

func (t *Table) InvalidAddress() string { return t.Text(IDInvalidAddress) }
func (t *Table) Connecting() string     { return t.Text(IDConnecting) }
func (t *Table) Connected() string      { return t.Text(IDConnected) }
func (t *Table) Timeout() string        { return t.Text(IDTimeout) }
func (t *Table) VideoFailed() string    { return t.Text(IDVideoFailed) }
func (t *Table) Disconnected() string   { return t.Text(IDDisconnected) }
func (t *Table) ConnectionLost() string { return t.Text(IDConnectionLost) }

func (t *Table) Troubleshooting(port int) string {
	return t.localize(IDTroubleshooting, map[string]any{"Port": port})
}

func (t *Table) ConnectionError(msg string) string {
	return t.localize(IDConnectionError, map[string]any{"Message": msg})
}
