package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Language selects the user-facing message table.
type Language string

const (
	LanguageIndonesian Language = "id"
	LanguageEnglish    Language = "en"

	DefaultVideoPort        = 5000
	DefaultTelemetryPort    = 5000
	DefaultVideoPath        = "/video_feed"
	DefaultConnectTimeoutMS = 15000
	DefaultSampleIntervalMS = 1000
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// ConnectionConfig describes where the camera server exposes its endpoints
// and how long the client waits for it.
type ConnectionConfig struct {
	VideoPort        int    `json:"video_port"`
	TelemetryPort    int    `json:"telemetry_port"`
	VideoPath        string `json:"video_path"`
	ConnectTimeoutMS int    `json:"connect_timeout_ms"`
	SampleIntervalMS int    `json:"sample_interval_ms"`
}

// UIConfig stores persistent UI preferences.
type UIConfig struct {
	Language      Language           `json:"language"`
	Notifications NotificationConfig `json:"notifications"`
}

// NotificationConfig stores desktop notification preferences.
type NotificationConfig struct {
	NotifyWhenFocused bool                     `json:"notify_when_focused"`
	Events            NotificationEventsConfig `json:"events"`
}

// NotificationEventsConfig stores per-event notification toggles.
type NotificationEventsConfig struct {
	ConnectionStatus bool `json:"connection_status"`
	TelemetryLost    bool `json:"telemetry_lost"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Connection ConnectionConfig `json:"connection"`
	Logging    LoggingConfig    `json:"logging"`
	UI         UIConfig         `json:"ui"`
}

func Default() AppConfig {
	return AppConfig{
		Connection: ConnectionConfig{
			VideoPort:        DefaultVideoPort,
			TelemetryPort:    DefaultTelemetryPort,
			VideoPath:        DefaultVideoPath,
			ConnectTimeoutMS: DefaultConnectTimeoutMS,
			SampleIntervalMS: DefaultSampleIntervalMS,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		UI: UIConfig{
			Language: LanguageIndonesian,
			Notifications: NotificationConfig{
				NotifyWhenFocused: false,
				Events: NotificationEventsConfig{
					ConnectionStatus: true,
					TelemetryLost:    true,
				},
			},
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Connection.VideoPort <= 0 {
		c.Connection.VideoPort = DefaultVideoPort
	}
	if c.Connection.TelemetryPort <= 0 {
		c.Connection.TelemetryPort = DefaultTelemetryPort
	}
	if strings.TrimSpace(c.Connection.VideoPath) == "" {
		c.Connection.VideoPath = DefaultVideoPath
	}
	if !strings.HasPrefix(c.Connection.VideoPath, "/") {
		c.Connection.VideoPath = "/" + c.Connection.VideoPath
	}
	if c.Connection.ConnectTimeoutMS <= 0 {
		c.Connection.ConnectTimeoutMS = DefaultConnectTimeoutMS
	}
	if c.Connection.SampleIntervalMS <= 0 {
		c.Connection.SampleIntervalMS = DefaultSampleIntervalMS
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.UI.Language = normalizeLanguage(c.UI.Language)
}

func normalizeLanguage(lang Language) Language {
	switch Language(strings.ToLower(strings.TrimSpace(string(lang)))) {
	case LanguageEnglish:
		return LanguageEnglish
	default:
		return LanguageIndonesian
	}
}

func (c AppConfig) Validate() error {
	if err := validatePort("video", c.Connection.VideoPort); err != nil {
		return err
	}
	if err := validatePort("telemetry", c.Connection.TelemetryPort); err != nil {
		return err
	}
	if c.Connection.ConnectTimeoutMS < 1000 {
		return fmt.Errorf("connect timeout must be at least 1000 ms: %d", c.Connection.ConnectTimeoutMS)
	}
	if c.Connection.SampleIntervalMS < 100 {
		return fmt.Errorf("sample interval must be at least 100 ms: %d", c.Connection.SampleIntervalMS)
	}
	switch c.UI.Language {
	case LanguageIndonesian, LanguageEnglish:
	default:
		return fmt.Errorf("unsupported language: %q", c.UI.Language)
	}

	return nil
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s port out of range: %d", name, port)
	}

	return nil
}

// ConnectTimeout returns the first-frame deadline as a duration.
func (c ConnectionConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}

// SampleInterval returns the local frame-rate sampling period.
func (c ConnectionConfig) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMS) * time.Millisecond
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
