package transport

import (
	"log/slog"
	"net/url"
)

func transportLogger(name string) *slog.Logger {
	return slog.With("component", "transport", "transport", name)
}

// endpointLogger tags records with the camera host, port and endpoint path
// of rawURL. The query is dropped so per-request cache busters do not split
// one camera's records.
func endpointLogger(base *slog.Logger, rawURL string) *slog.Logger {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return base.With("url", rawURL)
	}
	attrs := []any{"camera", u.Hostname()}
	if port := u.Port(); port != "" {
		attrs = append(attrs, "port", port)
	}
	if u.Path != "" && u.Path != "/" {
		attrs = append(attrs, "endpoint", u.Path)
	}

	return base.With(attrs...)
}
