package transport

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestEndpointLogger(t *testing.T) {
	tests := []struct {
		raw      string
		want     []string
		notWants []string
	}{
		{
			raw:      "http://192.168.1.5:5000/video_feed?ts=1700000000000",
			want:     []string{"camera=192.168.1.5", "port=5000", "endpoint=/video_feed"},
			notWants: []string{"ts=", "url="},
		},
		{
			raw:      "http://10.0.0.1:5000",
			want:     []string{"camera=10.0.0.1", "port=5000"},
			notWants: []string{"endpoint="},
		},
		{
			raw:  "not a url",
			want: []string{`url="not a url"`},
		},
	}

	for _, tc := range tests {
		var buf bytes.Buffer
		endpointLogger(slog.New(slog.NewTextHandler(&buf, nil)), tc.raw).Info("x")
		line := buf.String()
		for _, w := range tc.want {
			if !strings.Contains(line, w) {
				t.Fatalf("%q: expected %s in %q", tc.raw, w, line)
			}
		}
		for _, nw := range tc.notWants {
			if strings.Contains(line, nw) {
				t.Fatalf("%q: unexpected %s in %q", tc.raw, nw, line)
			}
		}
	}
}
