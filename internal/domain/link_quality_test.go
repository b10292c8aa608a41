package domain

import "testing"

func TestDetermineLinkQuality(t *testing.T) {
	tests := []struct {
		name    string
		latency float64
		loss    float64
		known   bool
		want    LinkQuality
	}{
		{name: "unknown without samples", latency: 10, loss: 0, known: false, want: LinkUnknown},
		{name: "unknown on negative input", latency: -1, loss: 0, known: true, want: LinkUnknown},
		{name: "good on exact boundary", latency: LatencyGoodMS, loss: PacketLossGood, known: true, want: LinkGood},
		{name: "fair on exact boundary", latency: LatencyFairMS, loss: PacketLossFair, known: true, want: LinkFair},
		{name: "fair when loss is fair", latency: 12, loss: 0.5 + PacketLossGood, known: true, want: LinkFair},
		{name: "bad when latency is high", latency: LatencyFairMS + 0.1, loss: 0, known: true, want: LinkBad},
		{name: "bad when loss is high", latency: 5, loss: PacketLossFair + 1, known: true, want: LinkBad},
	}

	for _, tt := range tests {
		if got := DetermineLinkQuality(tt.latency, tt.loss, tt.known); got != tt.want {
			t.Fatalf("%s: got %v want %v", tt.name, got, tt.want)
		}
	}
}
