package domain

const (
	LatencyGoodMS  = 50.0
	LatencyFairMS  = 150.0
	PacketLossGood = 1.0
	PacketLossFair = 5.0
)

type LinkQuality int

const (
	LinkUnknown LinkQuality = iota
	LinkBad
	LinkFair
	LinkGood
)

func (q LinkQuality) String() string {
	switch q {
	case LinkGood:
		return "good"
	case LinkFair:
		return "fair"
	case LinkBad:
		return "bad"
	default:
		return "unknown"
	}
}

// DetermineLinkQuality grades the camera link from the latest latency and
// packet loss. Both must be known, otherwise the grade is unknown.
func DetermineLinkQuality(latencyMS, packetLossPct float64, known bool) LinkQuality {
	if !known || latencyMS < 0 || packetLossPct < 0 {
		return LinkUnknown
	}
	if latencyMS <= LatencyGoodMS && packetLossPct <= PacketLossGood {
		return LinkGood
	}
	if latencyMS <= LatencyFairMS && packetLossPct <= PacketLossFair {
		return LinkFair
	}

	return LinkBad
}
