package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LastConnectionKey is the storage key holding the most recent successful connection.
const LastConnectionKey = "lastConnection"

// ErrMalformedRecord marks a stored record that cannot be decoded.
var ErrMalformedRecord = errors.New("malformed stored record")

// LastConnection is the address of the most recent successful connection.
// The JSON shape is {"ip": "...", "timestamp": <epoch millis>}.
type LastConnection struct {
	Address         string `json:"ip"`
	TimestampMillis int64  `json:"timestamp"`
}

func NewLastConnection(address string, at time.Time) LastConnection {
	return LastConnection{Address: address, TimestampMillis: at.UnixMilli()}
}

func (l LastConnection) Time() time.Time {
	if l.TimestampMillis <= 0 {
		return time.Time{}
	}

	return time.UnixMilli(l.TimestampMillis)
}

func EncodeLastConnection(l LastConnection) (string, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encode last connection: %w", err)
	}

	return string(raw), nil
}

// DecodeLastConnection parses a stored record. Anything that does not yield
// a valid address is reported as ErrMalformedRecord.
func DecodeLastConnection(raw string) (LastConnection, error) {
	var l LastConnection
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return LastConnection{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	l.Address = strings.TrimSpace(l.Address)
	if !ValidateAddress(l.Address) {
		return LastConnection{}, fmt.Errorf("%w: invalid address %q", ErrMalformedRecord, l.Address)
	}

	return l, nil
}

// ConnectionHistoryEntry aggregates successful connections to one address.
type ConnectionHistoryEntry struct {
	Address         string
	LastConnectedAt time.Time
	ConnectCount    int
}
