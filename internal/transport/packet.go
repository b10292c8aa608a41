package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Engine.IO v4 packet types, sent as the first character of a text frame.
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
	engineUpgrade byte = '5'
	engineNoop    byte = '6'
)

// Socket.IO v5 packet types carried inside an Engine.IO message.
const (
	socketConnect      byte = '0'
	socketDisconnect   byte = '1'
	socketEvent        byte = '2'
	socketAck          byte = '3'
	socketConnectError byte = '4'
	socketBinaryEvent  byte = '5'
	socketBinaryAck    byte = '6'
)

// upgradePayload is echoed over a new websocket before the session moves.
const upgradePayload = "probe"

// payloadSeparator joins packets inside one HTTP long-polling body.
const payloadSeparator = "\x1e"

var errEmptyPacket = errors.New("empty packet")

type openPayload struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

type socketPacket struct {
	Type      byte
	Namespace string
	Data      json.RawMessage
}

func splitEnginePacket(raw string) (byte, string, error) {
	if raw == "" {
		return 0, "", errEmptyPacket
	}
	t := raw[0]
	if t < engineOpen || t > engineNoop {
		return 0, "", fmt.Errorf("unknown engine.io packet type %q", t)
	}

	return t, raw[1:], nil
}

func decodeOpen(body string) (openPayload, error) {
	var p openPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return openPayload{}, fmt.Errorf("decode open packet: %w", err)
	}
	if p.PingInterval <= 0 || p.PingTimeout <= 0 {
		return openPayload{}, fmt.Errorf("open packet without heartbeat settings: %s", body)
	}

	return p, nil
}

// decodeOpenPacket parses the first packet of a session, which must be open.
func decodeOpenPacket(raw string) (openPayload, error) {
	t, body, err := splitEnginePacket(raw)
	if err != nil {
		return openPayload{}, err
	}
	if t != engineOpen {
		return openPayload{}, fmt.Errorf("expected open packet, got %q", raw)
	}

	return decodeOpen(body)
}

func (p openPayload) canUpgradeTo(transportName string) bool {
	for _, u := range p.Upgrades {
		if u == transportName {
			return true
		}
	}

	return false
}

func encodePayload(packets []string) string {
	return strings.Join(packets, payloadSeparator)
}

func decodePayload(body string) []string {
	if body == "" {
		return nil
	}

	return strings.Split(body, payloadSeparator)
}

// decodeSocketPacket parses `<type>[<attachments>-][/<nsp>,][<ack id>][<json>]`.
func decodeSocketPacket(body string) (socketPacket, error) {
	if body == "" {
		return socketPacket{}, errEmptyPacket
	}
	p := socketPacket{Type: body[0], Namespace: "/"}
	if p.Type < socketConnect || p.Type > socketBinaryAck {
		return socketPacket{}, fmt.Errorf("unknown socket.io packet type %q", p.Type)
	}
	rest := body[1:]

	if p.Type == socketBinaryEvent || p.Type == socketBinaryAck {
		idx := strings.IndexByte(rest, '-')
		if idx < 0 {
			return socketPacket{}, fmt.Errorf("binary packet without attachment count: %q", body)
		}
		rest = rest[idx+1:]
	}
	if strings.HasPrefix(rest, "/") {
		idx := strings.IndexByte(rest, ',')
		if idx < 0 {
			p.Namespace = rest
			rest = ""
		} else {
			p.Namespace = rest[:idx]
			rest = rest[idx+1:]
		}
	}
	for rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}
	if rest != "" {
		p.Data = json.RawMessage(rest)
	}

	return p, nil
}

// decodeEventData splits `["name", arg, ...]` into the name and first argument.
func decodeEventData(data json.RawMessage) (string, json.RawMessage, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(data, &args); err != nil {
		return "", nil, fmt.Errorf("decode event array: %w", err)
	}
	if len(args) == 0 {
		return "", nil, errors.New("event without name")
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("decode event name: %w", err)
	}
	if len(args) < 2 {
		return name, nil, nil
	}

	return name, args[1], nil
}

// connectErrorMessage extracts the human message of a connect_error packet.
func connectErrorMessage(data json.RawMessage) string {
	if len(data) == 0 {
		return "connect error"
	}
	var withMessage struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &withMessage); err == nil && withMessage.Message != "" {
		return withMessage.Message
	}
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil && plain != "" {
		return plain
	}

	return string(data)
}

func encodeSocketPacket(t byte, namespace string) string {
	var b strings.Builder
	b.WriteByte(engineMessage)
	b.WriteByte(t)
	if namespace != "" && namespace != "/" {
		b.WriteString(namespace)
		b.WriteByte(',')
	}

	return b.String()
}
