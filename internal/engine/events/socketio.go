package events

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Engine.IO v4 packet types, the first byte of every text frame.
const (
	EIOOpen    byte = '0'
	EIOClose   byte = '1'
	EIOPing    byte = '2'
	EIOPong    byte = '3'
	EIOMessage byte = '4'
)

// Socket.IO v5 packet types, the byte following EIOMessage.
const (
	SIOConnect      byte = '0'
	SIODisconnect   byte = '1'
	SIOEvent        byte = '2'
	SIOConnectError byte = '4'
)

// OpenPacket is the Engine.IO handshake sent by the server.
type OpenPacket struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"` // milliseconds
	PingTimeout  int      `json:"pingTimeout"`  // milliseconds
	MaxPayload   int      `json:"maxPayload,omitempty"`
}

// DecodeEventArgs decodes the body of a Socket.IO EVENT packet, the JSON
// array ["name", payload]. A namespace prefix ("/nsp,") and an ack id are
// skipped.
func DecodeEventArgs(body []byte) (Event, error) {
	if len(body) > 0 && body[0] == '/' {
		if i := bytes.IndexByte(body, ','); i >= 0 {
			body = body[i+1:]
		}
	}
	body = bytes.TrimLeft(body, "0123456789")

	var args []json.RawMessage
	if err := json.Unmarshal(body, &args); err != nil {
		return nil, fmt.Errorf("%w: socket.io event: %v", ErrBadPayload, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: socket.io event without a name", ErrBadPayload)
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return nil, fmt.Errorf("%w: socket.io event name: %v", ErrBadPayload, err)
	}
	var data []byte
	if len(args) > 1 {
		data = args[1]
	}
	return Decode(name, data)
}

// EncodeEvent builds the Engine.IO text frame carrying a Socket.IO EVENT.
func EncodeEvent(name string, payload any) ([]byte, error) {
	args, err := json.Marshal([]any{name, payload})
	if err != nil {
		return nil, err
	}
	return append([]byte{EIOMessage, SIOEvent}, args...), nil
}
