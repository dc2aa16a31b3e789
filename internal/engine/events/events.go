package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ytleenf/ytclient/internal/engine/types"
)

// Push event names as they appear on the wire.
const (
	NameConnect    = "connect"
	NameDisconnect = "disconnect"
	NameLog        = "log_message"
	NameProgress   = "progress_update"
	NameConnected  = "connected"
)

// Event is a push channel event. The set of implementations is closed.
type Event interface {
	EventName() string
	isEvent()
}

// ConnectMsg is synthesized by the transport when the channel (re)connects.
type ConnectMsg struct{}

// DisconnectMsg is synthesized by the transport when the channel drops.
type DisconnectMsg struct {
	Err error
}

// LogMsg carries one server log line.
type LogMsg struct {
	Message string `json:"message"`
}

// ProgressMsg is a full progress snapshot.
type ProgressMsg struct {
	types.Progress
}

// ConnectedMsg confirms the channel joined a session room.
type ConnectedMsg struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
}

// UnknownMsg holds any event whose name is not recognized.
type UnknownMsg struct {
	Name string
	Data json.RawMessage
}

func (ConnectMsg) EventName() string    { return NameConnect }
func (DisconnectMsg) EventName() string { return NameDisconnect }
func (LogMsg) EventName() string        { return NameLog }
func (ProgressMsg) EventName() string   { return NameProgress }
func (ConnectedMsg) EventName() string  { return NameConnected }
func (m UnknownMsg) EventName() string  { return m.Name }

func (ConnectMsg) isEvent()    {}
func (DisconnectMsg) isEvent() {}
func (LogMsg) isEvent()        {}
func (ProgressMsg) isEvent()   {}
func (ConnectedMsg) isEvent()  {}
func (UnknownMsg) isEvent()    {}

// Frame is the envelope used by the websocket transport.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrBadPayload is returned when a known event carries an undecodable payload.
var ErrBadPayload = errors.New("bad event payload")

// Decode maps a named payload received from the server onto its concrete
// event type. Names outside the known set decode to UnknownMsg without
// error. ConnectMsg and DisconnectMsg only come from the transport, so
// server events with those names are UnknownMsg too.
func Decode(name string, data []byte) (Event, error) {
	switch name {
	case NameLog:
		var m LogMsg
		if err := unmarshal(name, data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case NameProgress:
		var m ProgressMsg
		if err := unmarshal(name, data, &m.Progress); err != nil {
			return nil, err
		}
		return m, nil
	case NameConnected:
		var m ConnectedMsg
		if err := unmarshal(name, data, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return UnknownMsg{Name: name, Data: append(json.RawMessage(nil), data...)}, nil
	}
}

// DecodeFrame decodes a websocket text frame.
func DecodeFrame(raw []byte) (Event, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: frame: %v", ErrBadPayload, err)
	}
	return Decode(f.Event, f.Data)
}

// EncodeFrame builds a websocket text frame for name and payload.
func EncodeFrame(name string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: name, Data: data})
}

func unmarshal(name string, data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, name, err)
	}
	return nil
}
