package core

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/engine/events"
	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/utils"
)

// StreamEvents returns a channel that receives push events for sessionID.
// The stream reconnects with exponential backoff until ctx is done and
// synthesizes ConnectMsg and DisconnectMsg around each connection.
func (s *RemoteService) StreamEvents(ctx context.Context, sessionID string) (<-chan events.Event, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var connect func(context.Context, string, chan<- events.Event) (bool, error)
	switch s.Transport {
	case config.TransportSocketIO:
		connect = s.connectSocketIO
	case config.TransportWebSocket:
		connect = s.connectWebSocket
	case config.TransportSSE:
		connect = s.connectSSE
	default:
		return nil, fmt.Errorf("unknown push transport %q", s.Transport)
	}

	ch := make(chan events.Event, types.EventChannelBuffer)
	go s.streamWithReconnect(ctx, sessionID, ch, connect)
	return ch, nil
}

func (s *RemoteService) streamWithReconnect(ctx context.Context, sessionID string, ch chan events.Event,
	connect func(context.Context, string, chan<- events.Event) (bool, error)) {
	defer close(ch)
	backoff := s.ReconnectBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		connected, err := connect(ctx, sessionID, ch)
		if ctx.Err() != nil {
			return
		}
		if connected {
			if !emit(ctx, ch, events.DisconnectMsg{Err: err}) {
				return
			}
			backoff = s.ReconnectBackoff
		}
		utils.Debug("push stream (%s) lost: %v, retrying in %s", s.Transport, err, backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if backoff < s.MaxReconnectDelay {
			backoff = min(backoff*2, s.MaxReconnectDelay)
		}
	}
}

func emit(ctx context.Context, ch chan<- events.Event, ev events.Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// errEngineClosed is returned when the server ends a socket.io session.
var errEngineClosed = errors.New("socket.io session closed by server")

// socketURL maps the base URL plus path onto its ws:// or wss:// form.
func (s *RemoteService) socketURL(path string) string {
	u := s.BaseURL + path
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// connectWebSocket reads {"event","data"} text frames until the connection
// drops. It reports whether the handshake succeeded.
func (s *RemoteService) connectWebSocket(ctx context.Context, sessionID string, ch chan<- events.Event) (bool, error) {
	conn, resp, err := s.Dialer.DialContext(ctx, s.socketURL(types.PathSocket), s.headers(sessionID))
	if err != nil {
		return false, dialError(resp, err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock ReadMessage when the caller goes away
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if !emit(ctx, ch, events.ConnectMsg{}) {
		return true, ctx.Err()
	}

	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		if mt != websocket.TextMessage {
			continue
		}
		ev, err := events.DecodeFrame(raw)
		if err != nil {
			utils.Warn("push frame dropped: %v", err)
			continue
		}
		if !emit(ctx, ch, ev) {
			return true, ctx.Err()
		}
	}
}

// connectSocketIO speaks Engine.IO v4 over a websocket and joins the default
// Socket.IO namespace. The server picks the session room from the session
// header of the handshake request. ConnectMsg is emitted once the namespace
// is joined; server pings are answered with pongs.
func (s *RemoteService) connectSocketIO(ctx context.Context, sessionID string, ch chan<- events.Event) (bool, error) {
	target := s.socketURL(types.PathSocketIO) + "?EIO=4&transport=websocket"
	conn, resp, err := s.Dialer.DialContext(ctx, target, s.headers(sessionID))
	if err != nil {
		return false, dialError(resp, err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return false, &TransportError{Op: "socket.io handshake", Err: err}
	}
	if len(raw) == 0 || raw[0] != events.EIOOpen {
		return false, &TransportError{Op: "socket.io handshake", Err: fmt.Errorf("%w: unexpected packet %q", ErrMalformedResponse, raw)}
	}
	var open events.OpenPacket
	if err := json.Unmarshal(raw[1:], &open); err != nil {
		return false, &TransportError{Op: "socket.io handshake", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte{events.EIOMessage, events.SIOConnect}); err != nil {
		return false, &TransportError{Op: "socket.io connect", Err: err}
	}

	// Silence past one ping cycle means the link is dead
	timeout := time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond

	joined := false
	join := func() bool {
		if joined {
			return true
		}
		joined = true
		return emit(ctx, ch, events.ConnectMsg{})
	}

	for {
		if timeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(timeout))
		}
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			return joined, err
		}
		if mt != websocket.TextMessage || len(raw) == 0 {
			continue
		}

		switch raw[0] {
		case events.EIOPing:
			if err := conn.WriteMessage(websocket.TextMessage, []byte{events.EIOPong}); err != nil {
				return joined, err
			}
		case events.EIOClose:
			return joined, errEngineClosed
		case events.EIOMessage:
			if len(raw) < 2 {
				continue
			}
			body := raw[2:]
			switch raw[1] {
			case events.SIOConnect:
				if !join() {
					return true, ctx.Err()
				}
			case events.SIOConnectError:
				return joined, &TransportError{Op: "socket.io connect", Err: fmt.Errorf("refused: %s", body)}
			case events.SIODisconnect:
				return joined, errEngineClosed
			case events.SIOEvent:
				// Events emitted from the server's connect handler may
				// precede the namespace acknowledgement
				if !join() {
					return true, ctx.Err()
				}
				ev, err := events.DecodeEventArgs(body)
				if err != nil {
					utils.Warn("push packet dropped: %v", err)
					continue
				}
				if !emit(ctx, ch, ev) {
					return true, ctx.Err()
				}
			}
		}
	}
}

func dialError(resp *http.Response, err error) error {
	if resp != nil {
		return &TransportError{Op: "open push channel", Err: fmt.Errorf("%w (%s)", err, resp.Status)}
	}
	return &TransportError{Op: "open push channel", Err: err}
}

// connectSSE reads "event:"/"data:" blocks from the event stream.
func (s *RemoteService) connectSSE(ctx context.Context, sessionID string, ch chan<- events.Event) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+types.PathEvents, nil)
	if err != nil {
		return false, err
	}
	req.Header = s.headers(sessionID)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.StreamClient.Do(req)
	if err != nil {
		return false, &TransportError{Op: "open push channel", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, &APIError{StatusCode: resp.StatusCode}
	}

	if !emit(ctx, ch, events.ConnectMsg{}) {
		return true, ctx.Err()
	}

	reader := bufio.NewReader(resp.Body)
	for {
		eventType := ""
		var dataLines []string

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return true, err
			}
			line = strings.TrimRight(line, "\r\n")

			// Blank line dispatches event
			if line == "" {
				break
			}
			// Comment/heartbeat
			if strings.HasPrefix(line, ":") {
				continue
			}
			if v, ok := strings.CutPrefix(line, "event:"); ok {
				eventType = strings.TrimSpace(v)
				continue
			}
			if v, ok := strings.CutPrefix(line, "data:"); ok {
				dataLines = append(dataLines, strings.TrimPrefix(v, " "))
			}
		}

		if eventType == "" {
			continue
		}
		ev, err := events.Decode(eventType, []byte(strings.Join(dataLines, "\n")))
		if err != nil {
			utils.Warn("push event dropped: %v", err)
			continue
		}
		if !emit(ctx, ch, ev) {
			return true, ctx.Err()
		}
	}
}
