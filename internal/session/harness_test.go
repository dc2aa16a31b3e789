package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/core/mocks"
	"github.com/ytleenf/ytclient/internal/engine/events"
	"github.com/ytleenf/ytclient/internal/engine/types"
)

var errOffline = errors.New("dial tcp 127.0.0.1:8091: connect: connection refused")

type fakeTimer struct {
	d    time.Duration
	fire chan time.Time
}

type fakeStream struct {
	sid string
	ch  chan events.Event
}

type harness struct {
	t       *testing.T
	backend *mocks.MockBackend
	client  *Client
	fs      afero.Fs

	timers  chan fakeTimer
	streams chan fakeStream

	statusMu    sync.Mutex
	status      func(sid string) (*types.StatusSnapshot, error)
	statusCalls atomic.Int64
}

func newHarness(t *testing.T, configure ...func(*Options)) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	h := &harness{
		t:       t,
		backend: mocks.NewMockBackend(ctrl),
		fs:      afero.NewMemMapFs(),
		timers:  make(chan fakeTimer, 4),
		streams: make(chan fakeStream, 8),
		status: func(string) (*types.StatusSnapshot, error) {
			return nil, errOffline
		},
	}

	h.backend.EXPECT().Status(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, sid string) (*types.StatusSnapshot, error) {
			h.statusCalls.Add(1)
			h.statusMu.Lock()
			fn := h.status
			h.statusMu.Unlock()
			return fn(sid)
		}).AnyTimes()
	h.backend.EXPECT().StreamEvents(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, sid string) (<-chan events.Event, error) {
			ch := make(chan events.Event, 16)
			h.streams <- fakeStream{sid: sid, ch: ch}
			return ch, nil
		}).AnyTimes()

	opts := Options{
		Backend:        h.backend,
		Fs:             h.fs,
		Quality:        types.DefaultQuality,
		QualityEnabled: true,
		PollInterval:   time.Hour,
		SyncPolicy:     config.PolicyLastWriteWins,
		AutoFollow:     true,
		Timer: func(d time.Duration) <-chan time.Time {
			ch := make(chan time.Time, 1)
			h.timers <- fakeTimer{d: d, fire: ch}
			return ch
		},
	}
	for _, fn := range configure {
		fn(&opts)
	}

	c, err := New(opts)
	require.NoError(t, err)
	h.client = c
	return h
}

// setStatus replaces the status endpoint behaviour.
func (h *harness) setStatus(fn func(sid string) (*types.StatusSnapshot, error)) {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()
	h.status = fn
}

// start runs the client until the test ends and returns the first push stream.
func (h *harness) start() fakeStream {
	h.t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- h.client.Run(ctx) }()
	h.t.Cleanup(func() {
		cancel()
		select {
		case err := <-runErr:
			require.NoError(h.t, err)
		case <-time.After(5 * time.Second):
			h.t.Error("client did not stop")
		}
	})
	return h.nextStream()
}

func (h *harness) nextStream() fakeStream {
	h.t.Helper()
	select {
	case s := <-h.streams:
		return s
	case <-time.After(5 * time.Second):
		h.t.Fatal("push stream was not opened")
		return fakeStream{}
	}
}

func (h *harness) nextTimer() fakeTimer {
	h.t.Helper()
	select {
	case tm := <-h.timers:
		return tm
	case <-time.After(5 * time.Second):
		h.t.Fatal("grace timer was not armed")
		return fakeTimer{}
	}
}

func (h *harness) waitFor(desc string, cond func(State) bool) State {
	h.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		st := h.client.Snapshot()
		if cond(st) {
			return st
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("timed out waiting for %s; last state: submit=%s session=%q log=%v",
				desc, st.Submit, st.SessionID, messages(st.Log))
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// barrier pushes a marker log line and waits until it is applied, so every
// event sent before it has been handled.
func (h *harness) barrier(s fakeStream, marker string) State {
	h.t.Helper()
	s.ch <- events.LogMsg{Message: marker}
	return h.waitFor("marker "+marker, func(st State) bool { return hasLog(st, marker) })
}

// join connects the stream and has it assign sid.
func (h *harness) join(s fakeStream, sid string) {
	h.t.Helper()
	s.ch <- events.ConnectMsg{}
	s.ch <- events.ConnectedMsg{SessionID: sid}
	h.waitFor("session "+sid, func(st State) bool { return st.SessionID == sid && st.Connected })
}

func hasLog(st State, substr string) bool {
	for _, e := range st.Log {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func messages(entries []LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}
