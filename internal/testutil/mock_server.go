// Package testutil provides testing utilities for the ytclient backend client.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ytleenf/ytclient/internal/engine/events"
	"github.com/ytleenf/ytclient/internal/engine/types"
)

// DefaultSessionID is assigned to requests that carry no session header.
const DefaultSessionID = "3f1c9a52-7d1e-4c4b-9d7e-1a2b3c4d5e6f"

// MockServer is a configurable fake of the download backend.
type MockServer struct {
	Server *httptest.Server

	// Configuration
	SessionID     string
	SubmitStatus  int    // non-zero: reject submissions with this status
	SubmitError   string // error text sent with SubmitStatus
	UploadStatus  int
	UploadError   string
	UploadLatency time.Duration
	StatusStatus  int  // non-zero: fail GET /api/status with this status
	StatusHTML    bool // serve an HTML page from GET /api/status
	Downloading   bool
	Progress      types.Progress
	Cookies       types.CookieStatus
	Files         map[string][]byte
	Disposition   map[string]string // overrides the Content-Disposition filename
	FileOrder     []string          // listing order, as added

	// Tracking
	SubmitRequests atomic.Int64
	StatusRequests atomic.Int64
	UploadRequests atomic.Int64
	FilesRequests  atomic.Int64
	FetchRequests  atomic.Int64
	Pongs          atomic.Int64 // socket.io pong packets received

	mu          sync.Mutex
	lastSubmit  types.DownloadRequest
	running     bool // a submitted job has not reported completion yet
	lastHeaders http.Header
	lastUpload  []byte
	uploadName  string
	subscribers map[int]chan events.Frame
	nextSub     int
	joined      []string

	upgrader websocket.Upgrader
}

// MockServerOption is a function that configures a MockServer.
type MockServerOption func(*MockServer)

// WithSessionID sets the id handed out to requests without a session header.
func WithSessionID(id string) MockServerOption {
	return func(m *MockServer) {
		m.SessionID = id
	}
}

// WithSubmitError makes POST /api/download fail with status and message.
func WithSubmitError(status int, msg string) MockServerOption {
	return func(m *MockServer) {
		m.SubmitStatus = status
		m.SubmitError = msg
	}
}

// WithUploadError makes POST /upload_cookies fail with status and message.
func WithUploadError(status int, msg string) MockServerOption {
	return func(m *MockServer) {
		m.UploadStatus = status
		m.UploadError = msg
	}
}

// WithUploadLatency delays the upload response.
func WithUploadLatency(d time.Duration) MockServerOption {
	return func(m *MockServer) {
		m.UploadLatency = d
	}
}

// WithStatusError makes GET /api/status fail with status.
func WithStatusError(status int) MockServerOption {
	return func(m *MockServer) {
		m.StatusStatus = status
	}
}

// WithStatusHTML makes GET /api/status answer with an HTML page.
func WithStatusHTML() MockServerOption {
	return func(m *MockServer) {
		m.StatusHTML = true
	}
}

// WithDownloading reports an active job with the given progress.
func WithDownloading(p types.Progress) MockServerOption {
	return func(m *MockServer) {
		m.Downloading = true
		m.Progress = p
	}
}

// WithCookies sets the cookie status in status snapshots.
func WithCookies(c types.CookieStatus) MockServerOption {
	return func(m *MockServer) {
		m.Cookies = c
	}
}

// WithFile adds a finished file to the session listing. Files are listed
// in the order they were added.
func WithFile(name string, data []byte) MockServerOption {
	return func(m *MockServer) {
		if _, ok := m.Files[name]; !ok {
			m.FileOrder = append(m.FileOrder, name)
		}
		m.Files[name] = data
	}
}

// WithDisposition serves name with a different attachment filename.
func WithDisposition(name, filename string) MockServerOption {
	return func(m *MockServer) {
		m.Disposition[name] = filename
	}
}

func newMockServer(opts []MockServerOption) *MockServer {
	m := &MockServer{
		SessionID:   DefaultSessionID,
		Progress:    types.Progress{Status: types.StatusIdle},
		Files:       make(map[string][]byte),
		Disposition: make(map[string]string),
		subscribers: make(map[int]chan events.Frame),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMockServer creates a new fake backend with the given options.
func NewMockServer(opts ...MockServerOption) *MockServer {
	m := newMockServer(opts)
	m.Server = NewHTTPServer(m.Router())
	return m
}

// NewMockServerT creates a new fake backend and skips the test if binding fails.
func NewMockServerT(t *testing.T, opts ...MockServerOption) *MockServer {
	t.Helper()
	m := newMockServer(opts)
	m.Server = NewHTTPServerT(t, m.Router())
	t.Cleanup(m.Close)
	return m
}

// Router returns the backend's routes.
func (m *MockServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Post(types.PathDownload, m.handleSubmit)
	r.Get(types.PathStatus, m.handleStatus)
	r.Post(types.PathUpload, m.handleUpload)
	r.Get(types.PathFiles+"{session_id}", m.handleFiles)
	r.Get("/download_file/{session_id}/{name}", m.handleFetch)
	r.Get(types.PathSocketIO, m.handleSocketIO)
	r.Get(types.PathSocket, m.handleSocket)
	r.Get(types.PathEvents, m.handleEvents)
	return r
}

// URL returns the server's URL.
func (m *MockServer) URL() string {
	return m.Server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	if m.Server != nil {
		m.Server.CloseClientConnections()
		m.Server.Close()
	}
}

// Reset clears all tracking counters.
func (m *MockServer) Reset() {
	m.SubmitRequests.Store(0)
	m.StatusRequests.Store(0)
	m.UploadRequests.Store(0)
	m.FilesRequests.Store(0)
	m.FetchRequests.Store(0)
}

// LastSubmit returns the body of the most recent download request.
func (m *MockServer) LastSubmit() types.DownloadRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSubmit
}

// LastHeaders returns the headers of the most recent REST request.
func (m *MockServer) LastHeaders() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeaders.Clone()
}

// LastUpload returns the name and content of the most recent cookie upload.
func (m *MockServer) LastUpload() (string, []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploadName, m.lastUpload
}

// Joined returns the session ids push subscribers connected with, in order.
func (m *MockServer) Joined() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.joined...)
}

// Subscribers returns the number of connected push clients.
func (m *MockServer) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// WaitForSubscribers blocks until n push clients are connected.
func (m *MockServer) WaitForSubscribers(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for m.Subscribers() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d push subscribers (have %d)", n, m.Subscribers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Emit sends a push event to every connected client.
func (m *MockServer) Emit(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	frame := events.Frame{Event: name, Data: data}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers {
		ch <- frame
	}
}

// EmitProgress sends a progress_update event. The snapshot becomes the
// status progress, and a completed one ends the running job.
func (m *MockServer) EmitProgress(p types.Progress) {
	m.mu.Lock()
	m.Progress = p
	if p.Status == types.StatusCompleted {
		m.running = false
	}
	m.mu.Unlock()
	m.Emit(events.NameProgress, p)
}

// EmitLog sends a log_message event.
func (m *MockServer) EmitLog(msg string) {
	m.Emit(events.NameLog, events.LogMsg{Message: msg})
}

func (m *MockServer) subscribe(sid string) (int, chan events.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan events.Frame, 64)
	m.subscribers[id] = ch
	m.joined = append(m.joined, sid)
	return id, ch
}

func (m *MockServer) unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, id)
}

func (m *MockServer) session(r *http.Request) string {
	m.mu.Lock()
	m.lastHeaders = r.Header.Clone()
	m.mu.Unlock()
	if sid := r.Header.Get(types.SessionHeader); sid != "" {
		return sid
	}
	return m.SessionID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (m *MockServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	m.SubmitRequests.Add(1)
	sid := m.session(r)

	var req types.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "invalid request"})
		return
	}
	m.mu.Lock()
	m.lastSubmit = req
	m.mu.Unlock()

	if m.SubmitStatus != 0 {
		writeJSON(w, m.SubmitStatus, types.ErrorResponse{Error: m.SubmitError})
		return
	}
	m.mu.Lock()
	m.running = true
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, types.DownloadResponse{
		Message:   fmt.Sprintf("Started downloading %d videos", len(req.URLs)),
		SessionID: sid,
	})
}

func (m *MockServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	m.StatusRequests.Add(1)
	sid := m.session(r)

	if m.StatusHTML {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><body>Bad Gateway</body></html>")
		return
	}
	if m.StatusStatus != 0 {
		writeJSON(w, m.StatusStatus, types.ErrorResponse{Error: "status unavailable"})
		return
	}

	m.mu.Lock()
	downloading, progress := m.Downloading || m.running, m.Progress
	m.mu.Unlock()

	ffmpeg := true
	writeJSON(w, http.StatusOK, types.StatusSnapshot{
		SessionID:       sid,
		DownloadDir:     "downloads/session_" + sid,
		IsDownloading:   downloading,
		Progress:        progress,
		Cookies:         m.Cookies,
		FFmpegAvailable: &ffmpeg,
		QualityOptions:  types.Qualities,
		DownloadCount:   len(m.Files),
	})
}

func (m *MockServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	m.UploadRequests.Add(1)
	sid := m.session(r)

	file, header, err := r.FormFile(types.CookieFormField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "no file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()
	data, _ := io.ReadAll(file)

	m.mu.Lock()
	m.uploadName = header.Filename
	m.lastUpload = data
	m.mu.Unlock()

	if m.UploadLatency > 0 {
		select {
		case <-time.After(m.UploadLatency):
		case <-r.Context().Done():
			return
		}
	}
	if m.UploadStatus != 0 {
		writeJSON(w, m.UploadStatus, types.ErrorResponse{Error: m.UploadError})
		return
	}
	writeJSON(w, http.StatusOK, types.UploadResponse{
		Success:   true,
		Message:   "Cookies uploaded successfully",
		SessionID: sid,
	})
}

func (m *MockServer) handleFiles(w http.ResponseWriter, r *http.Request) {
	m.FilesRequests.Add(1)
	m.session(r)
	sid := chi.URLParam(r, "session_id")

	listing := types.FileListing{Files: []types.FileEntry{}}
	for _, name := range m.FileOrder {
		data := m.Files[name]
		listing.Files = append(listing.Files, types.FileEntry{
			Name: name,
			Size: int64(len(data)),
			URL:  "/download_file/" + sid + "/" + name,
		})
	}
	writeJSON(w, http.StatusOK, listing)
}

func (m *MockServer) handleFetch(w http.ResponseWriter, r *http.Request) {
	m.FetchRequests.Add(1)
	m.session(r)
	name := chi.URLParam(r, "name")
	data, ok := m.Files[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, types.ErrorResponse{Error: "file not found"})
		return
	}
	filename := name
	if d, ok := m.Disposition[name]; ok {
		filename = d
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	_, _ = w.Write(data)
}

func (m *MockServer) handleSocket(w http.ResponseWriter, r *http.Request) {
	sid := m.session(r)
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	id, ch := m.subscribe(sid)
	defer m.unsubscribe(id)

	hello, _ := events.EncodeFrame(events.NameConnected, events.ConnectedMsg{SessionID: sid})
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case f := <-ch:
			raw, _ := json.Marshal(f)
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// handleSocketIO serves the Engine.IO v4 websocket transport: open packet,
// namespace connect, a "connected" event for the session room, one ping,
// then every emitted event.
func (m *MockServer) handleSocketIO(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("EIO") != "4" || q.Get("transport") != "websocket" {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "unsupported transport"})
		return
	}
	sid := m.session(r)
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	write := func(p []byte) error { return conn.WriteMessage(websocket.TextMessage, p) }

	open, _ := json.Marshal(events.OpenPacket{SID: "eio-" + sid, Upgrades: []string{}, PingInterval: 25000, PingTimeout: 20000})
	if err := write(append([]byte{events.EIOOpen}, open...)); err != nil {
		return
	}
	if _, raw, err := conn.ReadMessage(); err != nil || string(raw) != string([]byte{events.EIOMessage, events.SIOConnect}) {
		return
	}

	id, ch := m.subscribe(sid)
	defer m.unsubscribe(id)

	ack, _ := json.Marshal(map[string]string{"sid": "sio-" + sid})
	if err := write(append([]byte{events.EIOMessage, events.SIOConnect}, ack...)); err != nil {
		return
	}
	hello, _ := events.EncodeEvent(events.NameConnected, events.ConnectedMsg{SessionID: sid})
	if err := write(hello); err != nil {
		return
	}
	if err := write([]byte{events.EIOPing}); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if len(raw) == 1 && raw[0] == events.EIOPong {
				m.Pongs.Add(1)
			}
		}
	}()

	for {
		select {
		case f := <-ch:
			packet, _ := events.EncodeEvent(f.Event, f.Data)
			if err := write(packet); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (m *MockServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	sid := m.session(r)
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	id, ch := m.subscribe(sid)
	defer m.unsubscribe(id)

	writeEvent := func(f events.Frame) error {
		_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.Event, f.Data)
		flusher.Flush()
		return err
	}

	hello, _ := json.Marshal(events.ConnectedMsg{SessionID: sid})
	if err := writeEvent(events.Frame{Event: events.NameConnected, Data: hello}); err != nil {
		return
	}
	_, _ = io.WriteString(w, ": heartbeat\n\n")
	flusher.Flush()

	for {
		select {
		case f := <-ch:
			if err := writeEvent(f); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
