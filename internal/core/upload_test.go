package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/testutil"
)

func waitResult(t *testing.T, task *UploadTask) (UploadResult, []UploadProgress) {
	t.Helper()
	var progress []UploadProgress
	for p := range task.Progress() {
		progress = append(progress, p)
	}
	select {
	case res := <-task.Done():
		return res, progress
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not finish")
		return UploadResult{}, nil
	}
}

func TestUpload_Success(t *testing.T) {
	server := testutil.NewMockServerT(t)
	s := newService(t, server)

	task := s.Upload(context.Background(), "sess-1", UploadFile{Name: "cookies.txt", Data: []byte("# Netscape HTTP Cookie File\n")})
	res, progress := waitResult(t, task)

	require.NoError(t, res.Err)
	require.NotNil(t, res.Response)
	assert.True(t, res.Response.Success)
	assert.Equal(t, "sess-1", res.Response.SessionID)

	name, data := server.LastUpload()
	assert.Equal(t, "cookies.txt", name)
	assert.Equal(t, "# Netscape HTTP Cookie File\n", string(data))
	assert.Equal(t, "sess-1", server.LastHeaders().Get(types.SessionHeader))

	if assert.NotEmpty(t, progress) {
		last := progress[len(progress)-1]
		assert.Equal(t, last.Total, last.Sent)
		assert.Equal(t, 1.0, last.Ratio())
	}
}

func TestUpload_Rejected(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithUploadError(http.StatusBadRequest, "invalid cookies format"))
	s := newService(t, server)

	res, _ := waitResult(t, s.Upload(context.Background(), "", UploadFile{Name: "c.txt", Data: []byte("x")}))
	var apiErr *APIError
	require.ErrorAs(t, res.Err, &apiErr)
	assert.Equal(t, "invalid cookies format", apiErr.Message)
	assert.Nil(t, res.Response)
}

func TestUpload_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := http.NewResponseController(w).Hijack()
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	t.Cleanup(server.Close)
	s := NewRemoteService(server.URL, config.TransportWebSocket, "ytclient-test")

	res, _ := waitResult(t, s.Upload(context.Background(), "", UploadFile{Name: "c.txt", Data: []byte("x")}))
	var tErr *TransportError
	require.ErrorAs(t, res.Err, &tErr)
	assert.Equal(t, "upload cookies", tErr.Op)
	assert.False(t, errors.Is(res.Err, ErrUploadTimeout))
	assert.Nil(t, res.Response)
}

func TestUpload_MalformedBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"html page", "text/html; charset=utf-8", "<html><body>Bad Gateway</body></html>"},
		{"truncated json", "application/json", `{"success": tr`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)
			s := NewRemoteService(server.URL, config.TransportWebSocket, "ytclient-test")

			res, _ := waitResult(t, s.Upload(context.Background(), "", UploadFile{Name: "c.txt", Data: []byte("x")}))
			assert.ErrorIs(t, res.Err, ErrMalformedResponse)
			assert.Nil(t, res.Response)
		})
	}
}

func TestUpload_Timeout(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithUploadLatency(2*time.Second))
	s := newService(t, server)
	s.UploadTimeout = 100 * time.Millisecond

	res, _ := waitResult(t, s.Upload(context.Background(), "", UploadFile{Name: "c.txt", Data: []byte("x")}))
	assert.ErrorIs(t, res.Err, ErrUploadTimeout)
}

func TestUpload_Cancel(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithUploadLatency(2*time.Second))
	s := newService(t, server)

	task := s.Upload(context.Background(), "", UploadFile{Name: "c.txt", Data: []byte("x")})
	task.Cancel()
	res, _ := waitResult(t, task)

	require.Error(t, res.Err)
	assert.False(t, errors.Is(res.Err, ErrUploadTimeout), "cancellation is not a timeout")
}

func TestUploadTask_FinishOnce(t *testing.T) {
	task := NewUploadTask(nil)
	task.Report(UploadProgress{Sent: 1, Total: 2})
	task.Finish(UploadResult{Err: ErrMalformedResponse})
	task.Finish(UploadResult{Response: &types.UploadResponse{}})
	task.Report(UploadProgress{Sent: 2, Total: 2})

	res, progress := waitResult(t, task)
	assert.ErrorIs(t, res.Err, ErrMalformedResponse)
	assert.Equal(t, []UploadProgress{{Sent: 1, Total: 2}}, progress)

	_, open := <-task.Done()
	assert.False(t, open)
}

func TestResolvedUpload(t *testing.T) {
	task := ResolvedUpload(UploadResult{Response: &types.UploadResponse{Message: "ok"}})
	res := <-task.Done()
	assert.Equal(t, "ok", res.Response.Message)
}

func TestUploadProgress_Ratio(t *testing.T) {
	assert.Equal(t, 0.0, UploadProgress{}.Ratio())
	assert.Equal(t, 0.5, UploadProgress{Sent: 5, Total: 10}.Ratio())
	assert.Equal(t, 1.0, UploadProgress{Sent: 11, Total: 10}.Ratio())
}
