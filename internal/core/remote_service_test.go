package core

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/testutil"
)

func newService(t *testing.T, server *testutil.MockServer) *RemoteService {
	t.Helper()
	s := NewRemoteService(server.URL(), config.TransportWebSocket, "ytclient-test")
	s.ReconnectBackoff = 10 * time.Millisecond
	s.MaxReconnectDelay = 50 * time.Millisecond
	return s
}

func TestSubmit_NewSession(t *testing.T) {
	server := testutil.NewMockServerT(t)
	s := newService(t, server)

	resp, err := s.Submit(context.Background(), "", types.DownloadRequest{
		URLs:    []string{"https://youtu.be/abc"},
		Quality: types.Quality720p,
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.DefaultSessionID, resp.SessionID)
	assert.Equal(t, "Started downloading 1 videos", resp.Message)

	h := server.LastHeaders()
	assert.Empty(t, h.Get(types.SessionHeader), "no correlation header without a session")
	assert.Equal(t, "ytclient-test", h.Get("User-Agent"))
	_, err = uuid.Parse(h.Get(types.RequestIDHeader))
	assert.NoError(t, err)

	assert.Equal(t, types.DownloadRequest{URLs: []string{"https://youtu.be/abc"}, Quality: types.Quality720p}, server.LastSubmit())
}

func TestSubmit_SendsSessionHeader(t *testing.T) {
	server := testutil.NewMockServerT(t)
	s := newService(t, server)

	resp, err := s.Submit(context.Background(), "known-session", types.DownloadRequest{URLs: []string{"https://youtu.be/abc"}})
	require.NoError(t, err)
	assert.Equal(t, "known-session", resp.SessionID)
	assert.Equal(t, "known-session", server.LastHeaders().Get(types.SessionHeader))
}

func TestSubmit_QualityOmittedWhenEmpty(t *testing.T) {
	server := testutil.NewMockServerT(t)
	s := newService(t, server)

	_, err := s.Submit(context.Background(), "", types.DownloadRequest{URLs: []string{"https://youtu.be/abc"}})
	require.NoError(t, err)
	assert.Empty(t, server.LastSubmit().Quality)
}

func TestSubmit_Rejected(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithSubmitError(http.StatusBadRequest, "already downloading"))
	s := newService(t, server)

	_, err := s.Submit(context.Background(), "", types.DownloadRequest{URLs: []string{"https://youtu.be/abc"}})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "already downloading", apiErr.Message)
}

func TestSubmit_TransportError(t *testing.T) {
	server := testutil.NewMockServerT(t)
	s := newService(t, server)
	server.Close()

	_, err := s.Submit(context.Background(), "", types.DownloadRequest{URLs: []string{"https://youtu.be/abc"}})
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "submit download", tErr.Op)
}

func TestStatus(t *testing.T) {
	server := testutil.NewMockServerT(t,
		testutil.WithDownloading(types.Progress{Current: 1, Total: 4, Percentage: 25, Status: types.StatusDownloading}),
		testutil.WithCookies(types.CookieStatus{Exists: true, StatusMessage: "Cookies are 2 days old"}),
	)
	s := newService(t, server)

	snap, err := s.Status(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, testutil.DefaultSessionID, snap.SessionID)
	assert.True(t, snap.IsDownloading)
	assert.Equal(t, 25, snap.Progress.Percentage)
	assert.True(t, snap.Cookies.Exists)
	require.NotNil(t, snap.FFmpegAvailable)
	assert.True(t, *snap.FFmpegAvailable)
	assert.Equal(t, types.Qualities, snap.QualityOptions)
}

func TestStatus_HTMLIsMalformed(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithStatusHTML())
	s := newService(t, server)

	_, err := s.Status(context.Background(), "")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestStatus_ServerError(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithStatusError(http.StatusInternalServerError))
	s := newService(t, server)

	_, err := s.Status(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "status unavailable", apiErr.Message)
}

func TestFiles(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithFile("clip.mp4", []byte("video")))
	s := newService(t, server)

	files, err := s.Files(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "clip.mp4", files[0].Name)
	assert.Equal(t, int64(5), files[0].Size)
	assert.Equal(t, "/download_file/sess-1/clip.mp4", files[0].URL)

	abs, err := s.ResolveFileURL(files[0].URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL()+"/download_file/sess-1/clip.mp4", abs)
}

func TestFiles_NoSessionNoRequest(t *testing.T) {
	server := testutil.NewMockServerT(t)
	s := newService(t, server)

	files, err := s.Files(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Zero(t, server.FilesRequests.Load())
}

func TestAPIError_Message(t *testing.T) {
	assert.Equal(t, "server returned 413: file too large", (&APIError{StatusCode: 413, Message: "file too large"}).Error())
	assert.Equal(t, "server returned 502 Bad Gateway", (&APIError{StatusCode: 502}).Error())
}
