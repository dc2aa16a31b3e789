package cmd

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/session"
	"github.com/ytleenf/ytclient/internal/testutil"
)

const cookieFile = "# Netscape HTTP Cookie File\n.youtube.com\tTRUE\t/\tTRUE\t0\tPREF\tf6=8\n"

func TestStatusCmd(t *testing.T) {
	server := testutil.NewMockServerT(t,
		testutil.WithDownloading(types.Progress{Current: 2, Total: 5, Percentage: 40, Status: types.StatusDownloading}),
		testutil.WithCookies(types.CookieStatus{Exists: true, StatusMessage: "Cookies are 3 days old"}),
	)

	out, err := execute(t, "status", "--server", server.URL())
	require.NoError(t, err)

	assert.Contains(t, out, "Session:    "+testutil.DefaultSessionID)
	assert.Contains(t, out, "FFmpeg:     available")
	assert.Contains(t, out, "Cookies:    present (Cookies are 3 days old)")
	assert.Contains(t, out, "Job:        Downloading 40% (2/5)")
}

func TestStatusCmd_JSON(t *testing.T) {
	server := testutil.NewMockServerT(t)

	out, err := execute(t, "status", "--server", server.URL(), "--session", "abc", "--json")
	require.NoError(t, err)

	var snap types.StatusSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "abc", snap.SessionID)
	assert.Equal(t, "abc", server.LastHeaders().Get(types.SessionHeader))
}

func TestStatusCmd_ServerError(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithStatusError(http.StatusBadGateway))

	_, err := execute(t, "status", "--server", server.URL())
	assert.Error(t, err)
}

func TestFilesCmd_List(t *testing.T) {
	server := testutil.NewMockServerT(t,
		testutil.WithFile("b-second.m4a", make([]byte, 2048)),
		testutil.WithFile("a-first.mp4", make([]byte, 10)),
	)

	out, err := execute(t, "files", "--server", server.URL(), "--session", testutil.DefaultSessionID)
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "2.0 KiB")
	assert.Less(t, strings.Index(out, "b-second.m4a"), strings.Index(out, "a-first.mp4"), "files keep the server's order")
}

func TestFilesCmd_JSONKeepsServerOrder(t *testing.T) {
	server := testutil.NewMockServerT(t,
		testutil.WithFile("z-newest.mp4", []byte("z")),
		testutil.WithFile("m-middle.mp4", []byte("m")),
		testutil.WithFile("a-oldest.mp4", []byte("a")),
	)

	out, err := execute(t, "files", "--server", server.URL(), "--session", testutil.DefaultSessionID, "--json")
	require.NoError(t, err)

	var files []types.FileEntry
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"z-newest.mp4", "m-middle.mp4", "a-oldest.mp4"}, names)
}

func TestFilesCmd_JSONEmpty(t *testing.T) {
	server := testutil.NewMockServerT(t)

	out, err := execute(t, "files", "--server", server.URL(), "--session", testutil.DefaultSessionID, "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestFilesCmd_RequiresSession(t *testing.T) {
	server := testutil.NewMockServerT(t)

	_, err := execute(t, "files", "--server", server.URL())
	assert.ErrorContains(t, err, "session")
	assert.Zero(t, server.FilesRequests.Load())
}

func TestFilesCmd_Fetch(t *testing.T) {
	data := []byte(strings.Repeat("video-bytes", 1000))
	server := testutil.NewMockServerT(t,
		testutil.WithFile("clip.mp4", data),
		testutil.WithDisposition("clip.mp4", "My Clip.mp4"),
	)
	dir := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, "files", "--server", server.URL(), "--session", testutil.DefaultSessionID, "--fetch", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✔")

	got, err := os.ReadFile(filepath.Join(dir, "My Clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, testutil.DefaultSessionID, server.LastHeaders().Get(types.SessionHeader))
	assert.NotEmpty(t, server.LastHeaders().Get(types.RequestIDHeader))
}

func TestFilesCmd_FetchSkipsExisting(t *testing.T) {
	data := []byte("already here")
	server := testutil.NewMockServerT(t, testutil.WithFile("clip.mp4", data))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), data, 0o644))

	out, err := execute(t, "files", "--server", server.URL(), "--session", testutil.DefaultSessionID, "--fetch", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "= clip.mp4 (already fetched)")
	assert.Equal(t, int64(1), server.FetchRequests.Load(), "only the probe reaches the server")

	out, err = execute(t, "files", "--server", server.URL(), "--session", testutil.DefaultSessionID, "--fetch", dir, "--overwrite")
	require.NoError(t, err)
	assert.Contains(t, out, "✔")
	assert.Equal(t, int64(2), server.FetchRequests.Load())
}

func TestDownloadCmd_NoWait(t *testing.T) {
	server := testutil.NewMockServerT(t)

	out, err := execute(t, "download", "--server", server.URL(), "--no-wait",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://example.com/not-youtube")
	require.NoError(t, err)

	req := server.LastSubmit()
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}, req.URLs)
	assert.Equal(t, types.Quality720p, req.Quality)
	assert.Contains(t, out, "Started downloading 1 videos")
}

func TestDownloadCmd_PrintsAssignedSession(t *testing.T) {
	server := testutil.NewMockServerT(t)

	out, err := execute(t, "download", "--server", server.URL(), "--no-wait", "--quiet", "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: "+testutil.DefaultSessionID)
}

func TestDownloadCmd_ExistingSession(t *testing.T) {
	const sid = "8d0c2b7e-5a41-4f0e-b9a3-2c6d7e8f9a01"
	server := testutil.NewMockServerT(t)

	out, err := execute(t, "download", "--server", server.URL(), "--no-wait", "--session", sid, "https://youtu.be/abc")
	require.NoError(t, err)

	assert.Equal(t, sid, server.LastHeaders().Get(types.SessionHeader))
	assert.Contains(t, out, "Session: "+sid)
	assert.NotContains(t, out, testutil.DefaultSessionID)
}

func TestDownloadCmd_QualityFlag(t *testing.T) {
	server := testutil.NewMockServerT(t)

	_, err := execute(t, "download", "--server", server.URL(), "--no-wait", "--quality", "1080p", "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Equal(t, types.Quality1080p, server.LastSubmit().Quality)
}

func TestDownloadCmd_Batch(t *testing.T) {
	server := testutil.NewMockServerT(t)
	batch := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(batch, []byte("# list\nhttps://youtu.be/one\n\nhttps://youtu.be/two\n"), 0o644))

	_, err := execute(t, "download", "--server", server.URL(), "--no-wait", "--quiet", "--batch", batch)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://youtu.be/one", "https://youtu.be/two"}, server.LastSubmit().URLs)
}

func TestDownloadCmd_EmptyBatch(t *testing.T) {
	server := testutil.NewMockServerT(t)

	_, err := execute(t, "download", "--server", server.URL(), "https://example.com/video")
	assert.ErrorIs(t, err, session.ErrEmptyBatch)
	assert.Zero(t, server.SubmitRequests.Load())
}

func TestDownloadCmd_Rejected(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithSubmitError(http.StatusConflict, "A download is already running"))

	out, err := execute(t, "download", "--server", server.URL(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, errJobRejected)
	assert.Contains(t, out, "A download is already running")
}

func TestDownloadCmd_FollowsJobToCompletion(t *testing.T) {
	server := testutil.NewMockServerT(t)

	done := make(chan struct{})
	defer close(done)
	go func() {
		deadline := time.Now().Add(10 * time.Second)
		for server.SubmitRequests.Load() == 0 || server.Subscribers() == 0 {
			if time.Now().After(deadline) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			server.EmitProgress(types.Progress{Current: 3, Total: 3, Percentage: 100, Status: types.StatusCompleted})
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	out, err := execute(t, "download", "--server", server.URL(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Completed 100% (3/3)")
	assert.Contains(t, out, "Download job finished")
}

func TestUploadCookiesCmd(t *testing.T) {
	server := testutil.NewMockServerT(t)
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(cookieFile), 0o644))

	out, err := execute(t, "upload-cookies", "--server", server.URL(), path)
	require.NoError(t, err)

	name, data := server.LastUpload()
	assert.Equal(t, "cookies.txt", name)
	assert.Equal(t, cookieFile, string(data))
	assert.Contains(t, out, "Cookies uploaded successfully")
	assert.Contains(t, out, "Session: "+testutil.DefaultSessionID)
}

func TestUploadCookiesCmd_ExistingSession(t *testing.T) {
	const sid = "8d0c2b7e-5a41-4f0e-b9a3-2c6d7e8f9a01"
	server := testutil.NewMockServerT(t)
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(cookieFile), 0o644))

	out, err := execute(t, "upload-cookies", "--server", server.URL(), "--session", sid, path)
	require.NoError(t, err)

	assert.Equal(t, int64(1), server.UploadRequests.Load())
	assert.Equal(t, sid, server.LastHeaders().Get(types.SessionHeader))
	assert.Contains(t, out, "Session: "+sid)
}

func TestUploadCookiesCmd_Rejected(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithUploadError(http.StatusBadRequest, "Invalid cookie file"))
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(cookieFile), 0o644))

	out, err := execute(t, "upload-cookies", "--server", server.URL(), path)
	assert.ErrorIs(t, err, errUploadFailed)
	assert.Contains(t, out, "Invalid cookie file")
}

func TestUploadCookiesCmd_InvalidFileSendsNothing(t *testing.T) {
	server := testutil.NewMockServerT(t)
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := execute(t, "upload-cookies", "--server", server.URL(), path)
	assert.ErrorIs(t, err, session.ErrFileEmpty)
	assert.Zero(t, server.UploadRequests.Load())
}

func TestConfigCmd(t *testing.T) {
	setupIsolatedCmdState(t)

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[Server]")
	assert.Contains(t, out, "server.url")
	assert.Contains(t, out, "YTCLIENT_SERVER_URL")
	assert.Contains(t, out, "30s")

	out, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "settings.json")

	_, err = execute(t, "config", "init")
	assert.ErrorContains(t, err, "already exists")
}
