package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/session"
)

func sized(t *testing.T, st session.State) RootModel {
	t.Helper()
	fc := newFakeClient()
	fc.state = st
	m := NewRootModel(fc, nil)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	return m
}

func TestView_LoadingBeforeSize(t *testing.T) {
	assert.Equal(t, "Loading...", NewRootModel(newFakeClient(), nil).View())
}

func TestView_ConnectionIndicator(t *testing.T) {
	assert.Contains(t, sized(t, session.State{Connected: true}).View(), "● Connected")
	assert.Contains(t, sized(t, session.State{}).View(), "○ Disconnected")
}

func TestView_SubmitLine(t *testing.T) {
	out := sized(t, session.State{
		URLCount:       2,
		CanSubmit:      true,
		Quality:        types.Quality1080p,
		QualityEnabled: true,
	}).View()
	assert.Contains(t, out, "2 valid URLs")
	assert.Contains(t, out, "Quality: 1080p")

	out = sized(t, session.State{URLCount: 1, Submit: session.Active}).View()
	assert.Contains(t, out, "1 valid URL ")
	assert.Contains(t, out, "Quality: server default")
	assert.Contains(t, out, "Download in progress")
}

func TestView_ProgressHiddenUntilRevealed(t *testing.T) {
	assert.Contains(t, sized(t, session.State{}).View(), "No active download")

	out := sized(t, session.State{
		ShowProgress: true,
		Progress:     types.Progress{Current: 2, Total: 5, Percentage: 40, Status: types.StatusDownloading},
	}).View()
	assert.NotContains(t, out, "No active download")
	assert.Contains(t, out, "Downloading")
	assert.Contains(t, out, "2 / 5")
}

func TestView_UnknownStatusShownVerbatim(t *testing.T) {
	out := sized(t, session.State{
		ShowProgress: true,
		Progress:     types.Progress{Percentage: 90, Status: "postprocessing"},
	}).View()
	assert.Contains(t, out, "postprocessing")
}

func TestView_ServerStatus(t *testing.T) {
	ffmpeg := true
	out := sized(t, session.State{
		DownloadDir:     "/srv/downloads",
		FFmpegAvailable: &ffmpeg,
		DownloadCount:   3,
		CookiesKnown:    true,
		Cookies:         types.CookieStatus{Exists: true, ShouldUpdate: true, StatusMessage: "Cookies are 20 days old"},
		Files:           []types.FileEntry{{Name: "a.mp4", Size: 2048}},
	}).View()

	assert.Contains(t, out, "/srv/downloads")
	assert.Contains(t, out, "available")
	assert.Contains(t, out, "Cookies are 20 days old")
	assert.Contains(t, out, "Files (1)")
	assert.Contains(t, out, "a.mp4")
}

func TestView_UploadStates(t *testing.T) {
	assert.Contains(t, sized(t, session.State{Upload: session.Uploading, UploadFile: "cookies.txt", UploadRatio: 0.5}).View(), "cookies.txt 50%")
	assert.Contains(t, sized(t, session.State{Upload: session.UploadTimedOut}).View(), "Timed out")
}

func TestView_LogEntries(t *testing.T) {
	out := sized(t, session.State{
		Follow: true,
		Log:    []session.LogEntry{{Message: "Connected to server", Severity: session.SeveritySuccess}},
	}).View()
	assert.Contains(t, out, "Log (following)")
	assert.Contains(t, out, "Connected to server")
}

func TestView_UploadPopup(t *testing.T) {
	m := sized(t, session.State{})
	m, _ = send(t, m, keyMsg(tea.KeyCtrlO))
	out := m.View()
	assert.Contains(t, out, "Upload Cookies")
	assert.Contains(t, out, "at most 100 KiB")
}

func TestRenderBtopBox(t *testing.T) {
	box := renderBtopBox("Title", "hello\nworld", 20, 5, ColorGray, false)
	lines := strings.Split(box, "\n")

	assert.Len(t, lines, 5)
	for _, l := range lines {
		assert.Equal(t, 20, lipgloss.Width(l))
	}
	assert.Contains(t, lines[0], " Title ")
	assert.Contains(t, lines[1], "hello")
}

func TestFormatSettingValue(t *testing.T) {
	assert.Equal(t, "True", formatSettingValue("logs.write", true, "bool"))
	assert.Equal(t, "512 KiB", formatSettingValue("fetch.buffer_size", 512*1024, "int"))
	assert.Equal(t, "(default)", formatSettingValue("fetch.user_agent", "", "string"))
	assert.Equal(t, "-", formatSettingValue("x", nil, "string"))
}
