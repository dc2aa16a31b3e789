package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/session"
)

// Update handles messages and updates the model
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		st := session.State(msg)
		if st.Revision >= m.state.Revision {
			m.state = st
			m.syncLog()
		}
		return m, listenForActivity(m.updates, m.client)

	case submitResultMsg:
		if msg.err != nil && !errors.Is(msg.err, session.ErrClosed) {
			return m, m.notify(msg.err.Error())
		}
		return m, nil

	case uploadResultMsg:
		if msg.err != nil {
			return m, m.notify(msg.err.Error())
		}
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			return m, m.notify("Clipboard unavailable: " + msg.err.Error())
		}
		text := strings.ReplaceAll(msg.text, "\r\n", "\n")
		if text == "" {
			return m, nil
		}
		m.editor.InsertString(text)
		m.client.SetInput(m.editor.Value())
		return m, nil

	case notificationExpiredMsg:
		if msg.id == m.notificationID {
			m.notification = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.ui {
		case UploadState:
			return m.updateUpload(msg)
		case SettingsState:
			return m.updateSettings(msg), nil
		default:
			return m.updateDashboard(msg)
		}
	}

	var cmd tea.Cmd
	if m.ui == DashboardState && m.focus == focusEditor {
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m RootModel) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.client.SetInput(m.editor.Value())
		return m, m.submitCmd()

	case key.Matches(msg, m.keys.Paste):
		return m, m.pasteCmd()

	case key.Matches(msg, m.keys.ClearInput):
		m.editor.Reset()
		m.client.ClearInput()
		return m, nil

	case key.Matches(msg, m.keys.ClearLog):
		m.client.ClearLog()
		return m, nil

	case key.Matches(msg, m.keys.Upload):
		if m.state.Upload == session.Uploading {
			return m, m.notify("A cookie upload is already in progress")
		}
		m.ui = UploadState
		m.editor.Blur()
		m.pathInput.SetValue("")
		m.pathInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusEditor {
			m.focus = focusLog
			m.editor.Blur()
			return m, nil
		}
		m.focus = focusEditor
		return m, m.editor.Focus()
	}

	if m.focus == focusEditor {
		before := m.editor.Value()
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		if v := m.editor.Value(); v != before {
			m.client.SetInput(v)
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Editor):
		m.focus = focusEditor
		return m, m.editor.Focus()
	case key.Matches(msg, m.keys.ToggleFollow):
		m.client.ToggleFollow()
		return m, nil
	case key.Matches(msg, m.keys.NextQuality):
		m.cycleQuality(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevQuality):
		m.cycleQuality(-1)
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.client.RefreshFiles()
		return m, nil
	case key.Matches(msg, m.keys.Settings):
		m.ui = SettingsState
		m.SettingsActiveTab = 0
		m.SettingsSelectedRow = 0
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

func (m RootModel) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, UploadKeys.Cancel):
		m.ui = DashboardState
		m.pathInput.Blur()
		return m, m.editor.Focus()

	case key.Matches(msg, UploadKeys.Confirm):
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			return m, nil
		}
		m.ui = DashboardState
		m.pathInput.Blur()
		return m, tea.Batch(m.uploadCmd(expandHome(path)), m.editor.Focus())
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m RootModel) updateSettings(msg tea.KeyMsg) RootModel {
	categories := config.CategoryOrder()
	switch {
	case key.Matches(msg, SettingsKeys.Close):
		m.ui = DashboardState
	case key.Matches(msg, SettingsKeys.Tab):
		if i := int(msg.String()[0] - '1'); i >= 0 && i < len(categories) {
			m.SettingsActiveTab = i
			m.SettingsSelectedRow = 0
		}
	case key.Matches(msg, SettingsKeys.Up):
		if m.SettingsSelectedRow > 0 {
			m.SettingsSelectedRow--
		}
	case key.Matches(msg, SettingsKeys.Down):
		if m.SettingsSelectedRow < m.getSettingsCount()-1 {
			m.SettingsSelectedRow++
		}
	}
	return m
}

func (m *RootModel) cycleQuality(step int) {
	opts := m.state.QualityOptions
	if !m.state.QualityEnabled || len(opts) == 0 {
		return
	}
	_, i, ok := lo.FindIndexOf(opts, func(q types.Quality) bool { return q == m.state.Quality })
	if !ok {
		i = 0
	}
	i = (i + step + len(opts)) % len(opts)
	m.state.Quality = opts[i]
	m.client.SetQuality(opts[i])
}

func (m RootModel) submitCmd() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		return submitResultMsg{err: client.Submit(ctx)}
	}
}

func (m RootModel) uploadCmd(path string) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		return uploadResultMsg{err: client.Upload(ctx, path)}
	}
}

func (m RootModel) pasteCmd() tea.Cmd {
	read := m.readClipboard
	return func() tea.Msg {
		text, err := read()
		return clipboardMsg{text: text, err: err}
	}
}

func (m *RootModel) notify(text string) tea.Cmd {
	m.notificationID++
	m.notification = text
	id := m.notificationID
	return tea.Tick(NotificationDuration, func(time.Time) tea.Msg {
		return notificationExpiredMsg{id: id}
	})
}

// syncLog renders the log entries into the viewport, keeping the newest
// entry in view while follow is on.
func (m *RootModel) syncLog() {
	lines := make([]string, 0, len(m.state.Log))
	for _, e := range m.state.Log {
		lines = append(lines, renderLogEntry(e))
	}
	m.logView.SetContent(strings.Join(lines, "\n"))
	if m.state.Follow {
		m.logView.GotoBottom()
	}
}

func (m *RootModel) resize() {
	leftWidth, rightWidth := m.columns()
	m.editor.SetWidth(leftWidth - 6)
	m.pathInput.Width = min(InputWidth, m.width-16)
	m.progress.Width = max(leftWidth-10, 10)
	m.logView.Width = leftWidth + rightWidth - 4
	m.logView.Height = m.logHeight()
	m.help.Width = m.width
	m.syncLog()
}

func (m RootModel) columns() (left, right int) {
	available := m.width - 2
	left = int(float64(available) * LeftWidthRatio)
	return left, available - left
}

func (m RootModel) logHeight() int {
	h := m.height - HeaderHeight - EditorBoxHeight - ProgressBoxHeight - 4
	return max(h, MinLogHeight)
}

func renderLogEntry(e session.LogEntry) string {
	style, ok := severityStyles[e.Severity]
	if !ok {
		style = severityStyles[session.SeverityInfo]
	}
	return fmt.Sprintf("%s %s", TimestampStyle.Render(e.Time.Format("15:04:05")), style.Render(e.Message))
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
