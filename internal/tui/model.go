package tui

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/session"
)

type UIState int

const (
	DashboardState UIState = iota
	UploadState
	SettingsState
)

type focusPane int

const (
	focusEditor focusPane = iota
	focusLog
)

// Client is the part of the session client the TUI drives.
type Client interface {
	SetInput(text string)
	ClearInput()
	ClearLog()
	ToggleFollow()
	RefreshFiles()
	SetQuality(q types.Quality)
	Submit(ctx context.Context) error
	Upload(ctx context.Context, path string) error
	Snapshot() session.State
}

// StateMsg carries a published client state into the program.
type StateMsg session.State

type submitResultMsg struct{ err error }

type uploadResultMsg struct{ err error }

type clipboardMsg struct {
	text string
	err  error
}

type notificationExpiredMsg struct{ id int }

type RootModel struct {
	client   Client
	settings *config.Settings
	updates  chan struct{}
	ctx      context.Context

	state session.State

	width  int
	height int
	ui     UIState
	focus  focusPane

	editor    textarea.Model
	pathInput textinput.Model
	logView   viewport.Model
	progress  progress.Model
	help      help.Model
	keys      DashboardKeyMap

	notification   string
	notificationID int

	SettingsActiveTab   int
	SettingsSelectedRow int

	readClipboard func() (string, error)
}

// Option customizes a RootModel.
type Option func(*RootModel)

// WithClipboard replaces the system clipboard reader.
func WithClipboard(read func() (string, error)) Option {
	return func(m *RootModel) { m.readClipboard = read }
}

// WithContext bounds submit and upload calls made from the TUI.
func WithContext(ctx context.Context) Option {
	return func(m *RootModel) { m.ctx = ctx }
}

// WithInitialInput pre-fills the URL editor.
func WithInitialInput(text string) Option {
	return func(m *RootModel) { m.editor.SetValue(text) }
}

// NewRootModel builds the dashboard for client.
func NewRootModel(client Client, settings *config.Settings, opts ...Option) RootModel {
	editor := textarea.New()
	editor.Placeholder = "Paste YouTube URLs here, one per line"
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.SetWidth(InputWidth)
	editor.SetHeight(EditorHeight)
	editor.Focus()

	pathInput := textinput.New()
	pathInput.Placeholder = "~/Downloads/cookies.txt"
	pathInput.Width = InputWidth
	pathInput.CharLimit = PathInputSize
	pathInput.Prompt = ""

	if settings == nil {
		settings = config.DefaultSettings()
	}

	m := RootModel{
		client:        client,
		settings:      settings,
		updates:       make(chan struct{}, 1),
		ctx:           context.Background(),
		state:         client.Snapshot(),
		editor:        editor,
		pathInput:     pathInput,
		logView:       viewport.New(InputWidth, MinLogHeight),
		progress:      progress.New(progress.WithDefaultGradient()),
		help:          help.New(),
		keys:          Keys,
		readClipboard: clipboard.ReadAll,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.syncLog()
	return m
}

// Notifier returns a state subscriber that wakes the program. It never
// blocks; the program reads the latest snapshot when it wakes.
func (m RootModel) Notifier() func(session.State) {
	return func(session.State) {
		select {
		case m.updates <- struct{}{}:
		default:
		}
	}
}

func (m RootModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, listenForActivity(m.updates, m.client)}
	if v := m.editor.Value(); v != "" {
		m.client.SetInput(v)
	}
	return tea.Batch(cmds...)
}

func listenForActivity(sub <-chan struct{}, client Client) tea.Cmd {
	return func() tea.Msg {
		<-sub
		return StateMsg(client.Snapshot())
	}
}
