package tui

import "github.com/charmbracelet/bubbles/key"

// DashboardKeyMap holds the dashboard bindings. The ctrl bindings work in
// every focus; the plain letters only while the log pane is focused.
type DashboardKeyMap struct {
	Submit       key.Binding
	Paste        key.Binding
	ClearInput   key.Binding
	ClearLog     key.Binding
	Upload       key.Binding
	Focus        key.Binding
	Quit         key.Binding
	ToggleFollow key.Binding
	NextQuality  key.Binding
	PrevQuality  key.Binding
	Refresh      key.Binding
	Settings     key.Binding
	Help         key.Binding
	Editor       key.Binding
}

type UploadKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

type SettingsKeyMap struct {
	Tab   key.Binding
	Up    key.Binding
	Down  key.Binding
	Close key.Binding
}

var Keys = DashboardKeyMap{
	Submit:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "download")),
	Paste:        key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
	ClearInput:   key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear urls")),
	ClearLog:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear log")),
	Upload:       key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "upload cookies")),
	Focus:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Quit:         key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+q", "quit")),
	ToggleFollow: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow log")),
	NextQuality:  key.NewBinding(key.WithKeys("]", "right"), key.WithHelp("]", "next quality")),
	PrevQuality:  key.NewBinding(key.WithKeys("[", "left"), key.WithHelp("[", "prev quality")),
	Refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh files")),
	Settings:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
	Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Editor:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "edit urls")),
}

var UploadKeys = UploadKeyMap{
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "upload")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

var SettingsKeys = SettingsKeyMap{
	Tab:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6"), key.WithHelp("1-6", "category")),
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Close: key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "close")),
}

func (k DashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Paste, k.Upload, k.Focus, k.Help, k.Quit}
}

func (k DashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Paste, k.ClearInput, k.ClearLog, k.Upload},
		{k.Focus, k.Editor, k.ToggleFollow, k.NextQuality, k.PrevQuality},
		{k.Refresh, k.Settings, k.Help, k.Quit},
	}
}

func (k UploadKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

func (k UploadKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func (k SettingsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Up, k.Down, k.Close}
}

func (k SettingsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
