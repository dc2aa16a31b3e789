package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/ytleenf/ytclient/internal/config"
	"github.com/ytleenf/ytclient/internal/session"
)

var (
	// Colors (Dracula on dark terminals, Alucard on light ones)
	ColorNeonPurple = lipgloss.AdaptiveColor{Light: "#644ac9", Dark: "#bd93f9"}
	ColorNeonPink   = lipgloss.AdaptiveColor{Light: "#a3144d", Dark: "#ff79c6"}
	ColorNeonCyan   = lipgloss.AdaptiveColor{Light: "#036a96", Dark: "#8be9fd"}
	ColorGray       = lipgloss.AdaptiveColor{Light: "#9d9aab", Dark: "#44475a"}
	ColorLightGray  = lipgloss.AdaptiveColor{Light: "#635d7a", Dark: "#a4a7b5"}
	ColorText       = lipgloss.AdaptiveColor{Light: "#1f1f1f", Dark: "#f8f8f2"}

	ColorStateSuccess = lipgloss.AdaptiveColor{Light: "#14710a", Dark: "#50fa7b"}
	ColorStateError   = lipgloss.AdaptiveColor{Light: "#cb3a2a", Dark: "#ff5555"}
	ColorStateWarning = lipgloss.AdaptiveColor{Light: "#a34d14", Dark: "#ffb86c"}

	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPink).
			Bold(true)

	StatsLabelStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Width(12)

	StatsValueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Padding(0, 1)

	ActiveTabStyle = TabStyle.
			Foreground(ColorNeonPink).
			Bold(true).
			Underline(true)

	NotificationStyle = lipgloss.NewStyle().
				Foreground(ColorNeonCyan).
				Bold(true)

	HintStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray)

	ConnectedStyle = lipgloss.NewStyle().
			Foreground(ColorStateSuccess).
			Bold(true)

	DisconnectedStyle = lipgloss.NewStyle().
				Foreground(ColorStateError).
				Bold(true)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray)
)

var severityStyles = map[session.Severity]lipgloss.Style{
	session.SeverityInfo:    lipgloss.NewStyle().Foreground(ColorText),
	session.SeveritySuccess: lipgloss.NewStyle().Foreground(ColorStateSuccess),
	session.SeverityWarning: lipgloss.NewStyle().Foreground(ColorStateWarning),
	session.SeverityError:   lipgloss.NewStyle().Foreground(ColorStateError),
}

// ApplyTheme selects the light or dark palette and honors NO_COLOR and
// CLICOLOR_FORCE from the environment.
func ApplyTheme(theme string) {
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
	switch theme {
	case config.ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	case config.ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	}
}
