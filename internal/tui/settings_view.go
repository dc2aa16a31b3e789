package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/ytleenf/ytclient/internal/config"
)

// viewSettings renders the Btop-style settings page. Values are read-only
// here; they are changed in settings.json or through YTCLIENT_* variables.
func (m RootModel) viewSettings() string {
	width := SettingsWidth
	height := SettingsHeight
	if m.width < width+4 {
		width = m.width - 4
	}
	if m.height < height+4 {
		height = m.height - 4
	}

	categories := config.CategoryOrder()
	metadata := config.GetSettingsMetadata()

	// === TAB BAR ===
	var tabItems []string
	for i, cat := range categories {
		label := fmt.Sprintf("[%d] %s", i+1, cat)
		if i == m.SettingsActiveTab {
			tabItems = append(tabItems, ActiveTabStyle.Render(label))
		} else {
			tabItems = append(tabItems, TabStyle.Render(label))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabItems...)

	// === CONTENT AREA ===
	settingsMeta := metadata[categories[m.SettingsActiveTab]]
	values := m.settings.Values()

	leftWidth := 24
	rightWidth := width - leftWidth - 5

	var listLines []string
	for i, meta := range settingsMeta {
		if i == m.SettingsSelectedRow {
			listLines = append(listLines, lipgloss.NewStyle().
				Foreground(ColorNeonPink).
				Bold(true).
				Render("> "+meta.Label))
		} else {
			listLines = append(listLines, lipgloss.NewStyle().
				Foreground(ColorLightGray).
				Render("  "+meta.Label))
		}
	}
	listBox := lipgloss.NewStyle().
		Width(leftWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, listLines...))

	separator := lipgloss.NewStyle().
		Foreground(ColorGray).
		Render(strings.TrimSuffix(strings.Repeat("│\n", len(settingsMeta)), "\n"))

	var rightContent string
	if m.SettingsSelectedRow < len(settingsMeta) {
		meta := settingsMeta[m.SettingsSelectedRow]

		valueDisplay := lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Bold(true).
			Render("Value: " + formatSettingValue(meta.Key, values[meta.Key], meta.Type))

		keyDisplay := HintStyle.Render(meta.Key)

		descDisplay := lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Width(max(rightWidth-2, 10)).
			Render(meta.Description)

		rightContent = valueDisplay + "\n" + keyDisplay + "\n\n" + descDisplay
	}

	rightBox := lipgloss.NewStyle().
		Width(max(rightWidth, 10)).
		PaddingLeft(1).
		Render(rightContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listBox, separator, rightBox)

	fullContent := lipgloss.JoinVertical(lipgloss.Left,
		tabBar,
		"",
		content,
		"",
		m.help.View(SettingsKeys),
	)

	box := renderBtopBox("Settings", fullContent, width, height, ColorNeonPink, false)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// getSettingsCount returns the number of settings in the current category
func (m RootModel) getSettingsCount() int {
	categories := config.CategoryOrder()
	return len(config.GetSettingsMetadata()[categories[m.SettingsActiveTab]])
}

// formatSettingValue formats a setting value for display
func formatSettingValue(key string, value any, typ string) string {
	if value == nil {
		return "-"
	}

	switch typ {
	case "bool":
		if b, ok := value.(bool); ok {
			if b {
				return "True"
			}
			return "False"
		}
	case "duration":
		if d, ok := value.(time.Duration); ok {
			return d.String()
		}
	case "int":
		if v, ok := value.(int); ok {
			if key == config.KeyFetchBufferSize {
				return humanize.IBytes(uint64(max(v, 0)))
			}
			return fmt.Sprint(v)
		}
	case "string":
		if s, ok := value.(string); ok {
			if s == "" {
				return "(default)"
			}
			return truncateString(s, 30)
		}
	}
	return fmt.Sprintf("%v", value)
}
