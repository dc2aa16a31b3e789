package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ytleenf/ytclient/internal/engine/types"
	"github.com/ytleenf/ytclient/internal/session"
	"github.com/ytleenf/ytclient/internal/tui/components"
)

func (m RootModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.ui {
	case UploadState:
		return m.viewUpload()
	case SettingsState:
		return m.viewSettings()
	}

	leftWidth, rightWidth := m.columns()

	// --- HEADER ---
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		LogoStyle.Render(" ytclient "),
		" ",
		renderConnection(m.state.Connected),
		"  ",
		HintStyle.Render("session "+shortID(m.state.SessionID)),
	)

	// --- URL EDITOR (Top Left) ---
	editorBorder := ColorGray
	if m.focus == focusEditor {
		editorBorder = ColorNeonPink
	}
	editorContent := lipgloss.NewStyle().Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.editor.View(),
		m.renderSubmitLine(),
	))
	editorBox := renderBtopBox("URLs", editorContent, leftWidth, EditorBoxHeight, editorBorder, false)

	// --- PROGRESS (Bottom Left) ---
	progressBox := renderBtopBox("Progress", m.renderProgress(leftWidth-4), leftWidth, ProgressBoxHeight, ColorNeonPurple, false)

	// --- SERVER STATUS (Top Right) ---
	serverBox := renderBtopBox("Server", m.renderServer(rightWidth-4), rightWidth, EditorBoxHeight, ColorNeonCyan, true)

	// --- FILES (Bottom Right) ---
	files := components.NewFileListModel(m.state.Files, rightWidth-4, ProgressBoxHeight-2)
	files.SizeStyle = HintStyle
	files.EmptyStyle = HintStyle
	filesBox := renderBtopBox(fmt.Sprintf("Files (%d)", len(m.state.Files)), lipgloss.NewStyle().Padding(0, 1).Render(files.View()), rightWidth, ProgressBoxHeight, ColorGray, true)

	// --- LOG (Bottom) ---
	logBorder := ColorGray
	if m.focus == focusLog {
		logBorder = ColorNeonPink
	}
	logTitle := "Log"
	if m.state.Follow {
		logTitle = "Log (following)"
	}
	logBox := renderBtopBox(logTitle, lipgloss.NewStyle().Padding(0, 1).Render(m.logView.View()), leftWidth+rightWidth, m.logView.Height+2, logBorder, false)

	// --- ASSEMBLY ---
	leftColumn := lipgloss.JoinVertical(lipgloss.Left, editorBox, progressBox)
	rightColumn := lipgloss.JoinVertical(lipgloss.Left, serverBox, filesBox)
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftColumn, rightColumn)

	var footer string
	if m.notification != "" {
		footer = lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center,
			NotificationStyle.Render(m.notification))
	} else {
		footer = lipgloss.NewStyle().Padding(0, 1).Render(m.help.View(m.keys))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		logBox,
		footer,
	)
}

func (m RootModel) renderSubmitLine() string {
	st := m.state
	quality := "server default"
	if st.QualityEnabled {
		quality = string(st.Quality)
	}
	count := fmt.Sprintf("%d valid %s", st.URLCount, plural(st.URLCount, "URL", "URLs"))

	var action string
	switch {
	case st.Submit == session.Submitting:
		action = lipgloss.NewStyle().Foreground(ColorStateWarning).Render("Submitting...")
	case st.Submit == session.Active:
		action = lipgloss.NewStyle().Foreground(ColorStateWarning).Render("Download in progress")
	case st.CanSubmit:
		action = lipgloss.NewStyle().Foreground(ColorStateSuccess).Render("[ctrl+s] Download")
	default:
		action = HintStyle.Render("[ctrl+s] Download")
	}

	return HintStyle.Render(count+"  Quality: "+quality+"  ") + action
}

func (m RootModel) renderProgress(w int) string {
	st := m.state
	if !st.ShowProgress {
		return lipgloss.Place(w, ProgressBoxHeight-2, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(ColorNeonCyan).Render("No active download"))
	}

	p := st.Progress
	m.progress.Width = max(w-4, 10)
	items := ""
	if p.Total > 0 {
		items = fmt.Sprintf("  %d / %d", p.Current, p.Total)
	}
	status := lipgloss.JoinHorizontal(lipgloss.Left,
		StatsLabelStyle.Render("Status:"),
		StatsValueStyle.Render(getJobStatus(p.Status)),
		HintStyle.Render(items),
	)

	return lipgloss.NewStyle().Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left,
		status,
		"",
		m.progress.ViewAs(p.Ratio()),
	))
}

func (m RootModel) renderServer(w int) string {
	st := m.state
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render(label), StatsValueStyle.Render(truncateString(value, max(w-14, 4))))
	}

	dir := st.DownloadDir
	if dir == "" {
		dir = "-"
	}
	ffmpeg := "unknown"
	if st.FFmpegAvailable != nil {
		ffmpeg = "missing"
		if *st.FFmpegAvailable {
			ffmpeg = "available"
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		row("Folder:", dir),
		row("FFmpeg:", ffmpeg),
		row("Downloads:", fmt.Sprint(st.DownloadCount)),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Cookies:"), renderCookies(st)),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Upload:"), renderUpload(st)),
	)
	return lipgloss.NewStyle().Padding(0, 1).Render(content)
}

func renderConnection(connected bool) string {
	if connected {
		return ConnectedStyle.Render("● Connected")
	}
	return DisconnectedStyle.Render("○ Disconnected")
}

func renderCookies(st session.State) string {
	style := lipgloss.NewStyle()
	switch {
	case !st.CookiesKnown:
		return HintStyle.Render("checking...")
	case !st.Cookies.Exists:
		style = style.Foreground(ColorLightGray)
	case st.Cookies.ShouldUpdate:
		style = style.Foreground(ColorStateWarning)
	default:
		style = style.Foreground(ColorStateSuccess)
	}
	msg := st.Cookies.StatusMessage
	if msg == "" {
		msg = "No cookie file uploaded"
		if st.Cookies.Exists {
			msg = "Cookie file present"
		}
	}
	return style.Render(msg)
}

func renderUpload(st session.State) string {
	style := lipgloss.NewStyle()
	switch st.Upload {
	case session.Uploading:
		return style.Foreground(ColorNeonCyan).Render(fmt.Sprintf("%s %.0f%%", st.UploadFile, st.UploadRatio*100))
	case session.UploadSucceeded:
		return style.Foreground(ColorStateSuccess).Render("✔ Uploaded")
	case session.UploadFailed:
		return style.Foreground(ColorStateError).Render("✖ Failed")
	case session.UploadTimedOut:
		return style.Foreground(ColorStateError).Render("✖ Timed out")
	}
	return HintStyle.Render("[ctrl+o] Upload cookies.txt")
}

func getJobStatus(s types.JobStatus) string {
	style := lipgloss.NewStyle()
	switch s {
	case types.StatusCompleted:
		return style.Foreground(ColorStateSuccess).Render("✔ " + s.Label())
	case types.StatusDownloading:
		return style.Foreground(ColorNeonCyan).Render("⬇ " + s.Label())
	case types.StatusIdle, types.StatusStarting:
		return style.Foreground(ColorStateWarning).Render(s.Label())
	}
	return s.Label()
}

func (m RootModel) viewUpload() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		"",
		lipgloss.JoinHorizontal(lipgloss.Left,
			lipgloss.NewStyle().Width(8).Foreground(ColorLightGray).Render("File:"),
			m.pathInput.View()),
		"",
		HintStyle.Render("Netscape cookies.txt, plain text, at most 100 KiB"),
		"",
		m.help.View(UploadKeys),
	)
	padded := lipgloss.NewStyle().Padding(0, 2).Render(content)
	box := renderBtopBox("Upload Cookies", padded, min(80, m.width), 9, ColorNeonPink, false)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func shortID(id string) string {
	if id == "" {
		return "(none)"
	}
	return truncateString(id, 8)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func truncateString(s string, i int) string {
	runes := []rune(s)
	if len(runes) > i {
		return string(runes[:i]) + "..."
	}
	return s
}

// renderBtopBox creates a btop-style box with title embedded in the top border
// titleRight: if true, title appears on the right side; if false, title appears on the left
// Example (left):  ╭─ TITLE ─────────────────────────────────╮
// Example (right): ╭─────────────────────────────────── TITLE ─╮
func renderBtopBox(title string, content string, width, height int, borderColor lipgloss.TerminalColor, titleRight bool) string {
	const (
		topLeft     = "╭"
		topRight    = "╮"
		bottomLeft  = "╰"
		bottomRight = "╯"
		horizontal  = "─"
		vertical    = "│"
	)

	innerWidth := max(width-2, 1)

	titleText := fmt.Sprintf(" %s ", title)
	remainingWidth := max(innerWidth-lipgloss.Width(titleText)-1, 0)

	border := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(ColorNeonCyan).Bold(true)

	var topBorder string
	if titleRight {
		topBorder = border.Render(topLeft+strings.Repeat(horizontal, remainingWidth)) +
			titleStyle.Render(titleText) +
			border.Render(horizontal+topRight)
	} else {
		topBorder = border.Render(topLeft+horizontal) +
			titleStyle.Render(titleText) +
			border.Render(strings.Repeat(horizontal, remainingWidth)+topRight)
	}

	bottomBorder := border.Render(bottomLeft + strings.Repeat(horizontal, innerWidth) + bottomRight)

	contentLines := strings.Split(content, "\n")
	innerHeight := height - 2

	wrappedLines := make([]string, 0, max(innerHeight, 0))
	for i := 0; i < innerHeight; i++ {
		line := ""
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lineWidth := lipgloss.Width(line)
		if lineWidth < innerWidth {
			line += strings.Repeat(" ", innerWidth-lineWidth)
		} else if lineWidth > innerWidth {
			line = lipgloss.NewStyle().MaxWidth(innerWidth).Render(line)
		}
		wrappedLines = append(wrappedLines, border.Render(vertical)+line+border.Render(vertical))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		topBorder,
		strings.Join(wrappedLines, "\n"),
		bottomBorder,
	)
}
