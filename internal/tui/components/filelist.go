package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/ytleenf/ytclient/internal/engine/types"
)

// FileListModel renders a session's finished files as name/size rows
type FileListModel struct {
	Files  []types.FileEntry
	Width  int // Render width in columns
	Height int // Available rows (0 = all)

	NameStyle  lipgloss.Style
	SizeStyle  lipgloss.Style
	EmptyStyle lipgloss.Style
}

// NewFileListModel creates a file list with plain styles
func NewFileListModel(files []types.FileEntry, width, height int) FileListModel {
	return FileListModel{
		Files:      files,
		Width:      width,
		Height:     height,
		NameStyle:  lipgloss.NewStyle(),
		SizeStyle:  lipgloss.NewStyle(),
		EmptyStyle: lipgloss.NewStyle(),
	}
}

// View renders one row per file. When the files do not fit, the last row
// reports how many were left out.
func (m FileListModel) View() string {
	if len(m.Files) == 0 {
		return m.EmptyStyle.Render("No files yet")
	}

	visible := m.Files
	hidden := 0
	if m.Height > 0 && len(m.Files) > m.Height {
		visible = m.Files[:max(m.Height-1, 0)]
		hidden = len(m.Files) - len(visible)
	}

	const sizeWidth = 10
	nameWidth := max(m.Width-sizeWidth-1, 8)

	rows := make([]string, 0, len(visible)+1)
	for _, f := range visible {
		size := humanize.IBytes(uint64(max(f.Size, 0)))
		rows = append(rows,
			m.NameStyle.Render(padRight(truncate(f.Name, nameWidth), nameWidth))+" "+
				m.SizeStyle.Render(fmt.Sprintf("%*s", sizeWidth, size)))
	}
	if hidden > 0 {
		rows = append(rows, m.EmptyStyle.Render(fmt.Sprintf("+%d more", hidden)))
	}
	return strings.Join(rows, "\n")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
