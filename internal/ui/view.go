package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logmon/internal/discovery"
)

func (m Model) bodyHeight() int {
	// header, tabs, status
	return max(3, m.height-3)
}

// paneWidths returns the file list and log widths. Narrow terminals hide
// the file list.
func (m Model) paneWidths() (int, int) {
	if m.width < minSplitWidth {
		return 0, m.width
	}
	files := max(28, m.width/3)
	return files, m.width - files
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render(" logmon ", styles.Logo)}
	if m.server != "" {
		parts = append(parts, bg.Render(m.server, styles.MutedText))
	}
	parts = append(parts, bg.Render(fmt.Sprintf("%d files", len(m.snapshot.Logs)), styles.Text))

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText.Bold(true)))
	case !m.snapshot.HasLogs:
		parts = append(parts, bg.Render("connecting…", styles.WarningText))
	case m.logState.paused:
		parts = append(parts, bg.Render("PAUSED", styles.WarningText.Bold(true)))
	default:
		parts = append(parts, bg.Render("LIVE", styles.SuccessText.Bold(true)))
	}
	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, bg.Render("updated "+m.snapshot.LastUpdated.Format(time.TimeOnly), styles.FaintText))
	}
	if m.notice != "" {
		parts = append(parts, bg.Render(m.notice, styles.InfoText))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)

	tabs := make([]string, 0, len(m.tags)+1)
	label := fmt.Sprintf("All (%d)", len(m.snapshot.Logs))
	if m.tagIdx == 0 {
		tabs = append(tabs, styles.ActiveTab.Render(label))
	} else {
		tabs = append(tabs, styles.Tab.Render(label))
	}
	for i, tc := range m.tags {
		label := fmt.Sprintf("%s (%d)", tc.Tag, tc.Count)
		if m.tagIdx == i+1 {
			tabs = append(tabs, styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, styles.Tab.Render(label))
		}
	}
	return bg.FillLine(bg.Join(tabs, " "), m.width)
}

func (m Model) renderBody() string {
	h := m.bodyHeight()
	filesW, logW := m.paneWidths()

	logTitle := "Log · " + m.viewLabel()
	logBox := m.renderBox(logTitle, m.logState.viewport.View(), logW, h, m.focus == paneLog || filesW == 0)
	if filesW == 0 {
		return logBox
	}
	filesBox := m.renderBox("Files", m.renderFileList(filesW-2, h-3), filesW, h, m.focus == paneFiles)
	return lipgloss.JoinHorizontal(lipgloss.Top, filesBox, logBox)
}

func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	styles := m.theme.Styles()
	border := m.theme.Border
	titleStyle := styles.MutedText.Bold(true)
	if focused {
		border = m.theme.BorderFocus
		titleStyle = styles.AccentText.Bold(true)
	}
	inner := max(0, width-2)
	body := titleStyle.Render(truncate(title, inner)) + "\n" + content
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(inner).
		Height(max(0, height-2)).
		MaxHeight(height).
		Render(body)
}

// viewLabel names what the log pane is showing.
func (m Model) viewLabel() string {
	if m.logState.file != "" {
		for _, e := range m.snapshot.Logs {
			if e.Path == m.logState.file {
				return e.Name
			}
		}
		return m.logState.file
	}
	if tag := m.currentTag(); tag != "" {
		return tag
	}
	return "all tags"
}

func (m Model) renderFileList(width, height int) string {
	styles := m.theme.Styles()
	entries := m.snapshot.ByTag(m.currentTag())
	if len(entries) == 0 {
		return styles.MutedText.Render("No log files")
	}

	start := 0
	if height > 0 && m.selected >= height {
		start = m.selected - height + 1
	}
	end := len(entries)
	if height > 0 && start+height < end {
		end = start + height
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderFileRow(entries[i], i == m.selected, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFileRow(e discovery.Entry, selected bool, width int) string {
	styles := m.theme.Styles()
	size := formatSize(e.Size)
	nameW := max(1, width-len(size)-1)
	name := truncate(e.Name, nameW)
	if e.Path == m.logState.file {
		name = truncate("● "+e.Name, nameW)
	}
	row := padRight(name, nameW) + " " + size
	if selected && m.focus == paneFiles {
		return styles.Selected.Width(width).Render(row)
	}
	if selected {
		return styles.AccentText.Render(row)
	}
	return styles.Text.Render(padRight(name, nameW)) + " " + styles.FaintText.Render(size)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}

func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	if m.logState.searchActive {
		return bg.FillLine(m.logState.searchInput.View(), m.width)
	}

	parts := []string{
		bg.Render(fmt.Sprintf("%d/%d lines", len(m.logState.visible), len(m.logState.records)), styles.Text),
	}
	level := "all"
	if m.logState.level != "" {
		level = m.logState.level
	}
	parts = append(parts, bg.Render("level:"+level, styles.LevelStyle(m.logState.level)))
	if m.logState.query != "" {
		parts = append(parts, bg.Render("search:"+m.logState.query, styles.AccentText))
	}
	if !m.logState.within.IsZero() {
		parts = append(parts, bg.Render("range:"+m.logState.within.String(), styles.InfoText))
	}
	if m.logState.follow {
		parts = append(parts, bg.Render("auto-scroll", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("scroll locked", styles.MutedText))
	}
	if m.logState.partial {
		parts = append(parts, bg.Render("tail only", styles.WarningText))
	}
	if m.logState.err != nil {
		parts = append(parts, bg.Render(truncate(m.logState.err.Error(), 48), styles.DangerText))
	}
	parts = append(parts, bg.Render("? help", styles.FaintText))
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

func (m Model) handleFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.snapshot.ByTag(m.currentTag())
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(entries)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = max(0, len(entries)-1)
	case key.Matches(msg, m.keys.Open):
		if m.selected < len(entries) {
			m.logState.file = entries[m.selected].Path
			m.focus = paneLog
			cmd := m.fetchLogs(true)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) hasFile(webPath string) bool {
	for _, e := range m.snapshot.Logs {
		if e.Path == webPath {
			return true
		}
	}
	return false
}

func (m *Model) clampSelection() {
	n := len(m.snapshot.ByTag(m.currentTag()))
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}
