package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logmon/internal/client"
	"github.com/five82/logmon/internal/discovery"
	"github.com/five82/logmon/internal/logline"
	"github.com/five82/logmon/internal/logtail"
	"github.com/five82/logmon/internal/prefs"
)

// logState is the log pane: what is loaded, how it is filtered, and where
// the viewport sits.
type logState struct {
	viewport viewport.Model

	key     string // view the records belong to, see viewKey
	file    string // web path when one file is open, empty for the tag view
	records []logline.Record
	visible []logline.Record
	partial bool
	err     error

	follow bool
	paused bool
	level  string
	query  string
	within logline.Range

	searchActive bool
	inputMode    inputMode
	searchInput  textinput.Model

	lastFetch time.Time
	inFlight  bool

	contentVersion uint64
	lastRendered   uint64
}

// inputMode is what the shared text input is editing.
type inputMode int

const (
	inputSearch inputMode = iota
	inputRange
)

func newLogState(p prefs.Prefs) logState {
	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "search"
	input.CharLimit = 200

	return logState{
		viewport:    viewport.New(0, 0),
		follow:      p.Following(),
		level:       normalizeLevelPref(p.Level),
		searchInput: input,
	}
}

func normalizeLevelPref(level string) string {
	level = logline.NormalizeLevel(level)
	for _, l := range logline.Levels {
		if l == level {
			return l
		}
	}
	return ""
}

// nextLevel cycles all, error, warn, info, debug.
func nextLevel(current string) string {
	if current == "" {
		return logline.Levels[0]
	}
	for i, l := range logline.Levels {
		if l == current && i+1 < len(logline.Levels) {
			return logline.Levels[i+1]
		}
	}
	return ""
}

type recordsMsg struct {
	key     string
	records []logline.Record
	partial bool
	err     error
}

// viewKey identifies what the log pane should show right now.
func (m Model) viewKey() string {
	if m.logState.file != "" {
		return "file:" + m.logState.file
	}
	return "tag:" + m.currentTag()
}

// viewEntries returns the files that feed the log pane.
func (m Model) viewEntries() []discovery.Entry {
	if m.logState.file != "" {
		for _, e := range m.snapshot.Logs {
			if e.Path == m.logState.file {
				return []discovery.Entry{e}
			}
		}
		return nil
	}
	return m.snapshot.ByTag(m.currentTag())
}

// fetchLogs loads the current view. Unforced calls are skipped while a load
// is running or the last one is younger than the poll tick.
func (m *Model) fetchLogs(force bool) tea.Cmd {
	if m.client == nil {
		return nil
	}
	if !force && (m.logState.inFlight || time.Since(m.logState.lastFetch) < m.pollTick) {
		return nil
	}
	entries := m.viewEntries()
	viewKey := m.viewKey()
	fetcher, parent, limit := m.client, m.ctx, m.maxLines

	m.logState.lastFetch = time.Now()
	m.logState.inFlight = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()
		return loadRecords(ctx, fetcher, viewKey, entries, limit)
	}
}

func loadRecords(ctx context.Context, fetcher client.Fetcher, viewKey string, entries []discovery.Entry, limit int) recordsMsg {
	msg := recordsMsg{key: viewKey}
	var all []logline.Record
	for _, e := range entries {
		content, err := fetcher.FetchContent(ctx, e.Path)
		if err != nil {
			// Files rotate away between scans; the next rescan drops them.
			if client.IsNotFound(err) {
				continue
			}
			if msg.err == nil {
				msg.err = err
			}
			continue
		}
		if content.Partial {
			msg.partial = true
		}
		// Only the newest limit lines of a file can survive the merge.
		lines, err := logtail.Lines(content.Data, limit)
		if err != nil {
			if msg.err == nil {
				msg.err = fmt.Errorf("%s: %w", e.Filename, err)
			}
			continue
		}
		all = append(all, logline.ParseLines(lines, e)...)
	}
	msg.records = logline.Merge(all, limit)
	return msg
}

func (m *Model) handleRecords(msg recordsMsg) {
	m.logState.inFlight = false
	if msg.key != m.viewKey() {
		return
	}
	m.logState.key = msg.key
	m.logState.err = msg.err
	if msg.err != nil && len(msg.records) == 0 && len(m.logState.records) > 0 {
		return
	}
	m.logState.records = msg.records
	m.logState.partial = msg.partial
	m.applyFilters()
}

func (m *Model) applyFilters() {
	m.logState.visible = logline.Filter(m.logState.records, m.logState.level, m.logState.query, m.logState.within)
	m.logState.contentVersion++
	m.updateLogViewport()
}

// logPaneSize returns the viewport dimensions inside the log box.
func (m Model) logPaneSize() (int, int) {
	_, logW := m.paneWidths()
	return max(0, logW-2), max(0, m.bodyHeight()-3)
}

func (m *Model) updateLogViewport() {
	w, h := m.logPaneSize()
	vp := &m.logState.viewport
	vp.Width = w
	vp.Height = h
	if m.logState.lastRendered != m.logState.contentVersion {
		vp.SetContent(m.renderLogContent(w))
		m.logState.lastRendered = m.logState.contentVersion
	}
	if m.logState.follow {
		vp.GotoBottom()
	}
}

func (m Model) renderLogContent(width int) string {
	styles := m.theme.Styles()
	if len(m.logState.visible) == 0 {
		switch {
		case m.logState.err != nil:
			return styles.DangerText.Render("Error: " + m.logState.err.Error())
		case len(m.logState.records) > 0:
			return styles.MutedText.Render("No lines match the current filter.")
		case len(m.viewEntries()) == 0:
			return styles.MutedText.Render("No log files for this view.")
		default:
			return styles.MutedText.Render("Waiting for log lines…")
		}
	}

	showTag := m.logState.file == "" && m.currentTag() == ""
	var b strings.Builder
	for i, r := range m.logState.visible {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.renderRecord(r, styles, showTag, width))
	}
	return b.String()
}

func (m Model) renderRecord(r logline.Record, styles Styles, showTag bool, width int) string {
	if r.Timestamp == "" {
		return lipgloss.NewStyle().MaxWidth(width).Render(styles.Text.Render(r.Raw))
	}
	parts := []string{styles.FaintText.Render(r.Timestamp)}
	level := strings.ToUpper(r.Level)
	if level == "" {
		level = "-"
	}
	parts = append(parts, styles.LevelStyle(r.Level).Render(padRight(level, 5)))
	if showTag && r.Tag != "" {
		parts = append(parts, styles.AccentText.Render("["+r.Tag+"]"))
	}
	parts = append(parts, styles.Text.Render(r.Message))
	line := strings.Join(parts, " ")
	if width > 0 {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return line
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func (m Model) handleLogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vp := &m.logState.viewport
	switch {
	case key.Matches(msg, m.keys.Up):
		vp.ScrollUp(1)
		m.logState.follow = false
	case key.Matches(msg, m.keys.Down):
		vp.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		vp.PageUp()
		m.logState.follow = false
	case key.Matches(msg, m.keys.PageDown):
		vp.PageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		vp.HalfPageUp()
		m.logState.follow = false
	case key.Matches(msg, m.keys.HalfPageDown):
		vp.HalfPageDown()
	case key.Matches(msg, m.keys.Top):
		vp.GotoTop()
		m.logState.follow = false
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
		m.logState.follow = true
	}
	return m, nil
}

// openInput focuses the shared text input for mode.
func (m *Model) openInput(mode inputMode) {
	in := &m.logState.searchInput
	switch mode {
	case inputRange:
		in.Prompt = "range> "
		in.Placeholder = "YYYY-MM-DD[ HH:MM]..YYYY-MM-DD[ HH:MM]"
		in.SetValue(m.logState.within.String())
	default:
		in.Prompt = "/"
		in.Placeholder = "search"
		in.SetValue(m.logState.query)
	}
	in.CursorEnd()
	in.Focus()
	m.logState.inputMode = mode
	m.logState.searchActive = true
}

func (m *Model) closeInput() {
	m.logState.searchActive = false
	m.logState.searchInput.Blur()
}

func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeInput()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		value := strings.TrimSpace(m.logState.searchInput.Value())
		if m.logState.inputMode == inputRange {
			within, err := logline.ParseRange(value)
			if err != nil {
				m.notice = "invalid range: " + err.Error()
				return m, nil
			}
			m.logState.within = within
			m.notice = ""
		} else {
			m.logState.query = value
		}
		m.closeInput()
		m.applyFilters()
		return m, nil
	}
	var cmd tea.Cmd
	m.logState.searchInput, cmd = m.logState.searchInput.Update(msg)
	return m, cmd
}
