package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logmon/internal/catalog"
	"github.com/five82/logmon/internal/client"
	"github.com/five82/logmon/internal/logline"
	"github.com/five82/logmon/internal/prefs"
	"github.com/five82/logmon/internal/state"
)

type pane int

const (
	paneFiles pane = iota
	paneLog
)

const (
	defaultPollTick = 2 * time.Second
	defaultMaxLines = 1000
	fetchTimeout    = 5 * time.Second
	// minSplitWidth is the narrowest terminal that still shows the file list
	// next to the log.
	minSplitWidth = 90
)

// Options configures the viewer.
type Options struct {
	Context   context.Context
	Client    client.Fetcher
	Store     *state.Store
	PollTick  time.Duration
	MaxLines  int // records kept per view; the server's maxEntriesPerTag
	Prefs     prefs.Prefs
	PrefsPath string
	Server    string // shown in the header
}

// Model is the root viewer state for Bubble Tea.
type Model struct {
	ctx       context.Context
	client    client.Fetcher
	store     *state.Store
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration
	maxLines  int
	server    string
	keys      keyMap

	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	focus    pane

	snapshot    state.Snapshot
	lastUpdated time.Time

	tags       []catalog.TagCount
	tagIdx     int // 0 shows every tag; i > 0 shows tags[i-1]
	pendingTag string
	selected   int

	logState logState

	notice string
}

// New creates the viewer model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = defaultPollTick
	}
	maxLines := opts.MaxLines
	if maxLines <= 0 {
		maxLines = defaultMaxLines
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:        ctx,
		client:     opts.Client,
		store:      opts.Store,
		prefs:      opts.Prefs,
		prefsPath:  prefsPath,
		pollTick:   pollTick,
		maxLines:   maxLines,
		server:     opts.Server,
		keys:       DefaultKeyMap(),
		theme:      GetTheme(opts.Prefs.Theme),
		pendingTag: opts.Prefs.LastTag,
		logState:   newLogState(opts.Prefs),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.logState.contentVersion++
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		cmd := m.applySnapshot(state.Snapshot(msg))
		return m, cmd

	case recordsMsg:
		m.handleRecords(msg)
		return m, nil

	case refreshedMsg:
		return m.handleRefreshed(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTabs(),
		m.renderBody(),
		m.renderStatus(),
	)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.logState.searchActive {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePrefs()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.logState.contentVersion++
		m.updateLogViewport()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.focus == paneFiles {
			m.focus = paneLog
		} else {
			m.focus = paneFiles
		}
		return m, nil

	case key.Matches(msg, m.keys.NextTag):
		m.switchTag(1)
		cmd := m.fetchLogs(true)
		return m, cmd

	case key.Matches(msg, m.keys.PrevTag):
		m.switchTag(-1)
		cmd := m.fetchLogs(true)
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		m.notice = "rediscovering…"
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Pause):
		m.logState.paused = !m.logState.paused
		if !m.logState.paused {
			cmd := m.fetchLogs(true)
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.AutoScroll):
		m.logState.follow = !m.logState.follow
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.openInput(inputSearch)
		return m, nil

	case key.Matches(msg, m.keys.TimeRange):
		m.openInput(inputRange)
		return m, nil

	case key.Matches(msg, m.keys.ClearRange):
		m.logState.within = logline.Range{}
		m.applyFilters()
		return m, nil

	case key.Matches(msg, m.keys.CycleLevel):
		m.logState.level = nextLevel(m.logState.level)
		m.applyFilters()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.logState.query != "" {
			m.logState.query = ""
			m.applyFilters()
			return m, nil
		}
		if !m.logState.within.IsZero() {
			m.logState.within = logline.Range{}
			m.applyFilters()
			return m, nil
		}
		if m.logState.file != "" {
			m.logState.file = ""
			m.focus = paneFiles
			cmd := m.fetchLogs(true)
			return m, cmd
		}
		return m, nil
	}

	if m.focus == paneFiles {
		return m.handleFilesKey(msg)
	}
	return m.handleLogKey(msg)
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if !m.logState.paused {
		if cmd := m.fetchLogs(false); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// applySnapshot installs a new catalog view, keeping the current tag when it
// still exists.
func (m *Model) applySnapshot(snap state.Snapshot) tea.Cmd {
	current := m.currentTag()
	m.snapshot = snap
	m.lastUpdated = time.Now()
	m.tags = snap.Tags()

	if m.pendingTag != "" && snap.HasLogs {
		current = m.pendingTag
		m.pendingTag = ""
	}
	m.tagIdx = 0
	for i, tc := range m.tags {
		if tc.Tag == current {
			m.tagIdx = i + 1
			break
		}
	}

	if m.logState.file != "" && !m.hasFile(m.logState.file) {
		m.logState.file = ""
	}
	m.clampSelection()

	if m.logState.key != m.viewKey() {
		return m.fetchLogs(true)
	}
	return nil
}

func (m Model) handleRefreshed(msg refreshedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.notice = "refresh failed: " + msg.err.Error()
		return m, nil
	}
	m.notice = fmt.Sprintf("rediscovered %d files", msg.list.Count)
	if m.store == nil {
		return m, nil
	}
	m.store.Update(&msg.list, nil)
	return m, fetchSnapshotCmd(m.store)
}

// currentTag returns the selected tag, empty for the combined view.
func (m Model) currentTag() string {
	if m.tagIdx <= 0 || m.tagIdx > len(m.tags) {
		return ""
	}
	return m.tags[m.tagIdx-1].Tag
}

func (m *Model) switchTag(delta int) {
	n := len(m.tags) + 1
	m.tagIdx = ((m.tagIdx+delta)%n + n) % n
	m.selected = 0
	m.logState.file = ""
	m.logState.records = nil
	m.logState.visible = nil
	m.logState.contentVersion++
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := m.prefs
	p.Theme = m.theme.Name
	p.LastTag = m.currentTag()
	p.Level = m.logState.level
	follow := m.logState.follow
	p.AutoScroll = &follow
	m.prefs = p
	_ = prefs.Save(m.prefsPath, p)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type refreshedMsg struct {
	list client.LogList
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) refreshCmd() tea.Cmd {
	if m.client == nil {
		return nil
	}
	fetcher, parent := m.client, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()
		list, err := fetcher.Refresh(ctx)
		return refreshedMsg{list: list, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	popts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		popts = append(popts, tea.WithContext(opts.Context))
	}
	_, err := tea.NewProgram(m, popts...).Run()
	if opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
