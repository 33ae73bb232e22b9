// Package ui provides the Bubble Tea refresh monitor.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/snapdesk/internal/prefs"
	"github.com/five82/snapdesk/internal/refresh"
	"github.com/five82/snapdesk/internal/snapd"
)

const maxCompleted = 5

// Options configures the monitor.
type Options struct {
	// Ignore silences reminders for a snap. Nil disables the ignore key.
	Ignore    func(snapName string) error
	ThemeName string
	PrefsPath string
	// Now overrides the clock. Nil uses time.Now.
	Now func() time.Time
}

type activeRefresh struct {
	name       string
	visible    string
	foreground bool
	progress   refresh.Progress
}

type pendingSnap struct {
	name         string
	title        string
	remaining    time.Duration
	hasRemaining bool
	forced       bool
	ignored      bool
}

type completedSnap struct {
	name    string
	title   string
	version string
	at      time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ignore    func(string) error
	prefsPath string
	now       func() time.Time

	theme  Theme
	keys   keyMap
	help   help.Model
	bar    progress.Model
	width  int
	height int

	active    []*activeRefresh
	pending   []*pendingSnap
	completed []completedSnap
	selected  int
	status    string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = DefaultTheme
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		ignore:    opts.Ignore,
		prefsPath: prefsPath,
		now:       now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
	}
	m.setTheme(GetTheme(themeName))
	return m
}

func (m *Model) setTheme(t Theme) {
	m.theme = t
	m.bar = progress.New(
		progress.WithGradient(t.BarStart, t.BarEnd),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case beginMsg:
		ar := m.activeFor(msg.snap)
		ar.visible = msg.visible
		ar.foreground = true
		return m, nil

	case progressMsg:
		ar := m.activeFor(msg.SnapName)
		ar.progress = refresh.Progress(msg)
		if msg.TaskDone && !ar.foreground {
			m.dropActive(msg.SnapName)
		}
		return m, nil

	case endMsg:
		m.dropActive(msg.snap)
		return m, nil

	case pendingMsg:
		m.setPending(msg)
		return m, nil

	case forcedMsg:
		p := m.pendingFor(msg.snap)
		p.remaining = msg.remaining
		p.hasRemaining = true
		p.forced = true
		return m, nil

	case completeMsg:
		m.addCompleted(msg.snap, msg.name)
		return m, nil

	case ignoredMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Cannot ignore %s: %v", msg.name, msg.err)
			return m, nil
		}
		for _, p := range m.pending {
			if p.name == msg.name {
				p.ignored = true
			}
		}
		m.status = fmt.Sprintf("Reminders for %s silenced", msg.name)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.CycleTheme):
		m.setTheme(GetTheme(NextTheme(m.theme.Name)))
		if m.prefsPath != "" {
			_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name})
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.pending)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Ignore):
		if m.ignore == nil || len(m.pending) == 0 {
			return m, nil
		}
		name := m.pending[m.selected].name
		ignore := m.ignore
		return m, func() tea.Msg {
			return ignoredMsg{name: name, err: ignore(name)}
		}
	}
	return m, nil
}

func (m *Model) activeFor(name string) *activeRefresh {
	for _, ar := range m.active {
		if ar.name == name {
			return ar
		}
	}
	ar := &activeRefresh{name: name, visible: name}
	m.active = append(m.active, ar)
	return ar
}

func (m *Model) dropActive(name string) {
	for i, ar := range m.active {
		if ar.name == name {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}

func (m *Model) pendingFor(snap snapd.Snap) *pendingSnap {
	for _, p := range m.pending {
		if p.name == snap.Name {
			p.title = snap.DisplayName()
			return p
		}
	}
	p := &pendingSnap{name: snap.Name, title: snap.DisplayName()}
	m.pending = append(m.pending, p)
	return p
}

// setPending replaces the pending list with a new batch. Remaining times
// announced by forced notifications are kept; ignore marks are not, since a
// new batch means the set of held snaps changed.
func (m *Model) setPending(batch []snapd.Snap) {
	known := make(map[string]*pendingSnap, len(m.pending))
	for _, p := range m.pending {
		known[p.name] = p
	}
	next := make([]*pendingSnap, 0, len(batch))
	for _, snap := range batch {
		p := &pendingSnap{name: snap.Name, title: snap.DisplayName()}
		if old, ok := known[snap.Name]; ok {
			p.remaining = old.remaining
			p.hasRemaining = old.hasRemaining
			p.forced = old.forced
		}
		next = append(next, p)
	}
	m.pending = next
	if m.selected >= len(m.pending) {
		m.selected = max(len(m.pending)-1, 0)
	}
}

func (m *Model) addCompleted(snap snapd.Snap, name string) {
	title := snap.DisplayName()
	if title == "" {
		title = name
	}
	m.completed = append([]completedSnap{{name: name, title: title, version: snap.Version, at: m.now()}}, m.completed...)
	if len(m.completed) > maxCompleted {
		m.completed = m.completed[:maxCompleted]
	}

	for i, p := range m.pending {
		if p.name == name {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	if m.selected >= len(m.pending) {
		m.selected = max(len(m.pending)-1, 0)
	}
}
