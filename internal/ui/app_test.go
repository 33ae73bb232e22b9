package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/snapdesk/internal/prefs"
	"github.com/five82/snapdesk/internal/refresh"
	"github.com/five82/snapdesk/internal/snapd"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, ignore func(string) error) Model {
	t.Helper()
	return New(Options{
		Ignore:    ignore,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Now:       func() time.Time { return testNow },
	})
}

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) { r.msgs = append(r.msgs, msg) }

func TestModel_ForegroundRefreshLifecycle(t *testing.T) {
	m := newTestModel(t, nil)
	m = update(t, m,
		beginMsg{snap: "firefox", visible: "Firefox"},
		progressMsg{SnapName: "firefox", Description: "Download snap", DoneTasks: 1, TotalTasks: 4},
	)

	if len(m.active) != 1 || m.active[0].visible != "Firefox" || !m.active[0].foreground {
		t.Fatalf("active = %+v, want foreground Firefox", m.active)
	}
	view := m.View()
	if !strings.Contains(view, "Firefox") || !strings.Contains(view, "1/4") {
		t.Fatalf("view missing refresh row:\n%s", view)
	}

	m = update(t, m, progressMsg{SnapName: "firefox", DoneTasks: 4, TotalTasks: 4, TaskDone: true})
	if len(m.active) != 1 {
		t.Fatalf("foreground refresh dropped before EndRefresh")
	}
	m = update(t, m, endMsg{snap: "firefox"}, completeMsg{snap: snapd.Snap{Name: "firefox", Title: "Firefox", Version: "131.0"}, name: "firefox"})
	if len(m.active) != 0 {
		t.Fatalf("active = %+v, want empty", m.active)
	}
	if len(m.completed) != 1 || m.completed[0].version != "131.0" {
		t.Fatalf("completed = %+v", m.completed)
	}
	if !strings.Contains(m.View(), "Recently updated") {
		t.Fatalf("view missing completed section")
	}
}

func TestModel_BackgroundRefreshDropsOnFinalProgress(t *testing.T) {
	m := newTestModel(t, nil)
	m = update(t, m, progressMsg{SnapName: "vlc", DoneTasks: 1, TotalTasks: 2})
	if len(m.active) != 1 || m.active[0].foreground {
		t.Fatalf("active = %+v, want one background refresh", m.active)
	}
	m = update(t, m, progressMsg{SnapName: "vlc", DoneTasks: 2, TotalTasks: 2, TaskDone: true})
	if len(m.active) != 0 {
		t.Fatalf("active = %+v, want empty", m.active)
	}
}

func TestModel_PendingKeepsForcedRemaining(t *testing.T) {
	m := newTestModel(t, nil)
	firefox := snapd.Snap{Name: "firefox", Title: "Firefox"}
	m = update(t, m,
		forcedMsg{snap: firefox, remaining: 10 * time.Hour, allow: true},
		pendingMsg{firefox, {Name: "vlc"}},
	)

	if len(m.pending) != 2 {
		t.Fatalf("pending = %d entries, want 2", len(m.pending))
	}
	if p := m.pending[0]; !p.forced || p.remaining != 10*time.Hour {
		t.Fatalf("pending[0] = %+v, want forced with 10h", p)
	}
	if m.pending[1].hasRemaining {
		t.Fatalf("pending[1] = %+v, want no remaining time", m.pending[1])
	}
	if view := m.View(); !strings.Contains(view, "forced in 10 hours") {
		t.Fatalf("view missing countdown:\n%s", view)
	}

	m = update(t, m, pendingMsg{{Name: "vlc"}})
	if len(m.pending) != 1 || m.pending[0].name != "vlc" {
		t.Fatalf("pending = %+v, want only vlc", m.pending)
	}
}

func TestModel_IgnoreSelectedSnap(t *testing.T) {
	var ignored []string
	m := newTestModel(t, func(name string) error {
		ignored = append(ignored, name)
		return nil
	})
	m = update(t, m, pendingMsg{{Name: "firefox"}, {Name: "vlc"}}, runes("j"))

	next, cmd := m.Update(runes("i"))
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("ignore key returned no command")
	}
	m = update(t, m, cmd())

	if len(ignored) != 1 || ignored[0] != "vlc" {
		t.Fatalf("ignored = %v, want [vlc]", ignored)
	}
	if !m.pending[1].ignored || m.pending[0].ignored {
		t.Fatalf("pending ignore marks wrong: %+v %+v", m.pending[0], m.pending[1])
	}
	if !strings.Contains(m.View(), "(silenced)") {
		t.Fatalf("view missing silenced marker")
	}

	// A new batch clears the marks.
	m = update(t, m, pendingMsg{{Name: "firefox"}, {Name: "vlc"}, {Name: "htop"}})
	for _, p := range m.pending {
		if p.ignored {
			t.Fatalf("pending %s still ignored after new batch", p.name)
		}
	}
}

func TestModel_IgnoreFailureSetsStatus(t *testing.T) {
	m := newTestModel(t, func(string) error { return refresh.ErrStopped })
	m = update(t, m, pendingMsg{{Name: "firefox"}})

	_, cmd := m.Update(runes("i"))
	m = update(t, m, cmd())
	if m.pending[0].ignored {
		t.Fatalf("snap marked ignored after failure")
	}
	if !strings.Contains(m.status, "Cannot ignore firefox") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestModel_IgnoreWithoutPendingIsNoop(t *testing.T) {
	m := newTestModel(t, func(string) error { return errors.New("unexpected") })
	if _, cmd := m.Update(runes("i")); cmd != nil {
		t.Fatalf("ignore with empty list returned a command")
	}
}

func TestModel_CycleThemeSavesPrefs(t *testing.T) {
	m := newTestModel(t, nil)
	if m.theme.Name != DefaultTheme {
		t.Fatalf("theme = %q, want %q", m.theme.Name, DefaultTheme)
	}
	m = update(t, m, runes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	saved, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", saved.Theme)
	}
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, nil)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("quit command did not return QuitMsg")
	}
}

func TestModel_CompletedListIsBounded(t *testing.T) {
	m := newTestModel(t, nil)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		m = update(t, m, completeMsg{snap: snapd.Snap{Name: name}, name: name})
	}
	if len(m.completed) != maxCompleted {
		t.Fatalf("completed = %d, want %d", len(m.completed), maxCompleted)
	}
	if m.completed[0].name != "g" {
		t.Fatalf("newest completed = %q, want g", m.completed[0].name)
	}
}

func TestProgramSinkSendsMessages(t *testing.T) {
	rec := &recordingSender{}
	sink := NewProgramSink(rec)

	snaps := []snapd.Snap{{Name: "firefox"}}
	sink.BeginRefresh("firefox", "Firefox", "")
	sink.RefreshProgress(refresh.Progress{SnapName: "firefox"})
	sink.EndRefresh("firefox")
	sink.NotifyPendingRefresh(snaps)
	sink.NotifyPendingRefreshForced(snaps[0], time.Hour, true)
	sink.NotifyRefreshComplete(snaps[0], "firefox")

	if len(rec.msgs) != 6 {
		t.Fatalf("sent %d messages, want 6", len(rec.msgs))
	}
	snaps[0].Name = "changed"
	if got := rec.msgs[3].(pendingMsg); got[0].Name != "firefox" {
		t.Fatalf("pending batch shares the caller's slice")
	}
}

func TestThemeCycle(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() = %v, want 3 names", names)
	}
	for i, name := range names {
		if got, want := NextTheme(name), names[(i+1)%len(names)]; got != want {
			t.Fatalf("NextTheme(%q) = %q, want %q", name, got, want)
		}
	}
	if got := NextTheme("Dracula"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
	if got := GetTheme("missing").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(missing) = %q, want Nightfox", got)
	}
}

func TestRemainingText(t *testing.T) {
	if got := remainingText(2 * 24 * time.Hour); got != "2 days" {
		t.Fatalf("remainingText = %q, want %q", got, "2 days")
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
}
