package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/snapdesk/internal/logging"
	"github.com/five82/snapdesk/internal/refresh"
	"github.com/five82/snapdesk/internal/snapd"
)

type fakeNotifier struct {
	sent   []Notification
	closed []uint32
	err    error
}

func (f *fakeNotifier) Notify(n Notification) (uint32, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, n)
	return uint32(len(f.sent)), nil
}

func (f *fakeNotifier) Close(id uint32) error {
	f.closed = append(f.closed, id)
	return nil
}

type emitted struct {
	path dbus.ObjectPath
	name string
	uri  string
	prog float64
	show bool
}

type fakeEmitter struct {
	signals []emitted
}

func (f *fakeEmitter) Emit(path dbus.ObjectPath, name string, values ...any) error {
	props := values[1].(map[string]dbus.Variant)
	f.signals = append(f.signals, emitted{
		path: path,
		name: name,
		uri:  values[0].(string),
		prog: props["progress"].Value().(float64),
		show: props["progress-visible"].Value().(bool),
	})
	return nil
}

type fakeIgnorer struct {
	mu      sync.Mutex
	ignored []string
	err     error
}

func (f *fakeIgnorer) Ignore(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.ignored = append(f.ignored, name)
	return nil
}

func newTestSink() (*Sink, *fakeNotifier, *fakeEmitter) {
	n, e := &fakeNotifier{}, &fakeEmitter{}
	s := NewSink(Options{Notifier: n, Emitter: e, DesktopEntry: "snapdesk", Logger: logging.Discard()})
	return s, n, e
}

func actionInvoked(id uint32, key string) *dbus.Signal {
	return &dbus.Signal{
		Path: notificationsPath,
		Name: notificationsIface + ".ActionInvoked",
		Body: []any{id, key},
	}
}

func TestSink_PendingSingleSnap(t *testing.T) {
	s, n, _ := newTestSink()

	s.NotifyPendingRefresh([]snapd.Snap{{Name: "firefox", Title: "Firefox"}})

	require.Len(t, n.sent, 1)
	got := n.sent[0]
	assert.Equal(t, "Update available for Firefox", got.Title)
	assert.Equal(t, "snapdesk", got.DesktopEntry)
	assert.Equal(t, []Action{{Key: actionIgnore, Label: "Don't remind me"}}, got.Actions)
}

func TestSink_PendingManySnaps(t *testing.T) {
	s, n, _ := newTestSink()

	s.NotifyPendingRefresh([]snapd.Snap{{Name: "firefox", Title: "Firefox"}, {Name: "vlc"}})
	s.NotifyPendingRefresh(nil)

	require.Len(t, n.sent, 1)
	assert.Equal(t, "Updates available for 2 apps", n.sent[0].Title)
	assert.Contains(t, n.sent[0].Body, "Firefox, vlc")
}

func TestSink_IgnoreActionSilencesEveryListedSnap(t *testing.T) {
	s, _, _ := newTestSink()
	ig := &fakeIgnorer{}
	s.SetIgnorer(ig)

	s.NotifyPendingRefresh([]snapd.Snap{{Name: "firefox"}, {Name: "vlc"}})
	s.HandleSignal(actionInvoked(1, "default"))
	assert.Empty(t, ig.ignored)

	s.HandleSignal(actionInvoked(1, actionIgnore))
	assert.Equal(t, []string{"firefox", "vlc"}, ig.ignored)

	// The notification is gone after its action fired.
	s.HandleSignal(actionInvoked(1, actionIgnore))
	assert.Len(t, ig.ignored, 2)
}

func TestSink_ClosedNotificationForgetsSnaps(t *testing.T) {
	s, _, _ := newTestSink()
	ig := &fakeIgnorer{}
	s.SetIgnorer(ig)

	s.NotifyPendingRefresh([]snapd.Snap{{Name: "firefox"}})
	s.HandleSignal(&dbus.Signal{Name: notificationsIface + ".NotificationClosed", Body: []any{uint32(1), uint32(2)}})
	s.HandleSignal(actionInvoked(1, actionIgnore))
	assert.Empty(t, ig.ignored)
}

func TestSink_MalformedSignalIsDropped(t *testing.T) {
	s, _, _ := newTestSink()
	ig := &fakeIgnorer{}
	s.SetIgnorer(ig)
	s.NotifyPendingRefresh([]snapd.Snap{{Name: "firefox"}})

	s.HandleSignal(&dbus.Signal{Name: notificationsIface + ".ActionInvoked", Body: []any{"1"}})
	assert.Empty(t, ig.ignored)
}

func TestSink_ForcedNotification(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		allow     bool
		title     string
		urgency   Urgency
		actions   int
	}{
		{"days", 2 * 24 * time.Hour, true, "Firefox will update in 2 days", UrgencyNormal, 1},
		{"alert", 18 * time.Hour, true, "Firefox will update in 18 hours", UrgencyCritical, 1},
		{"not ignorable", 30 * time.Minute, false, "Firefox will update in 30 minutes", UrgencyCritical, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, n, _ := newTestSink()
			s.NotifyPendingRefreshForced(snapd.Snap{Name: "firefox", Title: "Firefox"}, tt.remaining, tt.allow)
			require.Len(t, n.sent, 1)
			assert.Equal(t, tt.title, n.sent[0].Title)
			assert.Equal(t, tt.urgency, n.sent[0].Urgency)
			assert.Len(t, n.sent[0].Actions, tt.actions)
		})
	}
}

func TestSink_ForcedIgnoreAction(t *testing.T) {
	s, _, _ := newTestSink()
	ig := &fakeIgnorer{}
	s.SetIgnorer(ig)

	s.NotifyPendingRefreshForced(snapd.Snap{Name: "firefox"}, time.Hour, true)
	s.HandleSignal(actionInvoked(1, actionIgnore))
	assert.Equal(t, []string{"firefox"}, ig.ignored)
}

func TestSink_RefreshLifecycleDrivesLauncher(t *testing.T) {
	s, n, e := newTestSink()
	files := []string{"/var/lib/snapd/desktop/applications/firefox_firefox.desktop"}

	s.BeginRefresh("firefox", "Firefox", "firefox.png")
	require.Len(t, n.sent, 1)
	assert.Equal(t, "Updating Firefox", n.sent[0].Title)
	assert.Equal(t, "firefox.png", n.sent[0].Icon)

	s.RefreshProgress(refresh.Progress{SnapName: "firefox", DesktopFiles: files, DoneTasks: 1, TotalTasks: 4})
	s.EndRefresh("firefox")

	assert.Equal(t, []uint32{1}, n.closed)
	require.Len(t, e.signals, 2)
	assert.Equal(t, emitted{
		path: "/",
		name: "com.canonical.Unity.LauncherEntry.Update",
		uri:  "application://firefox_firefox.desktop",
		prog: 0.25,
		show: true,
	}, e.signals[0])
	assert.False(t, e.signals[1].show)
}

func TestSink_FinalProgressHidesLauncher(t *testing.T) {
	s, _, e := newTestSink()
	files := []string{"/a/vlc_vlc.desktop", "/a/vlc_vlc-url.desktop"}

	s.RefreshProgress(refresh.Progress{SnapName: "vlc", DesktopFiles: files, DoneTasks: 2, TotalTasks: 2, TaskDone: true})
	s.EndRefresh("vlc")
	s.RefreshProgress(refresh.Progress{SnapName: "htop", DoneTasks: 1, TotalTasks: 2})

	require.Len(t, e.signals, 2)
	for _, sig := range e.signals {
		assert.False(t, sig.show)
		assert.Equal(t, 1.0, sig.prog)
	}
}

func TestSink_CompleteNotification(t *testing.T) {
	s, n, _ := newTestSink()

	s.NotifyRefreshComplete(snapd.Snap{Name: "firefox", Title: "Firefox"}, "firefox")
	s.NotifyRefreshComplete(snapd.Snap{}, "htop")

	require.Len(t, n.sent, 2)
	assert.Equal(t, "Firefox was updated", n.sent[0].Title)
	assert.Equal(t, "htop was updated", n.sent[1].Title)
	assert.Equal(t, UrgencyLow, n.sent[1].Urgency)
}

func TestSink_NotifierFailureIsNotFatal(t *testing.T) {
	n := &fakeNotifier{err: errors.New("no notification daemon")}
	s := NewSink(Options{Notifier: n, Logger: logging.Discard()})
	ig := &fakeIgnorer{}
	s.SetIgnorer(ig)

	s.BeginRefresh("vlc", "VLC", "")
	s.EndRefresh("vlc")
	s.NotifyPendingRefresh([]snapd.Snap{{Name: "vlc"}})
	s.HandleSignal(actionInvoked(0, actionIgnore))
	assert.Empty(t, ig.ignored)
}

func TestSink_DisabledOutputs(t *testing.T) {
	s := NewSink(Options{Logger: logging.Discard()})
	s.BeginRefresh("vlc", "VLC", "")
	s.RefreshProgress(refresh.Progress{SnapName: "vlc", DesktopFiles: []string{"/a/vlc_vlc.desktop"}})
	s.EndRefresh("vlc")
	s.NotifyPendingRefreshForced(snapd.Snap{Name: "vlc"}, time.Hour, true)
}

func TestRemainingText(t *testing.T) {
	assert.Equal(t, "now", RemainingText(0))
	assert.Equal(t, "45 seconds", RemainingText(45*time.Second))
	assert.Equal(t, "1 hour", RemainingText(90*time.Minute))
	assert.Equal(t, "3 days", RemainingText(3*24*time.Hour))
}

func TestService_IgnoreSnap(t *testing.T) {
	ig := &fakeIgnorer{}
	svc := NewService(ig, "1.2.3", logging.Discard())

	assert.Nil(t, svc.IgnoreSnap("firefox"))
	assert.Equal(t, []string{"firefox"}, ig.ignored)

	assert.NotNil(t, svc.IgnoreSnap(""))

	ig.err = refresh.ErrStopped
	derr := svc.IgnoreSnap("vlc")
	require.NotNil(t, derr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", derr.Name)

	version, verr := svc.GetVersion()
	assert.Nil(t, verr)
	assert.Equal(t, "1.2.3", version)
}
