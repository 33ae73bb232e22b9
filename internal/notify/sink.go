package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/five82/snapdesk/internal/logging"
	"github.com/five82/snapdesk/internal/refresh"
	"github.com/five82/snapdesk/internal/snapd"
)

const (
	actionIgnore  = "ignore"
	launcherIface = "com.canonical.Unity.LauncherEntry"
	launcherPath  = dbus.ObjectPath("/")
)

// Ignorer silences pending-refresh reminders for a snap.
type Ignorer interface {
	Ignore(snapName string) error
}

// Options configure a Sink.
type Options struct {
	// Notifier shows notification bubbles. Nil disables them.
	Notifier Notifier
	// Emitter carries launcher progress signals. Nil disables them.
	Emitter Emitter
	// DesktopEntry is sent as the desktop-entry hint of every notification.
	DesktopEntry string
	Logger       *logrus.Entry
}

// Sink is a refresh.Sink that renders events as desktop notifications and
// launcher progress.
type Sink struct {
	notifier     Notifier
	emitter      Emitter
	desktopEntry string
	log          *logrus.Entry

	// Owned by the reconciler goroutine.
	refreshing map[string]uint32
	launchers  map[string][]string

	mu        sync.Mutex
	ignorer   Ignorer
	reminders map[uint32][]string
}

var _ refresh.Sink = (*Sink)(nil)

// NewSink returns a Sink configured by opts.
func NewSink(opts Options) *Sink {
	s := &Sink{
		notifier:     opts.Notifier,
		emitter:      opts.Emitter,
		desktopEntry: opts.DesktopEntry,
		log:          opts.Logger,
		refreshing:   make(map[string]uint32),
		launchers:    make(map[string][]string),
		reminders:    make(map[uint32][]string),
	}
	if s.log == nil {
		s.log = logging.NewLogger("notify")
	}
	return s
}

// SetIgnorer sets where "Don't remind me" actions are delivered.
func (s *Sink) SetIgnorer(ig Ignorer) {
	s.mu.Lock()
	s.ignorer = ig
	s.mu.Unlock()
}

func (s *Sink) BeginRefresh(snapName, visibleName, icon string) {
	id, ok := s.notify(Notification{
		Title:   fmt.Sprintf("Updating %s", visibleName),
		Body:    "The app will be available again once the update finishes.",
		Icon:    icon,
		Urgency: UrgencyNormal,
		Timeout: 0,
	})
	if ok {
		s.refreshing[snapName] = id
	}
}

func (s *Sink) RefreshProgress(p refresh.Progress) {
	if len(p.DesktopFiles) == 0 {
		return
	}
	if p.TaskDone {
		s.emitLauncher(p.DesktopFiles, p.Fraction(), false)
		delete(s.launchers, p.SnapName)
		return
	}
	s.emitLauncher(p.DesktopFiles, p.Fraction(), true)
	s.launchers[p.SnapName] = p.DesktopFiles
}

func (s *Sink) EndRefresh(snapName string) {
	if id, ok := s.refreshing[snapName]; ok {
		delete(s.refreshing, snapName)
		if err := s.notifier.Close(id); err != nil {
			s.log.WithError(err).WithField("snap", snapName).Debug("cannot close refresh notification")
		}
	}
	if files, ok := s.launchers[snapName]; ok {
		delete(s.launchers, snapName)
		s.emitLauncher(files, 0, false)
	}
}

func (s *Sink) NotifyPendingRefresh(snaps []snapd.Snap) {
	if len(snaps) == 0 {
		return
	}
	n := Notification{
		Urgency: UrgencyNormal,
		Timeout: -1,
		Actions: []Action{{Key: actionIgnore, Label: "Don't remind me"}},
	}
	names := make([]string, 0, len(snaps))
	titles := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		names = append(names, snap.Name)
		titles = append(titles, snap.DisplayName())
	}
	if len(snaps) == 1 {
		n.Title = fmt.Sprintf("Update available for %s", titles[0])
		n.Body = "Quit the app to update it now."
	} else {
		n.Title = fmt.Sprintf("Updates available for %d apps", len(snaps))
		n.Body = strings.Join(titles, ", ") + "\nQuit the apps to update them now."
	}
	if id, ok := s.notify(n); ok {
		s.remember(id, names)
	}
}

func (s *Sink) NotifyPendingRefreshForced(snap snapd.Snap, remaining time.Duration, allowToIgnore bool) {
	n := Notification{
		Title:   fmt.Sprintf("%s will update in %s", snap.DisplayName(), RemainingText(remaining)),
		Body:    "Save your progress and quit now to prevent data loss.",
		Urgency: UrgencyNormal,
		Timeout: -1,
	}
	if remaining < refresh.AlertBeforeForcedRefresh {
		n.Urgency = UrgencyCritical
		n.Timeout = 0
	}
	if allowToIgnore {
		n.Actions = []Action{{Key: actionIgnore, Label: "Don't remind me"}}
	}
	if id, ok := s.notify(n); ok && allowToIgnore {
		s.remember(id, []string{snap.Name})
	}
}

func (s *Sink) NotifyRefreshComplete(snap snapd.Snap, snapName string) {
	title := snap.DisplayName()
	if title == "" {
		title = snapName
	}
	s.notify(Notification{
		Title:   fmt.Sprintf("%s was updated", title),
		Body:    "Ready to launch.",
		Urgency: UrgencyLow,
		Timeout: -1,
	})
}

// RemainingText renders the time left before a forced refresh.
func RemainingText(d time.Duration) string {
	var zero time.Time
	return strings.TrimSpace(humanize.RelTime(zero, zero.Add(d), "", ""))
}

func (s *Sink) notify(n Notification) (uint32, bool) {
	if s.notifier == nil {
		return 0, false
	}
	n.DesktopEntry = s.desktopEntry
	id, err := s.notifier.Notify(n)
	if err != nil {
		s.log.WithError(err).WithField("title", n.Title).Warn("notification failed")
		return 0, false
	}
	return id, true
}

func (s *Sink) emitLauncher(files []string, progress float64, visible bool) {
	if s.emitter == nil {
		return
	}
	props := map[string]dbus.Variant{
		"progress":         dbus.MakeVariant(progress),
		"progress-visible": dbus.MakeVariant(visible),
	}
	for _, file := range files {
		uri := "application://" + filepath.Base(file)
		if err := s.emitter.Emit(launcherPath, launcherIface+".Update", uri, props); err != nil {
			s.log.WithError(err).WithField("app", uri).Debug("launcher update failed")
		}
	}
}

func (s *Sink) remember(id uint32, names []string) {
	s.mu.Lock()
	s.reminders[id] = names
	s.mu.Unlock()
}

func (s *Sink) take(id uint32) ([]string, Ignorer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := s.reminders[id]
	delete(s.reminders, id)
	return names, s.ignorer
}

// HandleSignal reacts to a signal of the notification server.
func (s *Sink) HandleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case notificationsIface + ".ActionInvoked":
		var id uint32
		var key string
		if err := dbus.Store(sig.Body, &id, &key); err != nil {
			s.log.WithError(err).Debug("malformed ActionInvoked signal")
			return
		}
		if key != actionIgnore {
			return
		}
		names, ig := s.take(id)
		if ig == nil {
			return
		}
		for _, name := range names {
			if err := ig.Ignore(name); err != nil {
				s.log.WithError(err).WithField("snap", name).Warn("cannot ignore snap")
			}
		}

	case notificationsIface + ".NotificationClosed":
		var id, reason uint32
		if err := dbus.Store(sig.Body, &id, &reason); err != nil {
			return
		}
		s.take(id)
	}
}

// Listen delivers notification server signals from conn to HandleSignal until
// ctx is cancelled.
func (s *Sink) Listen(ctx context.Context, conn *dbus.Conn) error {
	match := []dbus.MatchOption{
		dbus.WithMatchInterface(notificationsIface),
		dbus.WithMatchObjectPath(notificationsPath),
	}
	if err := conn.AddMatchSignal(match...); err != nil {
		return fmt.Errorf("subscribe to notification signals: %w", err)
	}
	defer func() { _ = conn.RemoveMatchSignal(match...) }()

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if sig != nil {
				s.HandleSignal(sig)
			}
		}
	}
}
