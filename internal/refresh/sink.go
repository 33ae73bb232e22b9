package refresh

import (
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/snapdesk/internal/snapd"
)

//go:generate mockgen -source=sink.go -destination=mocks/mock_sink.go -package=mocks

// Sink receives the user-facing events of the reconciler. Every method is
// called from the reconciler goroutine, one at a time.
type Sink interface {
	// BeginRefresh announces a foreground refresh. icon is empty when unknown.
	BeginRefresh(snapName, visibleName, icon string)
	RefreshProgress(p Progress)
	EndRefresh(snapName string)
	NotifyPendingRefresh(snaps []snapd.Snap)
	NotifyPendingRefreshForced(snap snapd.Snap, remaining time.Duration, allowToIgnore bool)
	NotifyRefreshComplete(snap snapd.Snap, snapName string)
}

// Progress is the payload of a refresh-progress event.
type Progress struct {
	SnapName string
	// DesktopFiles is nil when the snap ships no desktop file.
	DesktopFiles []string
	Description  string
	DoneTasks    uint
	TotalTasks   uint
	TaskDone     bool
}

// Fraction returns DoneTasks/TotalTasks in [0, 1].
func (p Progress) Fraction() float64 {
	if p.TotalTasks == 0 {
		return 0
	}
	f := float64(p.DoneTasks) / float64(p.TotalTasks)
	if f > 1 {
		return 1
	}
	return f
}

func (p Progress) equal(o Progress) bool {
	return p.SnapName == o.SnapName &&
		p.Description == o.Description &&
		p.DoneTasks == o.DoneTasks &&
		p.TotalTasks == o.TotalTasks &&
		p.TaskDone == o.TaskDone &&
		slices.Equal(p.DesktopFiles, o.DesktopFiles)
}

// MultiSink forwards every event to each sink in order.
type MultiSink []Sink

var _ Sink = MultiSink(nil)

func (m MultiSink) BeginRefresh(snapName, visibleName, icon string) {
	for _, s := range m {
		s.BeginRefresh(snapName, visibleName, icon)
	}
}

func (m MultiSink) RefreshProgress(p Progress) {
	for _, s := range m {
		s.RefreshProgress(p)
	}
}

func (m MultiSink) EndRefresh(snapName string) {
	for _, s := range m {
		s.EndRefresh(snapName)
	}
}

func (m MultiSink) NotifyPendingRefresh(snaps []snapd.Snap) {
	for _, s := range m {
		s.NotifyPendingRefresh(snaps)
	}
}

func (m MultiSink) NotifyPendingRefreshForced(snap snapd.Snap, remaining time.Duration, allowToIgnore bool) {
	for _, s := range m {
		s.NotifyPendingRefreshForced(snap, remaining, allowToIgnore)
	}
}

func (m MultiSink) NotifyRefreshComplete(snap snapd.Snap, snapName string) {
	for _, s := range m {
		s.NotifyRefreshComplete(snap, snapName)
	}
}

// LogSink writes every event to a logger.
type LogSink struct {
	Log *logrus.Entry
}

var _ Sink = LogSink{}

func (l LogSink) BeginRefresh(snapName, visibleName, icon string) {
	l.Log.WithFields(logrus.Fields{"snap": snapName, "name": visibleName, "icon": icon}).Info("begin refresh")
}

func (l LogSink) RefreshProgress(p Progress) {
	l.Log.WithFields(logrus.Fields{
		"snap":  p.SnapName,
		"done":  p.DoneTasks,
		"total": p.TotalTasks,
		"final": p.TaskDone,
	}).Debugf("refresh progress: %s", p.Description)
}

func (l LogSink) EndRefresh(snapName string) {
	l.Log.WithField("snap", snapName).Info("end refresh")
}

func (l LogSink) NotifyPendingRefresh(snaps []snapd.Snap) {
	names := make([]string, 0, len(snaps))
	for _, s := range snaps {
		names = append(names, s.Name)
	}
	l.Log.WithField("snaps", strings.Join(names, ",")).Info("pending refresh")
}

func (l LogSink) NotifyPendingRefreshForced(snap snapd.Snap, remaining time.Duration, allowToIgnore bool) {
	l.Log.WithFields(logrus.Fields{
		"snap":      snap.Name,
		"remaining": remaining,
		"ignorable": allowToIgnore,
	}).Info("forced refresh pending")
}

func (l LogSink) NotifyRefreshComplete(snap snapd.Snap, snapName string) {
	l.Log.WithField("snap", snapName).Info("refresh complete")
}
