package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/snapdesk/internal/refresh"
	"github.com/five82/snapdesk/internal/snapd"
)

type (
	beginMsg struct {
		snap    string
		visible string
		icon    string
	}
	progressMsg refresh.Progress
	endMsg      struct{ snap string }
	pendingMsg  []snapd.Snap
	forcedMsg   struct {
		snap      snapd.Snap
		remaining time.Duration
		allow     bool
	}
	completeMsg struct {
		snap snapd.Snap
		name string
	}
	ignoredMsg struct {
		name string
		err  error
	}
)

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramSink forwards reconciler events to the monitor.
type ProgramSink struct {
	program Sender
}

var _ refresh.Sink = (*ProgramSink)(nil)

// NewProgramSink returns a Sink that sends events to p.
func NewProgramSink(p Sender) *ProgramSink {
	return &ProgramSink{program: p}
}

func (s *ProgramSink) BeginRefresh(snapName, visibleName, icon string) {
	s.program.Send(beginMsg{snap: snapName, visible: visibleName, icon: icon})
}

func (s *ProgramSink) RefreshProgress(p refresh.Progress) {
	s.program.Send(progressMsg(p))
}

func (s *ProgramSink) EndRefresh(snapName string) {
	s.program.Send(endMsg{snap: snapName})
}

func (s *ProgramSink) NotifyPendingRefresh(snaps []snapd.Snap) {
	s.program.Send(pendingMsg(append([]snapd.Snap(nil), snaps...)))
}

func (s *ProgramSink) NotifyPendingRefreshForced(snap snapd.Snap, remaining time.Duration, allowToIgnore bool) {
	s.program.Send(forcedMsg{snap: snap, remaining: remaining, allow: allowToIgnore})
}

func (s *ProgramSink) NotifyRefreshComplete(snap snapd.Snap, snapName string) {
	s.program.Send(completeMsg{snap: snap, name: snapName})
}
