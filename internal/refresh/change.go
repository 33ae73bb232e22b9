package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/snapdesk/internal/changes"
	"github.com/five82/snapdesk/internal/snapd"
)

// tracker follows one unfinished change.
type tracker struct {
	id       string
	firstRun bool
	cancel   context.CancelFunc

	seq      uint64 // last poll issued
	applied  uint64 // last poll applied
	inflight int
	polled   bool
	last     *Progress
}

type pollResult struct {
	changeID string
	seq      uint64
	progress changes.Progress
	err      error
}

type snapResult struct {
	name string
	snap *snapd.Snap
	err  error
}

// track polls the change now and then every interval until it is terminal.
func (r *Reconciler) track(id string, firstRun bool) {
	if tr, ok := r.trackers[id]; ok {
		r.poll(tr)
		return
	}

	ctx, cancel := context.WithCancel(r.ctx)
	tr := &tracker{id: id, firstRun: firstRun, cancel: cancel}
	r.trackers[id] = tr

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case r.ticks <- id:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	r.poll(tr)
}

func (r *Reconciler) untrack(id string) {
	if tr, ok := r.trackers[id]; ok {
		tr.cancel()
		delete(r.trackers, id)
	}
}

func (r *Reconciler) poll(tr *tracker) {
	tr.seq++
	tr.inflight++
	id, seq := tr.id, tr.seq
	r.spawn(func(ctx context.Context) result {
		progress, err := r.poller.Poll(ctx, id)
		return pollResult{changeID: id, seq: seq, progress: progress, err: err}
	})
}

func (r *Reconciler) applyPoll(res pollResult) {
	tr, ok := r.trackers[res.changeID]
	if !ok {
		return
	}
	tr.inflight--
	if res.seq <= tr.applied {
		return
	}
	tr.applied = res.seq

	log := r.log.WithField("change", res.changeID)
	if res.err != nil {
		if errors.Is(res.err, changes.ErrInvalid) || errors.Is(res.err, changes.ErrNotFound) {
			log.WithError(res.err).Debug("dropping change")
			r.untrack(res.changeID)
			return
		}
		log.WithError(res.err).Warn("change poll failed")
		return
	}

	p := res.progress
	log.WithFields(logrus.Fields{
		"done":  p.DoneTasks,
		"total": p.TotalTasks,
		"task":  p.LowestPendingTaskID,
	}).Trace("change polled")
	first := !tr.polled
	tr.polled = true
	if first && tr.firstRun && p.Terminal {
		log.Debug("change finished before startup")
		r.untrack(res.changeID)
		r.markFinished(res.changeID)
		return
	}

	rec := r.dir.Get(p.SnapName)
	foreground := rec.Inhibited || rec.DialogCreated
	entry := r.lookup(p.SnapName)

	if foreground && !rec.DialogCreated {
		r.sink.BeginRefresh(p.SnapName, entry.VisibleName, entry.Icon)
		rec.DialogCreated = true
	}

	ev := Progress{
		SnapName:     p.SnapName,
		DesktopFiles: entry.DesktopFiles,
		Description:  p.Description,
		DoneTasks:    p.DoneTasks,
		TotalTasks:   p.TotalTasks,
		TaskDone:     p.Terminal,
	}
	if tr.last == nil || !tr.last.equal(ev) {
		r.sink.RefreshProgress(ev)
		tr.last = &ev
	}

	if !p.Terminal {
		return
	}

	log.WithFields(logrus.Fields{"snap": p.SnapName, "status": p.Status, "cancelled": p.Cancelled}).Debug("change finished")
	r.untrack(res.changeID)
	r.markFinished(res.changeID)

	if !foreground {
		return
	}
	r.sink.EndRefresh(p.SnapName)
	rec.DialogCreated = false
	if p.Succeeded() {
		name := p.SnapName
		r.spawn(func(ctx context.Context) result {
			snap, err := r.client.Snap(ctx, name)
			return snapResult{name: name, snap: snap, err: err}
		})
	}
}

func (r *Reconciler) applySnap(res snapResult) {
	meta := snapd.Snap{Name: res.name}
	if res.err != nil {
		r.log.WithError(res.err).WithField("snap", res.name).Debug("cannot read snap metadata")
	} else if res.snap != nil {
		meta = *res.snap
	}
	r.sink.NotifyRefreshComplete(meta, res.name)
}
