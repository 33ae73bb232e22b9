package refresh

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/snapdesk/internal/snapd"
	"github.com/five82/snapdesk/internal/state"
)

type inhibitResult struct {
	snaps []snapd.Snap
	err   error
}

type inhibited struct {
	snap         snapd.Snap
	remaining    time.Duration
	hasRemaining bool
}

// applyInhibit reconciles the directory with a fresh refresh-inhibited
// listing and raises the pending-refresh notifications.
func (r *Reconciler) applyInhibit(res inhibitResult) {
	if res.err != nil {
		r.log.WithError(res.err).Warn("cannot list refresh-inhibited snaps")
		return
	}

	now := r.now()
	listed := make(map[string]bool, len(res.snaps))
	var eligible []inhibited
	for _, snap := range res.snaps {
		if snap.Name == "" || listed[snap.Name] {
			continue
		}
		listed[snap.Name] = true
		r.dir.Get(snap.Name).Inhibited = true

		entry := inhibited{snap: snap}
		if snap.RefreshInhibit != nil && !snap.RefreshInhibit.ProceedTime.IsZero() {
			remaining := snap.RefreshInhibit.ProceedTime.Sub(now)
			if remaining < 0 {
				// Past proceed times are not reported.
				r.log.WithFields(logrus.Fields{"snap": snap.Name, "remaining": remaining}).Debug("proceed time already passed")
				rec := r.dir.Get(snap.Name)
				rec.HasRemaining = false
				rec.LastRemaining = 0
				continue
			}
			entry.remaining = remaining.Truncate(time.Second)
			entry.hasRemaining = true
		}
		eligible = append(eligible, entry)
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].snap.Name < eligible[j].snap.Name })

	r.dir.Each(func(rec *state.SnapRecord) {
		if !listed[rec.Name] {
			rec.Inhibited = false
			rec.HasRemaining = false
			rec.LastRemaining = 0
		}
	})

	// Composition is that of the reported set, whether or not a member is
	// still eligible for a reminder.
	changed := !sameSet(listed, r.acknowledged)
	if changed {
		r.dir.Each(func(rec *state.SnapRecord) { rec.Ignored = false })
		r.acknowledged = listed
	}

	var batch []snapd.Snap
	for _, e := range eligible {
		rec := r.dir.Get(e.snap.Name)

		previous := bucketNone
		if rec.HasRemaining {
			previous = classify(rec.LastRemaining)
		}
		next := bucketNone
		if e.hasRemaining {
			next = classify(e.remaining)
		}
		rec.LastRemaining = e.remaining
		rec.HasRemaining = e.hasRemaining

		if rec.Ignored {
			continue
		}
		if next != bucketNone && (changed || next != previous) {
			r.log.WithFields(logrus.Fields{
				"snap":      e.snap.Name,
				"remaining": e.remaining,
				"bucket":    next,
			}).Debug("forced refresh approaching")
			r.sink.NotifyPendingRefreshForced(e.snap, e.remaining, true)
		}
		batch = append(batch, e.snap)
	}

	if changed && len(batch) > 0 {
		r.sink.NotifyPendingRefresh(batch)
	}

	idle := 0
	r.dir.Each(func(rec *state.SnapRecord) {
		if rec.Idle() {
			idle++
		}
	})
	r.log.WithFields(logrus.Fields{
		"inhibited": len(listed),
		"eligible":  len(eligible),
		"known":     r.dir.Len(),
		"idle":      idle,
		"changed":   changed,
	}).Debug("inhibit listing applied")
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
