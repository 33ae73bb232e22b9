// Package changes derives refresh progress from snapd changes.
package changes

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/five82/snapdesk/internal/snapd"
)

// ErrInvalid marks a change whose tasks cannot be attributed to a snap.
var ErrInvalid = errors.New("change has no tasks or affected snaps")

// ErrNotFound is returned when snapd no longer knows the change.
var ErrNotFound = snapd.ErrNotFound

// Fetcher is the subset of the snapd client the poller needs.
type Fetcher interface {
	Change(ctx context.Context, id string) (*snapd.Change, error)
}

// Progress is the state of a change at one poll. It is recomputed from
// scratch every time.
type Progress struct {
	ChangeID   string
	SnapName   string
	Status     string
	TotalTasks uint
	DoneTasks  uint
	// LowestPendingTaskID is empty once every task is done.
	LowestPendingTaskID string
	Description         string
	Terminal            bool
	Cancelled           bool
}

// Succeeded reports a change that finished without being aborted or undone.
func (p Progress) Succeeded() bool {
	return p.Terminal && !p.Cancelled
}

// Poller fetches changes and summarizes them.
type Poller struct {
	client Fetcher
}

// NewPoller returns a Poller backed by client.
func NewPoller(client Fetcher) *Poller {
	return &Poller{client: client}
}

// Poll fetches the change and derives its progress.
func (p *Poller) Poll(ctx context.Context, changeID string) (Progress, error) {
	change, err := p.client.Change(ctx, changeID)
	if err != nil {
		if snapd.IsNotFound(err) {
			return Progress{}, fmt.Errorf("change %s: %w", changeID, ErrNotFound)
		}
		return Progress{}, fmt.Errorf("fetch change %s: %w", changeID, err)
	}
	return Summarize(change)
}

// Summarize derives Progress from a change record.
func Summarize(change *snapd.Change) (Progress, error) {
	if change == nil || len(change.Tasks) == 0 {
		return Progress{}, ErrInvalid
	}
	affected := change.Tasks[0].Data.AffectedSnaps
	if len(affected) == 0 || affected[0] == "" {
		return Progress{}, ErrInvalid
	}

	progress := Progress{
		ChangeID:   change.ID,
		SnapName:   affected[0],
		Status:     change.Status,
		TotalTasks: uint(len(change.Tasks)),
	}

	var lowest *snapd.Task
	for i := range change.Tasks {
		task := &change.Tasks[i]
		switch task.Status {
		case snapd.StatusDo, snapd.StatusDoing:
			if lowest == nil || taskIDLess(task.ID, lowest.ID) {
				lowest = task
			}
		default:
			progress.DoneTasks++
		}
		if isCancelStatus(task.Status) {
			progress.Cancelled = true
		}
	}

	if lowest != nil {
		progress.LowestPendingTaskID = lowest.ID
		progress.Description = lowest.Summary
	} else {
		progress.Description = change.Summary
	}

	progress.Terminal = progress.Cancelled || change.Ready || progress.DoneTasks == progress.TotalTasks
	return progress, nil
}

func isCancelStatus(status string) bool {
	switch status {
	case snapd.StatusAbort, snapd.StatusUndoing, snapd.StatusUndone, snapd.StatusUndo, snapd.StatusError:
		return true
	}
	return false
}

// taskIDLess compares task ids numerically, falling back to string order for
// ids that are not numbers.
func taskIDLess(a, b string) bool {
	ai, aErr := strconv.ParseUint(a, 10, 64)
	bi, bErr := strconv.ParseUint(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	}
	return a < b
}
