package changes

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/snapdesk/internal/snapd"
)

type fakeFetcher struct {
	change *snapd.Change
	err    error
}

func (f fakeFetcher) Change(context.Context, string) (*snapd.Change, error) {
	return f.change, f.err
}

func task(id, status, summary string, snaps ...string) snapd.Task {
	return snapd.Task{ID: id, Status: status, Summary: summary, Data: snapd.TaskData{AffectedSnaps: snaps}}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		change snapd.Change
		want   Progress
	}{
		{
			name: "first of three done",
			change: snapd.Change{ID: "9", Status: snapd.StatusDoing, Summary: "Auto-refresh snap \"firefox\"", Tasks: []snapd.Task{
				task("10", snapd.StatusDone, "Download", "firefox"),
				task("12", snapd.StatusDo, "Link"),
				task("11", snapd.StatusDoing, "Mount"),
			}},
			want: Progress{ChangeID: "9", SnapName: "firefox", Status: snapd.StatusDoing, TotalTasks: 3, DoneTasks: 1,
				LowestPendingTaskID: "11", Description: "Mount"},
		},
		{
			name: "all done",
			change: snapd.Change{ID: "9", Status: snapd.StatusDone, Summary: "Auto-refresh snap \"firefox\"", Ready: true, Tasks: []snapd.Task{
				task("10", snapd.StatusDone, "Download", "firefox"),
				task("11", snapd.StatusDone, "Mount"),
				task("12", snapd.StatusDone, "Link"),
			}},
			want: Progress{ChangeID: "9", SnapName: "firefox", Status: snapd.StatusDone, TotalTasks: 3, DoneTasks: 3,
				Description: "Auto-refresh snap \"firefox\"", Terminal: true},
		},
		{
			name: "aborted counts as cancelled",
			change: snapd.Change{ID: "9", Status: snapd.StatusDoing, Tasks: []snapd.Task{
				task("10", snapd.StatusDone, "Download", "firefox"),
				task("11", snapd.StatusAbort, "Mount"),
				task("12", snapd.StatusDo, "Link"),
			}},
			want: Progress{ChangeID: "9", SnapName: "firefox", Status: snapd.StatusDoing, TotalTasks: 3, DoneTasks: 2,
				LowestPendingTaskID: "12", Description: "Link", Terminal: true, Cancelled: true},
		},
		{
			name: "waiting and held tasks count as done",
			change: snapd.Change{ID: "9", Status: snapd.StatusDoing, Tasks: []snapd.Task{
				task("1", snapd.StatusWait, "Wait", "code"),
				task("2", snapd.StatusHold, "Hold"),
				task("3", snapd.StatusDoing, "Copy"),
			}},
			want: Progress{ChangeID: "9", SnapName: "code", Status: snapd.StatusDoing, TotalTasks: 3, DoneTasks: 2,
				LowestPendingTaskID: "3", Description: "Copy"},
		},
		{
			name: "numeric order beats string order",
			change: snapd.Change{ID: "9", Status: snapd.StatusDoing, Tasks: []snapd.Task{
				task("100", snapd.StatusDo, "Later", "code"),
				task("99", snapd.StatusDo, "Earlier"),
			}},
			want: Progress{ChangeID: "9", SnapName: "code", Status: snapd.StatusDoing, TotalTasks: 2,
				LowestPendingTaskID: "99", Description: "Earlier"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := tt.change
			got, err := Summarize(&change)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummarize_CancelStatuses(t *testing.T) {
	for _, status := range []string{snapd.StatusAbort, snapd.StatusUndoing, snapd.StatusUndone, snapd.StatusUndo, snapd.StatusError} {
		t.Run(status, func(t *testing.T) {
			got, err := Summarize(&snapd.Change{Tasks: []snapd.Task{task("1", status, "x", "vlc"), task("2", snapd.StatusDoing, "y")}})
			require.NoError(t, err)
			assert.True(t, got.Terminal)
			assert.True(t, got.Cancelled)
			assert.False(t, got.Succeeded())
		})
	}
}

func TestSummarize_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		change *snapd.Change
	}{
		{"nil", nil},
		{"no tasks", &snapd.Change{ID: "1"}},
		{"first task without snaps", &snapd.Change{ID: "1", Tasks: []snapd.Task{task("1", snapd.StatusDo, "x"), task("2", snapd.StatusDo, "y", "vlc")}}},
		{"empty snap name", &snapd.Change{ID: "1", Tasks: []snapd.Task{task("1", snapd.StatusDo, "x", "")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Summarize(tt.change)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestPoller_Poll(t *testing.T) {
	ok := &snapd.Change{ID: "5", Ready: true, Status: snapd.StatusDone, Tasks: []snapd.Task{task("1", snapd.StatusDone, "x", "vlc")}}
	got, err := NewPoller(fakeFetcher{change: ok}).Poll(context.Background(), "5")
	require.NoError(t, err)
	assert.True(t, got.Succeeded())
	assert.Equal(t, "vlc", got.SnapName)

	_, err = NewPoller(fakeFetcher{err: &snapd.Error{StatusCode: http.StatusNotFound}}).Poll(context.Background(), "5")
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("boom")
	_, err = NewPoller(fakeFetcher{err: boom}).Poll(context.Background(), "5")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}
