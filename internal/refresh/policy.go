package refresh

import "time"

const (
	// AlertBeforeForcedRefresh is how close to the forced refresh the urgent
	// alert starts.
	AlertBeforeForcedRefresh = 19 * time.Hour
	// RemainingTimeBeforeForcedRefresh is how close to the forced refresh the
	// remaining time starts being shown.
	RemainingTimeBeforeForcedRefresh = 3 * 24 * time.Hour
	// PollInterval is the cadence at which an unfinished change is re-read.
	PollInterval = 500 * time.Millisecond
	// FinishedRetention is how long a finished change id is remembered.
	// snapd prunes ready changes after about a day.
	FinishedRetention = 24 * time.Hour
)

type bucket int

const (
	bucketNone bucket = iota
	bucketRemainingTime
	bucketAlert
)

func (b bucket) String() string {
	switch b {
	case bucketAlert:
		return "alert"
	case bucketRemainingTime:
		return "remaining-time"
	default:
		return "none"
	}
}

// classify maps the time left before a forced refresh to its notification
// bucket. Both comparisons are strict.
func classify(remaining time.Duration) bucket {
	switch {
	case remaining < AlertBeforeForcedRefresh:
		return bucketAlert
	case remaining < RemainingTimeBeforeForcedRefresh:
		return bucketRemainingTime
	default:
		return bucketNone
	}
}

// isRefreshKind reports whether a change kind announced in a change-update
// notice is a refresh. Older snapd versions omit the kind.
func isRefreshKind(kind string) bool {
	switch kind {
	case "", "auto-refresh", "refresh-snap", "refresh":
		return true
	}
	return false
}
