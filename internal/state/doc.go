// Package state keeps the per-snap notification state of the daemon.
//
// # Overview
//
// The Directory holds one SnapRecord per snap name the daemon has heard of,
// from a refresh-inhibit listing or from a change it polled. Records are never
// removed; a snap that is neither inhibited nor being refreshed is simply idle.
//
// # Core Types
//
// SnapRecord:
//   - Ignored: the user dismissed the pending-refresh reminder for the
//     current set of inhibited snaps
//   - Inhibited: the snap is in snapd's refresh-inhibited listing
//   - DialogCreated: a begin-refresh was emitted and its end-refresh was not
//   - LastRemaining / HasRemaining: time left before the forced refresh as of
//     the last listing, used to detect threshold crossings
//
// Directory:
//   - Get creates records on first mention
//   - Names, Each and Snapshot walk records in name order so that event
//     batches built from the directory are deterministic
//
// # Concurrency Model
//
// The refresh reconciler owns the Directory and is its only reader and
// writer. Everything runs on the reconciler goroutine, so there is no lock.
// Code running elsewhere (DBus handlers, the monitor) talks to the reconciler
// through its command channel instead of touching records.
//
// # Usage Example
//
//	dir := state.NewDirectory()
//	rec := dir.Get("firefox")
//	rec.Inhibited = true
//	for _, r := range dir.Snapshot() {
//		fmt.Println(r.Name, r.Inhibited)
//	}
package state
