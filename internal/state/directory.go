package state

import (
	"sort"
	"time"
)

// SnapRecord is everything the daemon remembers about one snap.
type SnapRecord struct {
	Name string
	// Ignored is set when the user asked not to be reminded about the
	// current set of inhibited snaps.
	Ignored bool
	// Inhibited mirrors membership in snapd's refresh-inhibited listing.
	Inhibited bool
	// DialogCreated is set between a begin-refresh and its end-refresh.
	DialogCreated bool
	// LastRemaining is the time left before a forced refresh as of the last
	// listing. Only meaningful when HasRemaining is set.
	LastRemaining time.Duration
	HasRemaining  bool
}

// Idle reports whether nothing is pending or running for the snap.
func (r SnapRecord) Idle() bool {
	return !r.Inhibited && !r.DialogCreated
}

// Directory keeps one SnapRecord per snap name for the lifetime of the
// process. It is owned by a single goroutine and does no locking.
type Directory struct {
	records map[string]*SnapRecord
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{records: make(map[string]*SnapRecord)}
}

// Get returns the record for name, creating it on first mention.
func (d *Directory) Get(name string) *SnapRecord {
	if rec, ok := d.records[name]; ok {
		return rec
	}
	rec := &SnapRecord{Name: name}
	d.records[name] = rec
	return rec
}

// Lookup returns the record for name without creating it.
func (d *Directory) Lookup(name string) (*SnapRecord, bool) {
	rec, ok := d.records[name]
	return rec, ok
}

// Names returns the known snap names in sorted order.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.records))
	for name := range d.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each calls fn for every record in name order.
func (d *Directory) Each(fn func(*SnapRecord)) {
	for _, name := range d.Names() {
		fn(d.records[name])
	}
}

// Snapshot returns copies of every record in name order.
func (d *Directory) Snapshot() []SnapRecord {
	out := make([]SnapRecord, 0, len(d.records))
	d.Each(func(rec *SnapRecord) {
		out = append(out, *rec)
	})
	return out
}

// Len returns the number of known snaps.
func (d *Directory) Len() int {
	return len(d.records)
}
