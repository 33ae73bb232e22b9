package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/snapdesk/internal/changes"
	"github.com/five82/snapdesk/internal/desktop"
	"github.com/five82/snapdesk/internal/logging"
	"github.com/five82/snapdesk/internal/notices"
	"github.com/five82/snapdesk/internal/snapd"
	"github.com/five82/snapdesk/internal/state"
)

// ErrStopped is returned by Ignore once the reconciler has shut down.
var ErrStopped = errors.New("reconciler stopped")

// Client is the subset of the snapd client the reconciler needs.
type Client interface {
	changes.Fetcher
	RefreshInhibitedSnaps(ctx context.Context) ([]snapd.Snap, error)
	Snap(ctx context.Context, name string) (*snapd.Snap, error)
}

// DesktopLookup resolves the desktop integration details of a snap.
type DesktopLookup interface {
	Lookup(snapName string) desktop.Entry
}

// Options configure a Reconciler.
type Options struct {
	Client  Client
	Sink    Sink
	Desktop DesktopLookup // optional
	Logger  *logrus.Entry // optional
	// PollInterval overrides the change polling cadence. Zero uses PollInterval.
	PollInterval time.Duration
	// Now overrides the clock. Nil uses time.Now.
	Now func() time.Time
}

// Reconciler turns snapd notices and change polls into Sink events. All of its
// state lives on the goroutine running Run.
type Reconciler struct {
	client   Client
	poller   *changes.Poller
	sink     Sink
	desktop  DesktopLookup
	log      *logrus.Entry
	interval time.Duration
	now      func() time.Time

	dir          *state.Directory
	acknowledged map[string]bool
	trackers     map[string]*tracker
	finished     map[string]time.Time

	ctx      context.Context
	results  chan result
	commands chan command
	ticks    chan string
	stopped  chan struct{}
}

type result interface{}

type command func(r *Reconciler)

// New builds a Reconciler. Client and Sink are required.
func New(opts Options) *Reconciler {
	r := &Reconciler{
		client:       opts.Client,
		poller:       changes.NewPoller(opts.Client),
		sink:         opts.Sink,
		desktop:      opts.Desktop,
		log:          opts.Logger,
		interval:     opts.PollInterval,
		now:          opts.Now,
		dir:          state.NewDirectory(),
		acknowledged: make(map[string]bool),
		trackers:     make(map[string]*tracker),
		finished:     make(map[string]time.Time),
		results:      make(chan result),
		commands:     make(chan command, 16),
		ticks:        make(chan string),
		stopped:      make(chan struct{}),
	}
	if r.log == nil {
		r.log = logging.NewLogger("refresh")
	}
	if r.interval <= 0 {
		r.interval = PollInterval
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Ignore stops pending-refresh reminders for name until the set of inhibited
// snaps changes. It is safe to call from any goroutine.
func (r *Reconciler) Ignore(name string) error {
	cmd := func(r *Reconciler) {
		r.dir.Get(name).Ignored = true
		r.log.WithField("snap", name).Info("pending refresh ignored by user")
	}
	select {
	case <-r.stopped:
		return ErrStopped
	default:
	}
	select {
	case r.commands <- cmd:
		return nil
	case <-r.stopped:
		return ErrStopped
	}
}

// Run consumes events until ctx is cancelled or events is closed. Outstanding
// pollers are stopped and in-flight results discarded on return.
func (r *Reconciler) Run(ctx context.Context, events <-chan notices.Event) error {
	ctx, cancel := context.WithCancel(ctx)
	r.ctx = ctx
	defer func() {
		cancel()
		r.trackers = make(map[string]*tracker)
		close(r.stopped)
	}()

	in := events
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-in:
			if !ok {
				return nil
			}
			if r.handleNotice(ev) {
				// Hold further notices until the inhibited listing is applied.
				in = nil
			}

		case res := <-r.results:
			if inh, ok := res.(inhibitResult); ok {
				r.applyInhibit(inh)
				in = events
				continue
			}
			r.apply(res)

		case cmd := <-r.commands:
			cmd(r)

		case id := <-r.ticks:
			if tr, ok := r.trackers[id]; ok && tr.inflight == 0 {
				r.poll(tr)
			}
		}
	}
}

func (r *Reconciler) handleNotice(ev notices.Event) bool {
	n := ev.Notice
	log := r.log.WithFields(logrus.Fields{"notice": n.ID, "type": n.Type, "key": n.Key, "first_run": ev.FirstRun})

	switch n.Type {
	case snapd.NoticeRefreshInhibit:
		log.Debug("refresh-inhibit notice")
		r.spawn(func(ctx context.Context) result {
			snaps, err := r.client.RefreshInhibitedSnaps(ctx)
			return inhibitResult{snaps: snaps, err: err}
		})
		return true

	case snapd.NoticeChangeUpdate:
		if n.Key == "" {
			return false
		}
		if kind := n.LastData["kind"]; !isRefreshKind(kind) {
			log.WithField("kind", kind).Trace("ignoring non-refresh change")
			return false
		}
		if _, done := r.finished[n.Key]; done {
			return false
		}
		log.Debug("change-update notice")
		r.track(n.Key, ev.FirstRun)
	}
	return false
}

func (r *Reconciler) apply(res result) {
	switch res := res.(type) {
	case pollResult:
		r.applyPoll(res)
	case snapResult:
		r.applySnap(res)
	}
}

// spawn runs fn off the loop and hands its result back to Run. Results
// produced after shutdown are dropped.
func (r *Reconciler) spawn(fn func(ctx context.Context) result) {
	ctx := r.ctx
	go func() {
		res := fn(ctx)
		select {
		case r.results <- res:
		case <-ctx.Done():
		}
	}()
}

func (r *Reconciler) lookup(snapName string) desktop.Entry {
	var entry desktop.Entry
	if r.desktop != nil {
		entry = r.desktop.Lookup(snapName)
	}
	if entry.VisibleName == "" {
		entry.VisibleName = snapName
	}
	return entry
}

// markFinished remembers that id reached a terminal state, so later notices
// for it are ignored, and forgets changes finished more than
// FinishedRetention ago.
func (r *Reconciler) markFinished(id string) {
	now := r.now()
	for old, at := range r.finished {
		if now.Sub(at) > FinishedRetention {
			delete(r.finished, old)
		}
	}
	r.finished[id] = now
}
