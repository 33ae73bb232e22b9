package notices

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/five82/snapdesk/internal/logging"
	"github.com/five82/snapdesk/internal/snapd"
)

const (
	// ReconnectBackoff is the pause after a failed request, long enough for a
	// restarting snapd to come back.
	ReconnectBackoff = time.Second
	// LongPollTimeout is how long snapd may hold a notices request open.
	LongPollTimeout = time.Minute
)

// Fetcher is the subset of the snapd client the stream needs.
type Fetcher interface {
	Notices(ctx context.Context, query snapd.NoticeQuery) ([]snapd.Notice, error)
}

// Event is a notice tagged with whether it belongs to the startup backlog.
type Event struct {
	Notice   snapd.Notice
	FirstRun bool
}

// Stream follows the snapd notice feed across reconnects.
type Stream struct {
	client  Fetcher
	types   []string
	backoff time.Duration
	timeout time.Duration
	log     *logrus.Entry

	cursor   time.Time
	seen     map[string]time.Time
	firstRun bool
}

// Option customizes a Stream.
type Option func(*Stream)

// WithBackoff overrides ReconnectBackoff.
func WithBackoff(d time.Duration) Option {
	return func(s *Stream) { s.backoff = d }
}

// WithLongPollTimeout overrides LongPollTimeout.
func WithLongPollTimeout(d time.Duration) Option {
	return func(s *Stream) { s.timeout = d }
}

// WithLogger sets the logger used for reconnect diagnostics.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Stream) { s.log = log }
}

// NewStream creates a stream for the change-update and refresh-inhibit notices.
func NewStream(client Fetcher, opts ...Option) *Stream {
	s := &Stream{
		client:   client,
		types:    []string{snapd.NoticeChangeUpdate, snapd.NoticeRefreshInhibit},
		backoff:  ReconnectBackoff,
		timeout:  LongPollTimeout,
		seen:     make(map[string]time.Time),
		firstRun: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.NewLogger("notices")
	}
	return s
}

// Cursor returns the last-repeated time of the newest notice delivered.
func (s *Stream) Cursor() time.Time {
	return s.cursor
}

// Run delivers notices to out until ctx is cancelled. Transport errors are
// retried forever after the backoff; Run only returns ctx.Err().
func (s *Stream) Run(ctx context.Context, out chan<- Event) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		query := snapd.NoticeQuery{Types: s.types, After: s.cursor}
		if !s.firstRun {
			query.Timeout = s.timeout
		}

		batch, err := s.fetch(ctx, query)
		if err != nil {
			return err
		}

		firstRun := s.firstRun
		s.firstRun = false
		for _, notice := range batch {
			if !s.advance(notice) {
				continue
			}
			select {
			case out <- Event{Notice: notice, FirstRun: firstRun}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// advance moves the cursor past notice and reports whether it is new. snapd
// compares "after" against last-repeated, so a notice repeated at exactly the
// cursor time can come back; it is only delivered again when it was repeated.
func (s *Stream) advance(notice snapd.Notice) bool {
	if last, ok := s.seen[notice.ID]; ok && !notice.LastRepeated.After(last) {
		return false
	}
	s.seen[notice.ID] = notice.LastRepeated
	if notice.LastRepeated.After(s.cursor) {
		s.cursor = notice.LastRepeated
		s.prune()
	}
	return true
}

// prune forgets notices the cursor has moved past.
func (s *Stream) prune() {
	for id, repeated := range s.seen {
		if repeated.Before(s.cursor) {
			delete(s.seen, id)
		}
	}
}

// fetch requests one batch, retrying after the backoff until it succeeds. It
// only fails once ctx is done.
func (s *Stream) fetch(ctx context.Context, query snapd.NoticeQuery) ([]snapd.Notice, error) {
	policy := backoff.WithContext(backoff.NewConstantBackOff(s.backoff), ctx)
	var batch []snapd.Notice
	err := backoff.RetryNotify(func() error {
		var err error
		batch, err = s.client.Notices(ctx, query)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		s.log.WithError(err).WithField("retry_in", wait).Debug("notice request failed, reconnecting")
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return batch, nil
}
