// Package snapd is a small client for the snapd REST API.
//
// # Overview
//
// The daemon only reads from snapd. The client covers four endpoints:
//
//   - /v2/notices: the notice feed, long-polled with "after" and "timeout"
//   - /v2/changes/{id}: a change and its tasks
//   - /v2/snaps?select=refresh-inhibited: snaps held back by a running instance
//   - /v2/snaps/{name}: metadata of one installed snap
//
// # Transport
//
// snapd listens on a unix socket (/run/snapd.socket by default). NewClient
// dials that socket for every request and addresses it as http://localhost.
// An http:// address is accepted as well so tests can point the client at an
// httptest server.
//
// # Errors
//
// Every snapd answer is wrapped in an envelope with "type" set to "sync",
// "async" or "error". Error envelopes are decoded into *Error. A 404 satisfies
// errors.Is(err, ErrNotFound). Transport and decode failures are wrapped with
// fmt.Errorf and %w.
//
// # Timeouts
//
// Regular requests are bounded by a 10 second timeout. Notice requests are
// bounded by the long-poll timeout plus a few seconds of slack.
package snapd
