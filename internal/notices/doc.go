// Package notices follows the snapd notice feed.
//
// A Stream issues one request right after start without a timeout so that
// snapd answers with its backlog immediately; every notice of that batch is
// delivered with FirstRun set, letting consumers tell history replay from new
// events. Later requests long-poll with LongPollTimeout.
//
// The cursor is the last-repeated time of the newest notice delivered. When a
// request fails (snapd restarted, socket missing) the stream waits
// ReconnectBackoff and tries again with the same cursor, forever. Consumers
// never see the failure, only a delay.
package notices
