package snapd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Notice types consumed by the daemon.
const (
	NoticeChangeUpdate   = "change-update"
	NoticeRefreshInhibit = "refresh-inhibit"
)

// NoticeQuery configures /v2/notices requests.
type NoticeQuery struct {
	Types []string
	// After returns only notices repeated after this time. Zero means the whole backlog.
	After time.Time
	// Timeout makes snapd hold the request open until a notice arrives.
	Timeout time.Duration
}

// Notices retrieves notices, long-polling when query.Timeout is set.
func (c *Client) Notices(ctx context.Context, query NoticeQuery) ([]Notice, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if len(query.Types) > 0 {
		values.Set("types", strings.Join(query.Types, ","))
	}
	if !query.After.IsZero() {
		values.Set("after", query.After.UTC().Format(time.RFC3339Nano))
	}
	if query.Timeout > 0 {
		values.Set("timeout", query.Timeout.String())
	}
	rel := &url.URL{Path: "/v2/notices", RawQuery: values.Encode()}

	var notices []Notice
	if err := c.do(ctx, rel, query.Timeout+longPollSlack, &notices); err != nil {
		return nil, err
	}
	return notices, nil
}
