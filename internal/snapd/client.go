package snapd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API defines the snapd operations the daemon consumes.
// This interface is implemented by *Client and can be used for testing.
type API interface {
	Notices(ctx context.Context, query NoticeQuery) ([]Notice, error)
	Change(ctx context.Context, id string) (*Change, error)
	RefreshInhibitedSnaps(ctx context.Context) ([]Snap, error)
	Snap(ctx context.Context, name string) (*Snap, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// ErrNotFound is returned when snapd reports that the requested object does not exist.
var ErrNotFound = errors.New("not found")

// Client talks to the snapd REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultSocketPath = "/run/snapd.socket"
	defaultUserAgent  = "snapdesk/0.1"
	requestTimeout    = 10 * time.Second
	// Extra time granted on top of a notice long-poll timeout before the
	// request itself is abandoned.
	longPollSlack = 5 * time.Second
)

// NewClient builds a Client for addr, which is either a unix socket path or an
// http(s) URL. An empty addr uses the system snapd socket.
func NewClient(addr string) (*Client, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = defaultSocketPath
	}

	if strings.Contains(trimmed, "://") {
		base, err := parseBaseURL(trimmed)
		if err != nil {
			return nil, err
		}
		return &Client{baseURL: base, http: &http.Client{}, userAgent: defaultUserAgent}, nil
	}

	socket := trimmed
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		},
	}
	return &Client{
		baseURL:   &url.URL{Scheme: "http", Host: "localhost"},
		http:      &http.Client{Transport: transport},
		userAgent: defaultUserAgent,
	}, nil
}

// Change retrieves a change and its task list.
func (c *Client) Change(ctx context.Context, id string) (*Change, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("change id required")
	}
	var change Change
	rel := &url.URL{Path: "/v2/changes/" + url.PathEscape(id)}
	if err := c.do(ctx, rel, requestTimeout, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// RefreshInhibitedSnaps lists the snaps whose refresh is blocked by a running instance.
func (c *Client) RefreshInhibitedSnaps(ctx context.Context) ([]Snap, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("select", "refresh-inhibited")
	rel := &url.URL{Path: "/v2/snaps", RawQuery: values.Encode()}
	var snaps []Snap
	if err := c.do(ctx, rel, requestTimeout, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Snap retrieves the metadata of an installed snap.
func (c *Client) Snap(ctx context.Context, name string) (*Snap, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("snap name required")
	}
	var snap Snap
	rel := &url.URL{Path: "/v2/snaps/" + url.PathEscape(name)}
	if err := c.do(ctx, rel, requestTimeout, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) do(ctx context.Context, rel *url.URL, timeout time.Duration, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if resp.StatusCode >= 400 {
			return &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if envelope.Type == "error" || resp.StatusCode >= 400 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		if envelope.StatusCode != 0 {
			apiErr.StatusCode = envelope.StatusCode
		}
		var body errorResult
		if len(envelope.Result) > 0 && json.Unmarshal(envelope.Result, &body) == nil {
			apiErr.Kind = body.Kind
			apiErr.Message = body.Message
		}
		return apiErr
	}

	if dest == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, dest); err != nil {
		return fmt.Errorf("decode %s result: %w", rel.Path, err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse snapd address %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
