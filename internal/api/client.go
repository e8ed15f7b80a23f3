package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error is returned for non-2xx replies.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %s (%d)", e.Message, e.StatusCode)
}

// Client provides HTTP access to a running daemon.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// NewClient targets the daemon listening on bind, a host:port or a URL.
func NewClient(bind, token string) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var resp DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Browse lists the container with the given wire id.
func (c *Client) Browse(ctx context.Context, id string) (*BrowseResponse, error) {
	var resp BrowseResponse
	if err := c.do(ctx, http.MethodGet, "/api/browse", idQuery(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Node describes the node with the given wire id.
func (c *Client) Node(ctx context.Context, id string) (*NodeResponse, error) {
	var resp NodeResponse
	if err := c.do(ctx, http.MethodGet, "/api/node", idQuery(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartScan requests a full library scan.
func (c *Client) StartScan(ctx context.Context) (*ScanStarted, error) {
	var resp ScanStarted
	if err := c.do(ctx, http.MethodPost, "/api/scan", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopScan asks the running scan to stop.
func (c *Client) StopScan(ctx context.Context) (*ScanStopped, error) {
	var resp ScanStopped
	if err := c.do(ctx, http.MethodDelete, "/api/scan", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamURL returns the URL serving the bytes of the node with the given id.
func (c *Client) StreamURL(id int) string {
	return c.base + "/api/stream?" + idQuery(strconv.Itoa(id)).Encode()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var body ErrorResponse
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); readErr == nil {
			if json.Unmarshal(data, &body) == nil {
				apiErr.Message = body.Error
			} else {
				apiErr.Message = strings.TrimSpace(string(data))
			}
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func idQuery(id string) url.Values {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return url.Values{"id": []string{id}}
}
