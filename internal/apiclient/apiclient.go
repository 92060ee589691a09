// Package apiclient is a Go consumer of the EcoTrack API. It carries the
// session cookies in a jar and transparently refreshes an expired access
// token: any 401 triggers exactly one refresh plus one retry, never a loop.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// refreshPath must match the server's token refresh route.
const refreshPath = "/api/refresh-token"

const defaultTimeout = 30 * time.Second

// ErrSessionExpired is returned once the silent refresh fails or the retry
// is rejected again; the local session state is cleared and the caller has
// to log in anew.
var ErrSessionExpired = errors.New("session expired")

// Client is a cookie-carrying API client.
type Client struct {
	base string
	http *http.Client

	// mu serializes the refresh so concurrent 401s don't stampede.
	mu sync.Mutex
}

// New creates a client for the API at baseURL.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Jar: jar, Timeout: defaultTimeout},
	}, nil
}

// Get performs a GET with the silent-refresh behavior.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST with a JSON payload and the silent-refresh behavior.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, path, payload)
}

// Do sends the request. A 401 answer triggers one refresh and one retry;
// if either fails the session state is dropped and ErrSessionExpired is
// returned. Callers own the response body.
func (c *Client) Do(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || path == refreshPath {
		return resp, nil
	}

	_ = resp.Body.Close()

	if err := c.refresh(ctx); err != nil {
		log.Debug().Err(err).Msg("silent token refresh failed")
		c.resetSession()

		return nil, ErrSessionExpired
	}

	resp, err = c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		c.resetSession()

		return nil, ErrSessionExpired
	}

	return resp, nil
}

// send builds and executes one request. The payload is re-encoded per call
// so a retry never reuses a drained body.
func (c *Client) send(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	var body *bytes.Reader

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

// refresh asks the server for a fresh access cookie using the refresh
// cookie already in the jar.
func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.send(ctx, http.MethodPost, refreshPath, nil)
	if err != nil {
		return err
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.New("refresh rejected")
	}

	return nil
}

// resetSession drops every cookie the client holds.
func (c *Client) resetSession() {
	// cookiejar has no clear; a fresh jar is the reset
	jar, err := cookiejar.New(nil)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.http.Jar = jar
	c.mu.Unlock()
}
