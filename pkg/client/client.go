package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

const defaultTimeout = 15 * time.Second

// APIError carries the server-supplied failure message for a request. When
// the server omits a message the per-operation fallback is used instead.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// envelope mirrors the server response wrapper.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Message    string          `json:"message,omitempty"`
	Code       string          `json:"code,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
	Meta       map[string]any  `json:"meta,omitempty"`
}

// Pagination echoes the server's list paging info.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithTimeout overrides the uniform request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// OnSessionExpired registers a callback fired once when the server first
// rejects the stored session. The store is cleared before the callback runs.
func OnSessionExpired(fn func()) Option {
	return func(c *Client) { c.onExpired = fn }
}

// Client is the typed facade over the REST API. One method per operation;
// the bearer token is attached whenever the store holds one, and calls to
// protected endpoints without a token are still attempted so the server's
// own rejection is what the caller sees.
type Client struct {
	baseURL   string
	httpc     *http.Client
	store     Store
	onExpired func()
	expired   atomic.Bool
}

// New builds a Client. The base URL is normalized to end in /api.
func New(baseURL string, store Store, opts ...Option) *Client {
	c := &Client{
		baseURL: normalizeBaseURL(baseURL),
		httpc:   &http.Client{Timeout: defaultTimeout},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(raw, "/")
	if strings.HasSuffix(trimmed, "/api") {
		return trimmed
	}
	return trimmed + "/api"
}

// do performs one request and decodes the envelope into out (which may be
// nil for operations without a payload).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, fallback string) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", fallback, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", fallback, err)
	}

	var env envelope
	if len(raw) > 0 {
		// A non-JSON body still maps onto the fallback error below.
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.sessionRejected()
	}

	if resp.StatusCode >= 400 || (len(raw) > 0 && !env.Success && resp.StatusCode != http.StatusNoContent) {
		message := env.Message
		if message == "" {
			message = fallback
		}
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: %w", fallback, err)
		}
	}
	return nil
}

// doList is do plus pagination and meta extraction for list endpoints.
func (c *Client) doList(ctx context.Context, path string, query url.Values, out interface{}, fallback string) (*Pagination, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fallback, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fallback, err)
	}

	var env envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.sessionRejected()
	}

	if resp.StatusCode >= 400 || !env.Success {
		message := env.Message
		if message == "" {
			message = fallback
		}
		return nil, &APIError{Status: resp.StatusCode, Code: env.Code, Message: message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("%s: %w", fallback, err)
		}
	}
	return env.Pagination, nil
}

// sessionRejected clears the store and fires the expiry callback exactly
// once per session.
func (c *Client) sessionRejected() {
	if c.store.Token() == "" {
		return
	}
	if !c.expired.CompareAndSwap(false, true) {
		return
	}
	_ = c.store.Clear()
	if c.onExpired != nil {
		c.onExpired()
	}
}

// saveSession persists a fresh token+user pair and re-arms the expiry
// interceptor.
func (c *Client) saveSession(token string, user *User) error {
	if err := c.store.SetToken(token); err != nil {
		return err
	}
	if err := c.store.SetUser(user); err != nil {
		return err
	}
	c.expired.Store(false)
	return nil
}
