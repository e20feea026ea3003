// Package client is a Go client for the HayatOS API implementing the
// optimistic mutation model: entity stores apply changes locally first,
// then reconcile with the server response, reverting on failure.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hayatos/hayatos/internal/errs"
)

// Client is the HTTP transport shared by entity stores. It attaches the
// bearer token to every request and tears the session down on a 401.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu               sync.RWMutex
	token            string
	onSessionExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionExpiredHandler registers a callback invoked once per 401,
// after the token has been cleared.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// New creates a client for the given server base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token, empty after session teardown.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type authResult struct {
	Token string `json:"token"`
	User  struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
}

// Login authenticates and installs the returned token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var res authResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return err
	}
	c.SetToken(res.Token)
	return nil
}

// Register creates an account and installs the returned token.
func (c *Client) Register(ctx context.Context, email, password, displayName string) error {
	var res authResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"email": email, "password": password, "displayName": displayName}, &res)
	if err != nil {
		return err
	}
	c.SetToken(res.Token)
	return nil
}

// Logout revokes the session server-side and clears the token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

// do performs one JSON request. Non-2xx responses become coded errors; a
// 401 additionally clears the token and fires the session-expired handler.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.expireSession()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.Internal, "decode response", err)
	}
	return nil
}

func (c *Client) expireSession() {
	c.mu.Lock()
	hadToken := c.token != ""
	c.token = ""
	fn := c.onSessionExpired
	c.mu.Unlock()
	if hadToken && fn != nil {
		fn()
	}
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := resp.Status
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return errs.New(codeForStatus(resp.StatusCode), msg)
}

func codeForStatus(status int) errs.Code {
	switch status {
	case http.StatusBadRequest:
		return errs.InvalidArgument
	case http.StatusUnauthorized:
		return errs.Unauthenticated
	case http.StatusForbidden:
		return errs.PermissionDenied
	case http.StatusNotFound:
		return errs.NotFound
	case http.StatusConflict, http.StatusPreconditionFailed:
		return errs.FailedPrecondition
	case http.StatusTooManyRequests:
		return errs.ResourceExhausted
	case http.StatusServiceUnavailable:
		return errs.Unavailable
	default:
		return errs.Internal
	}
}
