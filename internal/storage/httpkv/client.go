// Package httpkv implements the storage Adapter contract over the
// timevault server's key-value HTTP API. It is the remote tier: every
// backend failure is translated into the storage error taxonomy so
// callers never see raw transport errors.
package httpkv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/timevault/timevault/internal/storage"
	"github.com/timevault/timevault/pkg/api"
)

// DefaultTimeout bounds every remote call unless the caller's context
// sets a tighter deadline.
const DefaultTimeout = 15 * time.Second

// Client is the remote tier adapter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

var _ storage.Adapter = (*Client)(nil)

// New creates a remote adapter against baseURL. The token authenticates
// every request; obtain it with Login first.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Keep the Authorization header across redirects.
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// SetToken replaces the bearer token, e.g. after a re-login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login exchanges the access key for a bearer token and stores it on the
// client.
func Login(ctx context.Context, baseURL, accessKey string) (*api.LoginResponse, error) {
	c := New(baseURL, "")

	body, err := json.Marshal(api.LoginRequest{AccessKey: accessKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, translateTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed: %s", readAPIError(resp))
	}

	var loginResp api.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	return &loginResp, nil
}

// Get returns the value stored under key on the server.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, c.keyURL(key), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		value, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %w", storage.ErrNetwork, err)
		}
		return value, nil
	case http.StatusNotFound:
		return nil, storage.ErrNotFound
	default:
		return nil, c.statusErr(resp)
	}
}

// Set stores value under key on the server.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	resp, err := c.do(ctx, http.MethodPut, c.keyURL(key), value)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.statusErr(resp)
	}
	return nil
}

// Delete removes key on the server. Absent keys are ignored.
func (c *Client) Delete(ctx context.Context, key string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.keyURL(key), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusNotFound {
		return c.statusErr(resp)
	}
	return nil
}

// Exists reports whether key is present on the server.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := c.do(ctx, http.MethodHead, c.keyURL(key), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, c.statusErr(resp)
	}
}

// Keys returns all keys matching the glob pattern.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	u := c.baseURL + "/api/v1/kv?pattern=" + url.QueryEscape(pattern)
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusErr(resp)
	}

	var keysResp api.KeysResponse
	if err := json.NewDecoder(resp.Body).Decode(&keysResp); err != nil {
		return nil, fmt.Errorf("%w: decode keys response: %w", storage.ErrNetwork, err)
	}
	return keysResp.Keys, nil
}

// Clear wipes all keys owned by the authenticated user.
func (c *Client) Clear(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/v1/kv/clear", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.statusErr(resp)
	}
	return nil
}

func (c *Client) keyURL(key string) string {
	return c.baseURL + "/api/v1/kv/" + url.PathEscape(key)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, translateTransportErr(err)
	}
	return resp, nil
}

func (c *Client) statusErr(resp *http.Response) error {
	return fmt.Errorf("%w: server returned %d: %s",
		storage.ErrStorageFailure, resp.StatusCode, readAPIError(resp))
}

// translateTransportErr maps low-level transport failures onto the
// storage error taxonomy.
func translateTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", storage.ErrTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %w", storage.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", storage.ErrNetwork, err)
}

func readAPIError(resp *http.Response) string {
	var apiErr api.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return resp.Status
}
