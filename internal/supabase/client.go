// Package supabase provides a thin REST client for the Supabase backend:
// PostgREST table access and GoTrue auth endpoints.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/eatrite/backend/internal/httputil"
)

const (
	maxResponseBytes  = 8 << 20  // 8 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB

	defaultTimeout = 10 * time.Second
)

// Config holds Supabase connection configuration.
type Config struct {
	URL        string
	AnonKey    string
	ServiceKey string
	// Timeout bounds every remote call; a hung backend degrades to the
	// local fallback instead of blocking the request.
	Timeout time.Duration
}

// Client wraps the Supabase REST API.
type Client struct {
	url        string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

// APIError is a non-2xx response from Supabase.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("supabase API error %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a Supabase client. URL and service key are required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("supabase service key is required")
	}
	if u, err := neturl.Parse(cfg.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("supabase URL must be a valid URL")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		url:        strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Select performs a GET on a table with an already-encoded query string.
func (c *Client) Select(ctx context.Context, table, query string) ([]byte, error) {
	return c.rest(ctx, http.MethodGet, table, nil, query)
}

// Insert performs a POST insert, returning the created representation.
func (c *Client) Insert(ctx context.Context, table string, body interface{}) ([]byte, error) {
	return c.rest(ctx, http.MethodPost, table, body, "")
}

// Update performs a PATCH on the rows matching query.
func (c *Client) Update(ctx context.Context, table, query string, body interface{}) ([]byte, error) {
	return c.rest(ctx, http.MethodPatch, table, body, query)
}

// Delete removes the rows matching query.
func (c *Client) Delete(ctx context.Context, table, query string) error {
	_, err := c.rest(ctx, http.MethodDelete, table, nil, query)
	return err
}

// rest makes an HTTP request to the PostgREST API.
func (c *Client) rest(ctx context.Context, method, table string, body interface{}, query string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.url, neturl.PathEscape(table))
	if query != "" {
		url += "?" + query
	}

	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")

	return c.do(req)
}

// auth makes an HTTP request to a GoTrue endpoint under /auth/v1.
func (c *Client) auth(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	req, err := c.newRequest(ctx, method, c.url+"/auth/v1"+path, body)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, truncated, readErr := httputil.ReadAllWithLimit(resp.Body, maxErrorBodyBytes)
		if readErr != nil {
			return nil, fmt.Errorf("read error response: %w", readErr)
		}
		msg := strings.TrimSpace(string(respBody))
		if truncated {
			msg += "...(truncated)"
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: msg}
	}

	respBody, err := httputil.ReadAllStrict(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return respBody, nil
}

// StatusOf returns the Supabase HTTP status in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
