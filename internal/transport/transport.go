// Package transport performs single JSON calls against the legacy backend's
// fixed origin. It is stateless and never retries.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/FotoFacturas/revamp-sub000/internal/apierr"
)

const defaultHTTPTimeout = 30 * time.Second

// Result is a decoded JSON object body.
type Result map[string]any

// Client issues verb-specific calls relative to one origin.
type Client struct {
	origin     string
	httpClient *http.Client
}

// New builds a Client for origin. A nil httpClient gets a default one with a
// generous overall timeout; per-call deadlines come from the context.
func New(origin string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{origin: origin, httpClient: httpClient}
}

// URLFor concatenates the configured origin and path. Path is not validated.
func (c *Client) URLFor(path string) string {
	return c.origin + path
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (Result, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (Result, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (Result, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE request, with a JSON body when body is non-nil.
func (c *Client) Delete(ctx context.Context, path string, body any) (Result, error) {
	return c.do(ctx, http.MethodDelete, path, body)
}

// TimedGet is Get bounded by timeout. When the timer wins the request context
// is cancelled, so the abandoned call releases its connection and can never
// hand a late result to the caller.
func (c *Client) TimedGet(ctx context.Context, path string, timeout time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (Result, error) {
	url := c.URLFor(path)

	var (
		reader  io.Reader
		rawBody []byte
	)
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, url, err)
		}
		rawBody = encoded
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, url, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, method, url, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, method, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apierr.HTTPError{
			Method:      method,
			URL:         url,
			RequestBody: string(rawBody),
			Status:      resp.StatusCode,
			Body:        string(payload),
		}
	}

	result := Result{}
	if len(bytes.TrimSpace(payload)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, &apierr.ParseError{URL: url, Body: string(payload), Err: err}
	}
	return result, nil
}

func classify(ctx context.Context, method, url string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", method, url, apierr.ErrTimeout)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s %s: %w", method, url, ctx.Err())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s %s: %w", method, url, apierr.ErrTimeout)
	}
	return &apierr.NetworkError{Method: method, URL: url, Err: err}
}
