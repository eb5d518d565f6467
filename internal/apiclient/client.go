// Package apiclient is the authenticated request engine for the new backend.
// Every call carries an optional bearer token, is bounded by a hard deadline
// enforced through context cancellation, and must come back wrapped in the
// backend's {isSuccess, data, message} envelope.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FotoFacturas/revamp-sub000/internal/apierr"
)

const (
	// DefaultTimeout bounds a call when Config.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	requestIDHeader = "X-Request-ID"
)

// Envelope is the new backend's response wrapper.
type Envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
	Code      string          `json:"code,omitempty"`
}

// Config holds engine configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Opener resolves FileRef URIs for upload calls.
	Opener Opener
	Logger *slog.Logger
}

// Client performs authenticated calls against the new backend.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	opener     Opener
	logger     *slog.Logger
}

// New creates a new engine client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client-level timeout: the per-call context owns the deadline.
		httpClient = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
		opener:     cfg.Opener,
		logger:     logger,
	}, nil
}

// Options describes one call. Body and Multipart are mutually exclusive.
type Options struct {
	Method    string
	Body      any
	Multipart *Multipart
	Headers   map[string]string
}

// Call performs one request and returns the validated success envelope.
// Failures are one of apierr.ErrRequestTimeout, *apierr.NetworkError,
// *apierr.HTTPError, *apierr.ParseError or *apierr.EnvelopeError. A
// cancelled parent context is returned as the context error.
func (c *Client) Call(ctx context.Context, endpoint string, opts Options, token string) (*Envelope, error) {
	if opts.Body != nil && opts.Multipart != nil {
		return nil, errors.New("apiclient: body and multipart are mutually exclusive")
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
		if opts.Body != nil || opts.Multipart != nil {
			method = http.MethodPost
		}
	}
	url := c.baseURL + endpoint

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		body        io.Reader
		rawBody     []byte
		contentType string
	)
	switch {
	case opts.Multipart != nil:
		reader, ct, err := c.encodeMultipart(ctx, opts.Multipart)
		if err != nil {
			return nil, err
		}
		body, contentType = reader, ct
	case opts.Body != nil:
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, url, err)
		}
		rawBody = encoded
		body, contentType = bytes.NewReader(encoded), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		if closer, ok := body.(io.Closer); ok {
			closer.Close()
		}
		return nil, fmt.Errorf("build %s %s: %w", method, url, err)
	}
	for k, v := range opts.Headers {
		if strings.EqualFold(k, "Content-Type") {
			continue
		}
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := req.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
		req.Header.Set(requestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = classify(ctx, method, url, err)
		c.logger.Debug("api call failed", "method", method, "url", url, "request_id", requestID, "duration", time.Since(start), "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, method, url, err)
	}

	c.logger.Debug("api call completed", "method", method, "url", url, "status", resp.StatusCode, "request_id", requestID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &apierr.HTTPError{
			Method:      method,
			URL:         url,
			RequestBody: string(rawBody),
			Status:      resp.StatusCode,
			Body:        string(payload),
		}
		var env Envelope
		if json.Unmarshal(payload, &env) == nil {
			httpErr.Message = env.Message
			httpErr.Code = env.Code
		}
		return nil, httpErr
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &apierr.ParseError{URL: url, Body: string(payload), Err: err}
	}
	if !env.IsSuccess {
		return nil, &apierr.EnvelopeError{Message: env.Message, Code: env.Code}
	}
	return &env, nil
}

func classify(ctx context.Context, method, url string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", method, url, apierr.ErrRequestTimeout)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s %s: %w", method, url, ctx.Err())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s %s: %w", method, url, apierr.ErrRequestTimeout)
	}
	return &apierr.NetworkError{Method: method, URL: url, Err: err}
}

// decodeData unmarshals the envelope's data field into T. An empty data field
// yields the zero value.
func decodeData[T any](env *Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, &apierr.ParseError{Body: string(env.Data), Err: err}
	}
	return out, nil
}
