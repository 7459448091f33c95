package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// StatusError is returned for responses with a 4xx or 5xx status
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// IsNotFound reports whether err is a 404 StatusError
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == 404
}

// Client wraps resty.Client with retry logic and timeout handling
type Client struct {
	resty      *resty.Client
	maxRetries int
	timeout    time.Duration
	logger     *slog.Logger
}

// ClientConfig holds configuration for the HTTP client
type ClientConfig struct {
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int
	RetryWaitTime time.Duration
	UserAgent     string
	Debug         bool
	Logger        *slog.Logger
}

// DefaultClientConfig returns sensible defaults for HTTP client
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		RetryWaitTime: time.Second,
		UserAgent:     "archivist/1.0",
	}
}

// NewClient creates a new HTTP client with the given configuration
func NewClient(config ClientConfig) *Client {
	defaults := DefaultClientConfig()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryWaitTime == 0 {
		config.RetryWaitTime = defaults.RetryWaitTime
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	restyClient := resty.New().
		SetTimeout(config.Timeout).
		SetRetryCount(config.MaxRetries).
		SetRetryWaitTime(config.RetryWaitTime).
		SetRetryMaxWaitTime(5*config.RetryWaitTime).
		SetHeader("User-Agent", config.UserAgent).
		SetHeader("Accept", "application/json")
	if config.BaseURL != "" {
		restyClient.SetBaseURL(config.BaseURL)
	}

	// network errors, 5xx and 429 are retried; malformed bodies are not
	restyClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) && !isDecodeError(err)
		}
		return r.StatusCode() >= 500 || r.StatusCode() == 429
	})

	client := &Client{
		resty:      restyClient,
		maxRetries: config.MaxRetries,
		timeout:    config.Timeout,
		logger:     config.Logger,
	}

	if config.Debug && config.Logger != nil {
		restyClient.OnBeforeRequest(func(c *resty.Client, r *resty.Request) error {
			client.logRequest(r)
			return nil
		})
		restyClient.OnAfterResponse(func(c *resty.Client, r *resty.Response) error {
			client.logResponse(r)
			return nil
		})
	}

	return client
}

// Get performs a GET request with context support
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*resty.Response, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET request failed for %s: %w", path, err)
	}

	if resp.StatusCode() >= 400 {
		return resp, &StatusError{StatusCode: resp.StatusCode(), URL: path, Body: truncate(resp.String(), 200)}
	}

	return resp, nil
}

// GetJSON performs a GET request and lets resty decode the JSON body
// into out. The body is decoded whatever content type the server sends.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		SetResult(out).
		ForceContentType("application/json").
		Get(path)
	if isDecodeError(err) {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	if err != nil {
		return fmt.Errorf("GET request failed for %s: %w", path, err)
	}

	if resp.StatusCode() >= 400 {
		return &StatusError{StatusCode: resp.StatusCode(), URL: path, Body: truncate(resp.String(), 200)}
	}
	return nil
}

// isDecodeError reports whether err came from decoding a response body
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// SetHeader sets a default header for all requests
func (c *Client) SetHeader(key, value string) {
	c.resty.SetHeader(key, value)
}

// BaseURL returns the URL relative paths are resolved against
func (c *Client) BaseURL() string {
	return c.resty.BaseURL
}

// GetTimeout returns the configured timeout
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// GetMaxRetries returns the configured max retries
func (c *Client) GetMaxRetries() int {
	return c.maxRetries
}

func (c *Client) logRequest(r *resty.Request) {
	c.logger.Debug("HTTP request",
		"method", r.Method,
		"url", r.URL,
		"query", r.QueryParam.Encode(),
	)
}

func (c *Client) logResponse(r *resty.Response) {
	c.logger.Debug("HTTP response",
		"status", r.StatusCode(),
		"url", r.Request.URL,
		"time", r.Time(),
		"body", truncate(r.String(), 1000),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}
