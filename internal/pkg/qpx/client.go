package qpx

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	qpxexpress "google.golang.org/api/qpxexpress/v1"
)

const DefaultBaseURL = "https://www.googleapis.com/qpxExpress/v1/trips/search?key="

// Limiter gates outgoing calls. Allow reports false when the budget is spent.
type Limiter interface {
	Allow(ctx context.Context) (bool, error)
}

// Config for the QPX client. The zero value is usable: default base URL,
// no timeout, a single attempt and no rate limiting.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Limiter    Limiter
}

// Client is immutable once built; rotate keys with WithKey.
type Client struct {
	baseURL    string
	url        string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	limiter    Limiter
}

// FromKey builds a client that sends requests with the given API key.
func FromKey(cfg Config, key string) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		url:        cfg.BaseURL + key,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		httpClient: cfg.HTTPClient,
		limiter:    cfg.Limiter,
	}
}

// FromCredentialsFile builds a client from a file whose first line is the API key.
func FromCredentialsFile(cfg Config, path string) (*Client, error) {
	key, err := readKey(path)
	if err != nil {
		return nil, err
	}

	return FromKey(cfg, key), nil
}

func readKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open credentials file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// WithKey returns a copy of the client bound to key. The receiver keeps
// its old key.
func (c *Client) WithKey(key string) *Client {
	clone := *c
	clone.url = c.baseURL + key

	return &clone
}

// URL returns the endpoint the client posts to, key included.
func (c *Client) URL() string {
	return c.url
}

// Search builds a request from the arguments and runs it with Do.
func (c *Client) Search(ctx context.Context, arrive, depart, date string,
	opts ...Option,
) (map[int]FlattenedTrip, error) {
	req, err := NewSearchRequest(arrive, depart, date, opts...)
	if err != nil {
		return nil, err
	}

	return c.Do(ctx, req)
}

// Do posts req and flattens the reply. Any failure aborts the whole call;
// there is no partial result.
func (c *Client) Do(ctx context.Context, req SearchRequest) (map[int]FlattenedTrip, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	return Flatten(resp), nil
}

func (c *Client) send(ctx context.Context, req SearchRequest) (*qpxexpress.TripsSearchResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 200ms * 2^(attempt-1)
			backoff := time.Duration(200*(1<<(attempt-1))) * time.Millisecond
			slog.InfoContext(ctx, "retrying qpx search with exponential backoff",
				slog.Duration("backoff", backoff), slog.Int("next_attempt", attempt+1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled or timeout: %w", ctx.Err())
			}
		}

		if c.limiter != nil {
			allowed, err := c.limiter.Allow(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to rate limit: %w", err)
			}

			if !allowed {
				return nil, ErrRateLimitExceeded
			}
		}

		slog.DebugContext(ctx, "calling qpx search api", slog.Int("attempt", attempt+1))

		resp, err := c.post(ctx, payload)
		if err == nil {
			return resp, nil
		}

		if !errors.Is(err, ErrUpstreamUnavailable) || ctx.Err() != nil {
			return nil, err
		}

		lastErr = err
		slog.WarnContext(ctx, "failed to call qpx search api",
			slog.Int("attempt", attempt+1), slog.String("error", err.Error()))
	}

	return nil, fmt.Errorf("failed to get trips after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) post(ctx context.Context, payload []byte) (*qpxexpress.TripsSearchResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create qpx request: %w", err)
	}
	httpReq.Header.Set("Content-type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, ErrUpstreamUnavailable.WithCause(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, ErrUpstreamUnavailable.WithCause(fmt.Errorf("read body: %w", err))
	}

	return decodeResponse(ctx, httpResp.StatusCode, body)
}

// decodeResponse fails with ErrSearchAPI whenever the body has an error key,
// whatever the status code or error detail. Other 5xx replies are
// ErrUpstreamUnavailable.
func decodeResponse(ctx context.Context, status int, body []byte) (*qpxexpress.TripsSearchResponse, error) {
	serverError := status >= http.StatusInternalServerError

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		if serverError {
			return nil, ErrUpstreamUnavailable.WithCause(fmt.Errorf("status %d", status))
		}

		return nil, fmt.Errorf("failed to decode qpx response: %w", err)
	}

	for _, key := range []string{"Error", "error"} {
		if detail, ok := raw[key]; ok {
			slog.WarnContext(ctx, "qpx search api returned an error",
				slog.Int("status", status), slog.String("detail", string(detail)))
			return nil, ErrSearchAPI
		}
	}

	if serverError {
		return nil, ErrUpstreamUnavailable.WithCause(fmt.Errorf("status %d", status))
	}

	var resp qpxexpress.TripsSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode qpx trips: %w", err)
	}

	return &resp, nil
}
