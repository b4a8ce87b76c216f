package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/metrics"
	"github.com/sony/gobreaker/v2"
)

const (
	responseBodyReadLimit     int64 = 1024
	defaultTimeout                  = 3 * time.Second
	defaultBreakerFailures          = 5
	defaultBreakerOpenTimeout       = 30 * time.Second

	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
	resultOpen     = "breaker_open"
)

var errNotFound = errors.New("upstream resource not found")

// Client issues JSON GET requests against one upstream service behind a
// circuit breaker. A 404 is reported as CodeNotFound and does not count as a
// breaker failure; everything else that goes wrong is CodeDependency.
type Client struct {
	name       string
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	metrics    *metrics.UpstreamMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records request latency per result.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a client named after the upstream it talks to.
func NewClient(name, baseURL string, cfg config.UpstreamsConfig, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, fmt.Errorf("%s base url is required", name)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = defaultBreakerFailures
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultBreakerOpenTimeout
	}

	client := &Client{
		name:       name,
		baseURL:    trimmedURL,
		token:      strings.TrimSpace(cfg.ServiceToken),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	client.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound) || errors.Is(err, context.Canceled)
		},
	})

	return client, nil
}

// Name returns the upstream name used for logs and metrics.
func (c *Client) Name() string {
	return c.name
}

// GetJSON fetches path relative to the base URL and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "upstream client not configured")
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path)
	})
	if err != nil {
		return c.classify(err, start)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.Observe(c.name, resultError, time.Since(start))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", c.name))
	}
	c.metrics.Observe(c.name, resultOK, time.Since(start))
	return nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) classify(err error, start time.Time) error {
	elapsed := time.Since(start)
	switch {
	case errors.Is(err, errNotFound):
		c.metrics.Observe(c.name, resultNotFound, elapsed)
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("%s resource not found", c.name))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.Observe(c.name, resultOpen, elapsed)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s circuit open", c.name))
	default:
		c.metrics.Observe(c.name, resultError, elapsed)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s request failed", c.name))
	}
}
