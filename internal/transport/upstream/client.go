// Package upstream executes provider HTTP calls with a bounded timeout and
// maps every failure into the domain error taxonomy.
package upstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/metrics"
)

// DefaultTimeout bounds every provider call.
const DefaultTimeout = 15 * time.Second

const (
	maxErrorBody   = 4 << 10
	maxSuccessBody = 8 << 20
)

// sensitiveParams are query parameters never written to logs.
var sensitiveParams = []string{"key", "apikey", "api_key", "token", "access_token", "client_secret"}

// Client wraps http.Client for a single named provider.
type Client struct {
	http     *http.Client
	provider string
	logger   *zap.Logger
}

// Config holds the upstream client settings.
type Config struct {
	Provider string
	Timeout  time.Duration
	Logger   *zap.Logger
	// Transport overrides the default round tripper (tests).
	Transport http.RoundTripper
}

// New creates a provider client. Timeout falls back to DefaultTimeout.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:     &http.Client{Timeout: timeout, Transport: cfg.Transport},
		provider: cfg.Provider,
		logger:   logger.With(zap.String("provider", cfg.Provider)),
	}
}

// Provider returns the provider name used in errors and metrics.
func (c *Client) Provider() string { return c.provider }

// Logger returns the provider-scoped logger.
func (c *Client) Logger() *zap.Logger { return c.logger }

// Do sends req and returns the body of a 2xx response.
// Network errors and timeouts wrap domain.ErrUpstreamUnavailable; non-2xx
// statuses return *domain.UpstreamError with the raw body.
func (c *Client) Do(req *http.Request, operation string) ([]byte, error) {
	c.logger.Debug("upstream request",
		zap.String("operation", operation),
		zap.String("method", req.Method),
		zap.String("url", RedactURL(req.URL)),
		zap.Strings("headers", headerNames(req.Header)),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	metrics.ProviderRequestDuration.WithLabelValues(c.provider, operation).Observe(duration.Seconds())

	if err != nil {
		c.fail(operation, "unavailable")
		return nil, fmt.Errorf("%s %s: %w: %w", c.provider, operation, domain.ErrUpstreamUnavailable, scrub(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upErr := domain.NewUpstreamError(c.provider, resp.StatusCode, strings.TrimSpace(string(body)))
		c.fail(operation, domain.ErrorClass(upErr))
		c.logger.Debug("upstream error response",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", duration),
			zap.ByteString("body", body),
		)
		return nil, upErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSuccessBody))
	if err != nil {
		c.fail(operation, "unavailable")
		return nil, fmt.Errorf("%s %s: read body: %w: %w", c.provider, operation, domain.ErrUpstreamUnavailable, err)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(c.provider, operation, "success").Inc()
	c.logger.Debug("upstream response",
		zap.String("operation", operation),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", duration),
		zap.Int("bytes", len(body)),
		zap.ByteString("body", body),
	)
	return body, nil
}

// DecodeJSON unmarshals a 2xx body. A body that is not the expected JSON is
// reported as an upstream error carrying the raw payload.
func (c *Client) DecodeJSON(body []byte, v any, operation string) error {
	if err := json.Unmarshal(body, v); err != nil {
		c.fail(operation, "decode")
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return fmt.Errorf("decode %s response: %w", operation,
			&domain.UpstreamError{
				Provider: c.provider,
				Status:   http.StatusOK,
				Body:     string(snippet),
				Kind:     domain.ErrUpstreamError,
			})
	}
	return nil
}

func (c *Client) fail(operation, errType string) {
	metrics.ProviderRequestsTotal.WithLabelValues(c.provider, operation, "error").Inc()
	metrics.ProviderErrorsTotal.WithLabelValues(c.provider, operation, errType).Inc()
}

// RedactURL renders u with credential-like query parameters masked.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	changed := false
	for _, p := range sensitiveParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return u.String()
	}
	cp := *u
	cp.RawQuery = q.Encode()
	return cp.String()
}

// scrub strips the request URL from *url.Error so credentials in query strings never leak into messages.
func scrub(err error) error {
	if ue, ok := err.(*url.Error); ok { //nolint:errorlint // only the top-level wrapper carries the URL
		u, perr := url.Parse(ue.URL)
		if perr == nil {
			return &url.Error{Op: ue.Op, URL: RedactURL(u), Err: ue.Err}
		}
	}
	return err
}

func headerNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	return names
}
