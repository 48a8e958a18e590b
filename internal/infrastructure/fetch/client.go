// Package fetch downloads catalogues and data files from the statistical
// APIs with rate limiting, retries and an optional response cache.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/cache"
	"github.com/statload/backend/internal/infrastructure/config"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxErrorBody is how much of an upstream error body is kept
const maxErrorBody = 200

// ErrStalled is returned when a response body stops sending data for longer
// than the configured timeout.
var ErrStalled = errors.New("response body stalled")

// StatusError is returned for a non-200 response that is not retried, or
// for a 5xx that persisted through every attempt.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Unwrap lets callers match shared.ErrUpstream
func (e *StatusError) Unwrap() error {
	return shared.ErrUpstream
}

// Client performs GET requests against upstream APIs
type Client struct {
	http     *http.Client
	limiter  *rate.Limiter
	cache    cache.ResponseCache
	metrics  *telemetry.ETLMetrics
	logger   *zap.Logger
	attempts int
	backoff  time.Duration
	cacheTTL time.Duration
	idle     time.Duration
	agent    string
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache enables GetCached
func WithCache(rc cache.ResponseCache) Option {
	return func(c *Client) { c.cache = rc }
}

// WithMetrics records durations and retries
func WithMetrics(m *telemetry.ETLMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// newTransport applies timeout to connecting, the TLS handshake and the
// wait for response headers. Reading the body has no overall deadline: large
// files are bounded by the caller's context and the idle timeout.
func newTransport(timeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if timeout > 0 {
		t.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
		t.TLSHandshakeTimeout = timeout
		t.ResponseHeaderTimeout = timeout
	}
	return t
}

// New creates a Client from the fetch configuration
func New(cfg config.FetchConfig, log *zap.Logger, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	c := &Client{
		http:     &http.Client{Transport: newTransport(cfg.Timeout)},
		limiter:  rate.NewLimiter(limit, burst),
		logger:   log.Named("fetch"),
		attempts: attempts,
		backoff:  cfg.BackoffBase,
		cacheTTL: cfg.CacheTTL,
		idle:     cfg.Timeout,
		agent:    cfg.UserAgent,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get downloads url into memory
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		c.metrics.RecordFetch(ctx, hostOf(rawURL), time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("read %s: %w", rawURL, err)
	}
	c.metrics.RecordFetch(ctx, hostOf(rawURL), time.Since(start), err)
	return body, err
}

// GetCached is Get backed by the response cache. Cache failures are
// logged and fall through to the network.
func (c *Client) GetCached(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return c.Get(ctx, rawURL)
	}

	body, ok, err := c.cache.Get(ctx, rawURL)
	if err != nil {
		logger.L(ctx).Warn("Response cache read failed", zap.String("url", rawURL), zap.Error(err))
	}
	if ok {
		logger.L(ctx).Debug("Response cache hit", zap.String("url", rawURL))
		return body, nil
	}

	body, err = c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, rawURL, body, c.cacheTTL); err != nil {
		logger.L(ctx).Warn("Response cache write failed", zap.String("url", rawURL), zap.Error(err))
	}
	return body, nil
}

// Download streams url into w and returns the number of bytes written.
// Retries only happen before the body starts streaming.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	start := time.Now()
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		c.metrics.RecordFetch(ctx, hostOf(rawURL), time.Since(start), err)
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		err = fmt.Errorf("download %s: %w", rawURL, err)
	}
	c.metrics.RecordFetch(ctx, hostOf(rawURL), time.Since(start), err)
	return n, err
}

// do returns a 200 response. 5xx responses are retried after
// backoff*2^attempt, timeouts immediately; anything else fails at once.
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	log := logger.L(ctx).With(zap.String("url", rawURL))
	host := hostOf(rawURL)

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			c.metrics.RecordRetry(ctx, host)
			telemetry.AddEvent(ctx, "fetch.retry", "attempt", attempt+1, "url", rawURL)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		reqCtx, cancel := context.WithCancelCause(ctx)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
		if err != nil {
			cancel(nil)
			return nil, fmt.Errorf("build request: %w", err)
		}
		if c.agent != "" {
			req.Header.Set("User-Agent", c.agent)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			cancel(nil)
			if isTimeout(ctx, err) {
				lastErr = fmt.Errorf("GET %s: %w", rawURL, err)
				log.Warn("Request timed out",
					zap.Int("attempt", attempt+1), zap.Int("max_attempts", c.attempts))
				continue
			}
			return nil, fmt.Errorf("GET %s: %w", rawURL, err)
		}

		if resp.StatusCode == http.StatusOK {
			resp.Body = newIdleBody(reqCtx, resp.Body, c.idle, cancel)
			return resp, nil
		}

		statusErr := newStatusError(rawURL, resp)
		cancel(nil)
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, statusErr
		}
		lastErr = statusErr
		if attempt == c.attempts-1 {
			break
		}
		wait := c.backoff << attempt
		log.Warn("Server error, retrying",
			zap.Int("status", statusErr.StatusCode),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt+1))
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// idleBody cancels the request when no data arrives for timeout
type idleBody struct {
	io.ReadCloser
	ctx     context.Context
	cancel  context.CancelCauseFunc
	timer   *time.Timer
	timeout time.Duration
}

func newIdleBody(ctx context.Context, body io.ReadCloser, timeout time.Duration, cancel context.CancelCauseFunc) io.ReadCloser {
	b := &idleBody{ReadCloser: body, ctx: ctx, cancel: cancel, timeout: timeout}
	if timeout > 0 {
		b.timer = time.AfterFunc(timeout, func() { cancel(ErrStalled) })
	}
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if b.timer != nil && n > 0 {
		b.timer.Reset(b.timeout)
	}
	if err != nil && err != io.EOF && errors.Is(context.Cause(b.ctx), ErrStalled) {
		err = fmt.Errorf("%w after %s", ErrStalled, b.timeout)
	}
	return n, err
}

func (b *idleBody) Close() error {
	if b.timer != nil {
		b.timer.Stop()
	}
	err := b.ReadCloser.Close()
	b.cancel(nil)
	return err
}

func newStatusError(rawURL string, resp *http.Response) *StatusError {
	defer resp.Body.Close()
	head, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody*4))
	body := []rune(string(head))
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(body)}
}

func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
