// Package fetch implements the rate-limited HTTP GET primitive shared by all
// market-data adapters. Every call waits for the per-upstream minimum interval,
// is classified into a typed Result and retried with linear backoff by a single
// retry wrapper.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"nr_scanner/internal/platform/clock"
	"nr_scanner/internal/shared/ratelimiter"
	"nr_scanner/internal/shared/redact"
)

const (
	defaultMaxRetries = 3
	maxBodySnippet    = 200
	userAgent         = "nr-scanner/1.0"
)

// Kind classifies the outcome of one transport attempt.
type Kind int

const (
	KindSuccess Kind = iota
	KindRateLimited
	KindTransient
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate limited"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

// Result is the typed outcome of a single HTTP attempt.
type Result struct {
	Kind   Kind
	Status int
	Body   []byte
	Err    error
}

// Config holds per-upstream transport settings.
type Config struct {
	Name        string        // upstream identifier used in logs and errors
	BaseURL     string        // e.g. "https://api.binance.com"
	MinInterval time.Duration // minimum spacing between calls to this upstream
	Backoff     time.Duration // sleep = Backoff * attempt number
	MaxRetries  int           // total attempts, including the first
	Secrets     []string      // values redacted from every error message
}

// Client is the rate-limited fetch primitive for one upstream.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter ratelimiter.RateLimiterInterface
	clock   clock.Clock
	log     *slog.Logger
}

// NewClient creates a Client. The limiter and clock are owned by the instance.
func NewClient(cfg Config, httpClient *http.Client, clk clock.Clock) *Client {
	if clk == nil {
		clk = clock.Real{}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: ratelimiter.NewRateLimiter(cfg.Name, cfg.MinInterval, clk),
		clock:   clk,
		log:     slog.Default(),
	}
}

// Name returns the upstream name.
func (c *Client) Name() string { return c.cfg.Name }

// Get performs a GET on BaseURL+path with query q and returns the body.
// Rate-limited and transient failures are retried; the last error is returned.
func (c *Client) Get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.cfg.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body []byte
	err := retry.Do(
		func() error {
			if err := c.limiter.WaitIfNeeded(ctx); err != nil {
				return c.toError(Result{Kind: KindFatal, Err: err})
			}
			res := c.attempt(ctx, u)
			if res.Kind != KindSuccess {
				return c.toError(res)
			}
			body = res.Body
			return nil
		},
		retry.Attempts(uint(c.cfg.MaxRetries)),
		// retry-go passes the 1-based number of the attempt that just failed
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return c.cfg.Backoff * time.Duration(n)
		}),
		retry.RetryIf(Retryable),
		retry.LastErrorOnly(true),
		// OnRetry also fires for the last attempt, which is not retried
		retry.OnRetry(func(n uint, err error) {
			if int(n)+1 >= c.cfg.MaxRetries {
				return
			}
			c.log.Warn("upstream call failed, retrying", "upstream", c.cfg.Name, "attempt", n+1, "error", err)
		}),
		retry.Context(ctx),
		retry.WithTimer(c.clock),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON performs Get and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, q url.Values, out any) error {
	b, err := c.Get(ctx, path, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s: decode %s: %w", c.cfg.Name, path, err)
	}
	return nil
}

// attempt executes one HTTP request and classifies it.
func (c *Client) attempt(ctx context.Context, u string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{Kind: KindFatal, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	res, err := c.http.Do(req)
	if err != nil {
		return Result{Kind: classifyTransportError(ctx, err), Err: err}
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "upstream", c.cfg.Name, "error", err)
		}
	}()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return Result{Kind: classifyTransportError(ctx, err), Status: res.StatusCode, Err: err}
	}
	return Result{Kind: ClassifyStatus(res.StatusCode), Status: res.StatusCode, Body: b}
}

// ClassifyStatus maps an HTTP status code to a Kind.
func ClassifyStatus(status int) Kind {
	switch {
	case status >= 200 && status < 300:
		return KindSuccess
	case status == http.StatusTooManyRequests || status == http.StatusTeapot:
		// Binance answers 418 once an IP is auto-banned for ignoring 429s.
		return KindRateLimited
	case status == http.StatusRequestTimeout || status >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}

func classifyTransportError(ctx context.Context, err error) Kind {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return KindFatal
	}
	return KindTransient
}

// toError converts a failed Result into a redacted *Error.
func (c *Client) toError(res Result) error {
	var msg string
	switch {
	case res.Err != nil:
		msg = res.Err.Error()
	case len(res.Body) > 0:
		msg = redact.Truncate(strings.TrimSpace(string(res.Body)), maxBodySnippet)
	default:
		msg = http.StatusText(res.Status)
	}
	msg = redact.Secrets(msg, c.cfg.Secrets...)

	cause := res.Err
	if cause != nil && redact.Secrets(cause.Error(), c.cfg.Secrets...) != cause.Error() {
		cause = errors.New(msg)
	}
	return &Error{
		Upstream: c.cfg.Name,
		Kind:     res.Kind,
		Status:   res.Status,
		Msg:      msg,
		cause:    cause,
	}
}
