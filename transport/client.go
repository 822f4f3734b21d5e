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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/auth0/go-idtoken/core"
	"github.com/auth0/go-idtoken/retry"
)

const (
	// DefaultTimeout applies when neither the call nor the client sets one.
	DefaultTimeout = 10 * time.Second

	// HeaderRequestID carries the correlation id shared by all attempts of
	// one logical request.
	HeaderRequestID = "X-Request-Id"

	maxResponseBytes = 10 << 20
)

// Client performs HTTP requests with rate-limit retries and a fixed
// status-to-error mapping. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	header     http.Header
	timeout    time.Duration
	policy     retry.Policy
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker

	logger  core.Logger
	metrics core.Metrics
	tracer  core.Tracer

	jitter retry.JitterFunc
	sleep  func(ctx context.Context, d time.Duration) error
}

// New builds a Client. Without options it uses a plain http.Client,
// DefaultTimeout and retry.DefaultRetries.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{},
		header:     make(http.Header),
		timeout:    DefaultTimeout,
		policy:     retry.DefaultPolicy(),
		logger:     core.NopLogger{},
		metrics:    &core.NoopMetrics{},
		tracer:     &core.NoopTracer{},
		jitter:     retry.UniformJitter,
		sleep:      sleepContext,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return c, nil
}

// Policy returns the retry policy in effect.
func (c *Client) Policy() retry.Policy {
	return c.policy
}

// Get issues a GET request using the client's default timeout.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (any, error) {
	return c.Request(ctx, http.MethodGet, url, header, nil, 0)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body any) (any, error) {
	return c.Request(ctx, http.MethodPost, url, nil, body, 0)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, url string, body any) (any, error) {
	return c.Request(ctx, http.MethodPut, url, nil, body, 0)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, url string, body any) (any, error) {
	return c.Request(ctx, http.MethodPatch, url, nil, body, 0)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, url string) (any, error) {
	return c.Request(ctx, http.MethodDelete, url, nil, nil, 0)
}

// Request performs one logical request. Relative URLs are resolved against
// the base URL. A zero timeout means the client default; the timeout
// bounds each attempt separately.
//
// On success the body is returned parsed as JSON, or as a string when it is
// not JSON. Failures are *Error values except for network errors and
// cancellation of ctx, which are returned wrapped.
func (c *Client) Request(
	ctx context.Context,
	method, url string,
	header http.Header,
	body any,
	timeout time.Duration,
) (any, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	target := c.resolve(url)
	requestID := uuid.NewString()

	ctx, span := c.tracer.StartSpan(ctx, "transport.request")
	defer span.Finish()
	span.SetTag("http.method", method)
	span.SetTag("http.url", target)
	span.SetTag("request.id", requestID)

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxTries; attempt++ {
		if attempt > 1 {
			delay := c.policy.Delay(attempt-1, c.jitter)
			c.logger.Warnf("request %s: %s %s rate limited, retrying in %s (attempt %d/%d)",
				requestID, method, target, delay, attempt, c.policy.MaxTries)
			c.metrics.IncCounter("transport_retries_total", map[string]string{"method": method})
			c.metrics.ObserveHistogram("transport_backoff_seconds", delay.Seconds(), map[string]string{"method": method})

			if err := c.sleep(ctx, delay); err != nil {
				lastErr = fmt.Errorf("request %s %s canceled during backoff: %w", method, target, err)
				break
			}
		}

		var result any
		result, lastErr = c.attempt(ctx, method, target, header, payload, contentType, timeout, requestID)
		if lastErr == nil {
			span.SetTag("attempts", attempt)
			return result, nil
		}

		if !errors.Is(lastErr, ErrRateLimitEncountered) {
			break
		}
	}

	span.RecordError(lastErr)
	return nil, lastErr
}

// attempt runs a single HTTP exchange, through the limiter and breaker when
// they are configured.
func (c *Client) attempt(
	ctx context.Context,
	method, target string,
	header http.Header,
	payload []byte,
	contentType string,
	timeout time.Duration,
	requestID string,
) (any, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request %s %s: rate limiter: %w", method, target, err)
		}
	}

	c.logger.Debugf("request %s: %s %s", requestID, method, target)

	exchange := func() (any, error) {
		return c.exchange(ctx, method, target, header, payload, contentType, timeout, requestID)
	}

	var (
		result any
		err    error
	)
	if c.breaker != nil {
		result, err = c.breaker.Execute(exchange)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
	} else {
		result, err = exchange()
	}

	c.metrics.IncCounter("transport_requests_total", map[string]string{"method": method, "kind": outcome(err)})
	if err != nil {
		c.logger.Debugf("request %s: %s %s failed: %v", requestID, method, target, err)
	}
	return result, err
}

func (c *Client) exchange(
	ctx context.Context,
	method, target string,
	header http.Header,
	payload []byte,
	contentType string,
	timeout time.Duration,
	requestID string,
) (any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range c.header {
		req.Header[key] = append([]string(nil), values...)
	}
	for key, values := range header {
		req.Header[key] = append([]string(nil), values...)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.networkError(ctx, attemptCtx, method, target, timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.networkError(ctx, attemptCtx, method, target, timeout, err)
	}

	return classify(resp, body)
}

// networkError separates caller cancellation from per-attempt timeouts.
func (c *Client) networkError(ctx, attemptCtx context.Context, method, target string, timeout time.Duration, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("request %s %s canceled: %w", method, target, ctxErr)
	}

	var netErr net.Error
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{
			Kind:    KindRequestTimeout,
			Message: fmt.Sprintf("%s %s timed out after %s", method, target, timeout),
			Err:     err,
		}
	}

	return fmt.Errorf("request %s %s failed: %w", method, target, err)
}

func (c *Client) resolve(url string) string {
	if c.baseURL == "" || strings.Contains(url, "://") {
		return url
	}
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(url, "/")
}

// classify maps a response to its parsed body or a typed error.
func classify(resp *http.Response, body []byte) (any, error) {
	if resp.StatusCode >= 200 && resp.StatusCode <= 225 {
		return parseBody(body), nil
	}

	message := string(body)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	terr := &Error{
		Kind:       kindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Message:    message,
		Body:       parseBody(body),
		Header:     resp.Header.Clone(),
	}
	if terr.Kind == KindRateLimitEncountered {
		terr.RateLimit = parseRateLimit(resp.Header)
	}
	return nil, terr
}

func parseBody(body []byte) any {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}
	return parsed
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "", nil
	case string:
		return []byte(b), "", nil
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return payload, "application/json", nil
	}
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := KindOf(err); ok {
		return kind.String()
	}
	if errors.Is(err, ErrCircuitOpen) {
		return "circuit_open"
	}
	return "error"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
