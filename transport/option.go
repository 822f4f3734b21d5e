package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/auth0/go-idtoken/core"
	"github.com/auth0/go-idtoken/retry"
)

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("HTTP client cannot be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the default per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.timeout = d
		return nil
	}
}

// WithRetries sets how many times a rate-limited request is retried.
// Values above retry.MaxRetries are capped.
func WithRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("retries cannot be negative, got %d", n)
		}
		c.policy = retry.NewPolicy(n)
		return nil
	}
}

// WithBaseURL sets the prefix for relative request URLs.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		if baseURL == "" {
			return errors.New("base URL cannot be empty")
		}
		c.baseURL = baseURL
		return nil
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) error {
		if key == "" {
			return errors.New("header name cannot be empty")
		}
		c.header.Add(key, value)
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger core.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m core.Metrics) Option {
	return func(c *Client) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		c.metrics = m
		return nil
	}
}

// WithTracer sets the tracer.
func WithTracer(t core.Tracer) Option {
	return func(c *Client) error {
		if t == nil {
			return errors.New("tracer cannot be nil")
		}
		c.tracer = t
		return nil
	}
}

// WithRateLimiter throttles outgoing attempts to rps requests per second
// with the given burst. Attempts wait for a token; the wait honours the
// caller's context.
func WithRateLimiter(rps float64, burst int) Option {
	return func(c *Client) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rate limiter needs positive rps and burst, got %v/%d", rps, burst)
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithCircuitBreaker stops calling a failing server. The breaker opens once
// at least threshold attempts were seen in the current interval and half of
// them failed, and stays open for timeout. Only server errors, timeouts and
// network failures count as failures.
func WithCircuitBreaker(name string, threshold uint32, timeout time.Duration) Option {
	return func(c *Client) error {
		if threshold == 0 {
			return errors.New("circuit breaker threshold must be positive")
		}
		if timeout <= 0 {
			return errors.New("circuit breaker timeout must be positive")
		}

		settings := gobreaker.Settings{
			Name:        name,
			MaxRequests: threshold,
			Interval:    timeout,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= threshold && failureRatio >= 0.5
			},
			IsSuccessful: breakerSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warnf("circuit breaker %q changed state from %s to %s", name, from, to)
			},
		}
		c.breaker = gobreaker.NewCircuitBreaker(settings)
		return nil
	}
}

// breakerSuccess reports whether err should leave the breaker closed.
// Client errors and caller cancellation say nothing about server health.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind != KindServerError && kind != KindRequestTimeout
}
