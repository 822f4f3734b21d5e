package jwks

import (
	"errors"
	"time"

	"github.com/auth0/go-idtoken/core"
)

// Option configures a Cache.
type Option func(*Cache) error

// WithStore sets where entries are kept. Defaults to a private MemoryStore.
func WithStore(store Store) Option {
	return func(c *Cache) error {
		if store == nil {
			return errors.New("store cannot be nil")
		}
		c.store = store
		return nil
	}
}

// WithFetchTimeout sets the per-attempt timeout of key set requests.
// Zero keeps the transport's default.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) error {
		if d < 0 {
			return errors.New("fetch timeout cannot be negative")
		}
		c.timeout = d
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger core.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m core.Metrics) Option {
	return func(c *Cache) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		c.metrics = m
		return nil
	}
}

// WithTracer sets the tracer.
func WithTracer(t core.Tracer) Option {
	return func(c *Cache) error {
		if t == nil {
			return errors.New("tracer cannot be nil")
		}
		c.tracer = t
		return nil
	}
}
