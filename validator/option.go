package validator

import (
	"time"

	"github.com/auth0/go-idtoken/core"
	"github.com/auth0/go-idtoken/jwks"
	"github.com/auth0/go-idtoken/transport"
)

// Option configures a Validator.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithClaimsValidator sets the check run on claims after the signature is
// verified. Its errors are returned as InvalidIDTokenError.
func WithClaimsValidator(cv ClaimsValidator) Option {
	return func(v *Validator) error {
		if cv == nil {
			return invalidParameter("claims validator cannot be nil")
		}
		v.claims = cv
		return nil
	}
}

// WithLogger sets the logger for validation outcomes.
func WithLogger(logger core.Logger) Option {
	return func(v *Validator) error {
		if logger == nil {
			return invalidParameter("logger cannot be nil")
		}
		v.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m core.Metrics) Option {
	return func(v *Validator) error {
		if m == nil {
			return invalidParameter("metrics cannot be nil")
		}
		v.metrics = m
		return nil
	}
}

// WithTracer sets the tracer.
func WithTracer(t core.Tracer) Option {
	return func(v *Validator) error {
		if t == nil {
			return invalidParameter("tracer cannot be nil")
		}
		v.tracer = t
		return nil
	}
}

// RS256Option configures an RS256 algorithm.
type RS256Option func(*rs256Config) error

// WithTransport sets the client used to fetch the key set. Without it a
// default transport.Client is created.
func WithTransport(client *transport.Client) RS256Option {
	return func(cfg *rs256Config) error {
		if client == nil {
			return invalidParameter("transport client cannot be nil")
		}
		cfg.client = client
		return nil
	}
}

// WithStore sets where the key set is cached. Caches of several processes
// can share a jwks.RedisStore.
func WithStore(store jwks.Store) RS256Option {
	return func(cfg *rs256Config) error {
		if store == nil {
			return invalidParameter("JWKS store cannot be nil")
		}
		cfg.cacheOpts = append(cfg.cacheOpts, jwks.WithStore(store))
		return nil
	}
}

// WithFetchTimeout sets the per-attempt timeout of key set requests.
func WithFetchTimeout(d time.Duration) RS256Option {
	return func(cfg *rs256Config) error {
		if d < 0 {
			return invalidParameter("fetch timeout cannot be negative")
		}
		cfg.cacheOpts = append(cfg.cacheOpts, jwks.WithFetchTimeout(d))
		return nil
	}
}

// WithCacheLogger sets the logger of the key set cache and of the default
// transport.
func WithCacheLogger(logger core.Logger) RS256Option {
	return func(cfg *rs256Config) error {
		if logger == nil {
			return invalidParameter("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithCacheMetrics sets the metrics sink of the key set cache.
func WithCacheMetrics(m core.Metrics) RS256Option {
	return func(cfg *rs256Config) error {
		if m == nil {
			return invalidParameter("metrics cannot be nil")
		}
		cfg.cacheOpts = append(cfg.cacheOpts, jwks.WithMetrics(m))
		return nil
	}
}

// WithCacheTracer sets the tracer of the key set cache.
func WithCacheTracer(t core.Tracer) RS256Option {
	return func(cfg *rs256Config) error {
		if t == nil {
			return invalidParameter("tracer cannot be nil")
		}
		cfg.cacheOpts = append(cfg.cacheOpts, jwks.WithTracer(t))
		return nil
	}
}
