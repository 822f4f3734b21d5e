package idtoken

import (
	"net/http"

	"github.com/auth0/go-idtoken/core"
	"github.com/auth0/go-idtoken/validator"
)

// Option configures a Middleware or GinMiddleware.
// Returns error for validation failures.
type Option func(*Middleware) error

// WithValidator sets the validator used to check tokens (REQUIRED).
//
// Example:
//
//	alg, _ := validator.NewRS256(validator.JWKSURLForDomain("tenant.auth0.com"), validator.DefaultCacheLifetime)
//	v, _ := validator.New(alg)
//
//	middleware, err := idtoken.New(idtoken.WithValidator(v))
func WithValidator(v *validator.Validator) Option {
	return func(m *Middleware) error {
		if v == nil {
			return ErrValidatorNil
		}
		m.validator = v
		return nil
	}
}

// WithCredentialsOptional sets whether requests without a token pass
// through without claims.
//
// Default: false (credentials required)
func WithCredentialsOptional(value bool) Option {
	return func(m *Middleware) error {
		m.credentialsOptional = value
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests are validated.
//
// Default: true
func WithValidateOnOptions(value bool) Option {
	return func(m *Middleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the net/http error handler.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Middleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithGinErrorHandler sets the Gin error handler.
//
// Default: DefaultGinErrorHandler
func WithGinErrorHandler(h GinErrorHandler) Option {
	return func(m *Middleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.ginErrorHandler = h
		return nil
	}
}

// WithTokenExtractor sets the function to extract the token from the request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *Middleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithExclusionURLs skips validation for requests whose full URL or path
// equals one of exclusions.
func WithExclusionURLs(exclusions []string) Option {
	return func(m *Middleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionURLsEmpty
		}

		excluded := make(map[string]struct{}, len(exclusions))
		for _, exclusion := range exclusions {
			excluded[exclusion] = struct{}{}
		}

		m.exclusionURLHandler = func(r *http.Request) bool {
			if _, ok := excluded[r.URL.Path]; ok {
				return true
			}
			_, ok := excluded[r.URL.String()]
			return ok
		}
		return nil
	}
}

// WithLogger sets the logger used by the middleware and its core.
func WithLogger(logger core.Logger) Option {
	return func(m *Middleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink of the core.
func WithMetrics(metrics core.Metrics) Option {
	return func(m *Middleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}
