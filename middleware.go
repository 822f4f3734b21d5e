package idtoken

import (
	"context"
	"fmt"
	"net/http"

	"github.com/auth0/go-idtoken/core"
	"github.com/auth0/go-idtoken/validator"
)

// Middleware validates the ID token of each request and stores the verified
// claims in the request context.
type Middleware struct {
	core                *core.Core
	errorHandler        ErrorHandler
	ginErrorHandler     GinErrorHandler
	tokenExtractor      TokenExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              core.Logger

	// Used during construction only.
	validator           *validator.Validator
	credentialsOptional bool
	metrics             core.Metrics
}

// ExclusionURLHandler reports whether a request skips validation.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a Middleware. WithValidator is required.
//
// Example:
//
//	middleware, err := idtoken.New(
//	    idtoken.WithValidator(v),
//	    idtoken.WithCredentialsOptional(false),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
//	http.Handle("/api", middleware.CheckJWT(handler))
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{
		validateOnOptions: true,
		errorHandler:      DefaultErrorHandler,
		ginErrorHandler:   DefaultGinErrorHandler,
		tokenExtractor:    AuthHeaderTokenExtractor,
		logger:            core.NopLogger{},
		metrics:           &core.NoopMetrics{},
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.validator == nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", ErrValidatorNil)
	}

	c, err := core.New(
		core.WithValidator(m.validator),
		core.WithCredentialsOptional(m.credentialsOptional),
		core.WithLogger(m.logger),
		core.WithMetrics(m.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}
	m.core = c

	return m, nil
}

// GetClaims retrieves claims from the context with type safety using generics.
//
// Example:
//
//	claims, err := idtoken.GetClaims[validator.Claims](r.Context())
//	if err != nil {
//	    http.Error(w, "failed to get claims", http.StatusInternalServerError)
//	    return
//	}
//	fmt.Println(claims.Subject())
func GetClaims[T any](ctx context.Context) (T, error) {
	return core.GetClaims[T](ctx)
}

// MustGetClaims retrieves claims from the context or panics.
// Use only when you are certain claims exist (e.g., after middleware has run).
func MustGetClaims[T any](ctx context.Context) T {
	claims, err := core.GetClaims[T](ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}

// skip reports whether r bypasses validation.
func (m *Middleware) skip(r *http.Request) bool {
	if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
		m.logger.Debugf("skipping ID token validation for excluded URL %s %s", r.Method, r.URL.Path)
		return true
	}
	if !m.validateOnOptions && r.Method == http.MethodOptions {
		m.logger.Debugf("skipping ID token validation for OPTIONS request")
		return true
	}
	return false
}

// check extracts and validates the token of r. Nil claims with a nil error
// mean no token was sent and credentials are optional.
func (m *Middleware) check(r *http.Request) (any, error) {
	token, err := m.tokenExtractor(r)
	if err != nil {
		// An extractor error means a token was sent in a malformed way,
		// not that it was missing.
		m.logger.Errorf("failed to extract token from %s %s: %v", r.Method, r.URL.Path, err)
		return nil, fmt.Errorf("error extracting token: %w", err)
	}

	claims, err := m.core.CheckToken(r.Context(), token)
	if err != nil {
		m.logger.Warnf("ID token validation failed for %s %s: %v", r.Method, r.URL.Path, err)
		return nil, err
	}
	return claims, nil
}

// CheckJWT wraps next so it only runs for requests with a valid ID token,
// or without one when credentials are optional.
func (m *Middleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.check(r)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}

		if claims == nil {
			m.logger.Debugf("no credentials provided, continuing without claims")
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.Clone(core.SetClaims(r.Context(), claims)))
	})
}
