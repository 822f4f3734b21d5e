package idtoken

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auth0/go-idtoken/core"
)

var (
	// ErrJWTMissing is returned when the request carries no ID token.
	ErrJWTMissing = core.ErrJWTMissing

	// ErrJWTInvalid is matched by errors for tokens that failed validation.
	ErrJWTInvalid = core.ErrJWTInvalid
)

// Option errors.
var (
	ErrValidatorNil       = errors.New("validator cannot be nil")
	ErrErrorHandlerNil    = errors.New("error handler cannot be nil")
	ErrTokenExtractorNil  = errors.New("token extractor cannot be nil")
	ErrExclusionURLsEmpty = errors.New("exclusion URLs cannot be empty")
	ErrLoggerNil          = errors.New("logger cannot be nil")
	ErrMetricsNil         = errors.New("metrics cannot be nil")
)

// ErrorHandler is called when the middleware rejects a request. err can be
// checked against ErrJWTMissing and ErrJWTInvalid. DefaultErrorHandler
// responds 400 for a missing token, 401 for an invalid one and 500 for
// anything else, such as a canceled key set fetch.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// GinErrorHandler is ErrorHandler for Gin.
type GinErrorHandler func(c *gin.Context, err error)

type errorResponse struct {
	status  int
	message string
}

func responseFor(err error) errorResponse {
	switch {
	case errors.Is(err, ErrJWTMissing):
		return errorResponse{http.StatusBadRequest, "ID token is missing."}
	case errors.Is(err, ErrJWTInvalid):
		return errorResponse{http.StatusUnauthorized, "ID token is invalid."}
	default:
		return errorResponse{http.StatusInternalServerError, "Something went wrong while checking the ID token."}
	}
}

// DefaultErrorHandler writes a JSON error body with the status described on
// ErrorHandler.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	resp := responseFor(err)

	w.Header().Set("Content-Type", "application/json")
	if resp.status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	w.WriteHeader(resp.status)
	_, _ = fmt.Fprintf(w, `{"message":%q}`, resp.message)
}

// DefaultGinErrorHandler aborts the Gin context with the same responses as
// DefaultErrorHandler.
func DefaultGinErrorHandler(c *gin.Context, err error) {
	resp := responseFor(err)
	if resp.status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	c.AbortWithStatusJSON(resp.status, gin.H{"message": resp.message})
}
