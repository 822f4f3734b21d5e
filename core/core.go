package core

import (
	"context"
	"errors"
	"time"
)

// Validator validates a raw token and returns its claims.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (any, error)
}

// Core is the framework-agnostic token checking engine wrapped by the HTTP
// and Gin adapters.
type Core struct {
	validator           Validator
	credentialsOptional bool
	logger              Logger
	metrics             Metrics
}

// CheckToken validates a token string and returns the validated claims.
//
//   - If token is empty and credentialsOptional is true, returns (nil, nil)
//   - If token is empty and credentialsOptional is false, returns a
//     ValidationError matching ErrJWTMissing
//   - Otherwise, validates the token using the configured validator. Errors
//     carrying an ErrorCode method become a ValidationError matching
//     ErrJWTInvalid; any other error is returned as is.
func (c *Core) CheckToken(ctx context.Context, token string) (any, error) {
	if token == "" {
		if c.credentialsOptional {
			c.logger.Debugf("no token provided, but credentials are optional")
			return nil, nil
		}

		c.logger.Warnf("no token provided and credentials are required")
		c.metrics.IncCounter("idtoken_checks_total", map[string]string{"result": "missing"})
		return nil, NewValidationError(ErrorCodeTokenMissing, ErrJWTMissing.Error(), nil)
	}

	start := time.Now()
	claims, err := c.validator.ValidateToken(ctx, token)
	duration := time.Since(start)

	if err != nil {
		c.logger.Errorf("token validation failed after %s: %v", duration, err)
		c.metrics.IncCounter("idtoken_checks_total", map[string]string{"result": "invalid"})

		var coder errorCoder
		if errors.As(err, &coder) && coder.ErrorCode() != "" {
			return nil, NewValidationError(coder.ErrorCode(), ErrJWTInvalid.Error(), err)
		}
		return nil, err
	}

	c.logger.Debugf("token validated successfully in %s", duration)
	c.metrics.IncCounter("idtoken_checks_total", map[string]string{"result": "valid"})
	return claims, nil
}
