package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/auth0/go-idtoken/core"
)

// Validator decodes ID tokens and verifies their signature with one
// Algorithm. It is safe for concurrent use.
type Validator struct {
	algorithm Algorithm
	claims    ClaimsValidator

	logger  core.Logger
	metrics core.Metrics
	tracer  core.Tracer
}

// New returns a Validator for algorithm.
func New(algorithm Algorithm, opts ...Option) (*Validator, error) {
	if algorithm == nil {
		return nil, invalidParameter("algorithm is required")
	}

	v := &Validator{
		algorithm: algorithm,
		claims:    acceptAllClaims{},
		logger:    core.NopLogger{},
		metrics:   &core.NoopMetrics{},
		tracer:    &core.NoopTracer{},
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Validate verifies token with algorithm using a one-off Validator.
func Validate(ctx context.Context, token string, algorithm Algorithm) (Claims, error) {
	v, err := New(algorithm)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, token)
}

// Algorithm returns the algorithm tokens must be signed with.
func (v *Validator) Algorithm() Algorithm {
	return v.algorithm
}

// Validate decodes token, checks that its header names the configured
// algorithm, verifies the signature and returns the payload claims.
// Failures are *InvalidIDTokenError, except cancellation of ctx while the
// key set is fetched.
func (v *Validator) Validate(ctx context.Context, token string) (Claims, error) {
	name := v.algorithm.Name()

	ctx, span := v.tracer.StartSpan(ctx, "idtoken.validate")
	defer span.Finish()
	span.SetTag("algorithm", name)

	claims, err := v.validate(ctx, token)
	if err != nil {
		span.RecordError(err)

		result := "invalid"
		if !errors.Is(err, ErrInvalidIDToken) {
			result = "error"
		}
		v.logger.Warnf("%s ID token rejected: %v", name, err)
		v.metrics.IncCounter("idtoken_validations_total", map[string]string{"algorithm": name, "result": result})
		return nil, err
	}

	v.logger.Debugf("%s ID token validated for subject %q", name, claims.Subject())
	v.metrics.IncCounter("idtoken_validations_total", map[string]string{"algorithm": name, "result": "valid"})
	return claims, nil
}

// ValidateToken is Validate returning the claims as any, for core.Validator.
func (v *Validator) ValidateToken(ctx context.Context, token string) (any, error) {
	claims, err := v.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (v *Validator) validate(ctx context.Context, token string) (Claims, error) {
	if err := validateTokenFormat(token); err != nil {
		return nil, invalidIDToken(core.ErrorCodeTokenMalformed, msgDecode, err)
	}

	segments := strings.SplitN(token, ".", 3)
	header, err := decodeSegment(segments[0])
	if err != nil {
		return nil, invalidIDToken(core.ErrorCodeTokenMalformed, msgDecode, err)
	}

	alg, _ := header["alg"].(string)
	if name := v.algorithm.Name(); alg != name {
		return nil, invalidIDToken(core.ErrorCodeInvalidAlgorithm, fmt.Sprintf(fmtAlgMismatch, alg, name), nil)
	}

	payload, err := v.algorithm.verify(ctx, []byte(token), header)
	if err != nil {
		return nil, err
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, invalidIDToken(core.ErrorCodeTokenMalformed, msgDecode, err)
	}
	if claims == nil {
		return nil, invalidIDToken(core.ErrorCodeTokenMalformed, msgDecode, errors.New("payload is not a JSON object"))
	}

	if err := v.claims.ValidateClaims(ctx, claims); err != nil {
		return nil, invalidIDToken(core.ErrorCodeInvalidClaims, msgClaimsRejected, err)
	}

	return claims, nil
}
