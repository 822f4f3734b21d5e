package core

import "context"

// contextKey is unexported so only this package can create its keys.
type contextKey int

const (
	claimsKey contextKey = iota
)

// GetClaims retrieves the claims stored by SetClaims as a T. It returns
// ErrClaimsNotFound when nothing is stored and a ValidationError when the
// stored value is not a T.
//
//	claims, err := core.GetClaims[validator.Claims](ctx)
func GetClaims[T any](ctx context.Context) (T, error) {
	var zero T

	val := ctx.Value(claimsKey)
	if val == nil {
		return zero, ErrClaimsNotFound
	}

	claims, ok := val.(T)
	if !ok {
		return zero, NewValidationError(
			ErrorCodeClaimsNotFound,
			"claims type assertion failed",
			nil,
		)
	}

	return claims, nil
}

// SetClaims stores claims in the context after a successful check.
func SetClaims(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// HasClaims checks if claims exist in the context without retrieving them.
func HasClaims(ctx context.Context) bool {
	return ctx.Value(claimsKey) != nil
}
