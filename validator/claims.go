package validator

import "context"

// Claims is the verified token payload, decoded as JSON. Numbers are float64.
type Claims map[string]any

// Issuer returns the iss claim, or "" when it is absent or not a string.
func (c Claims) Issuer() string {
	return c.str("iss")
}

// Subject returns the sub claim.
func (c Claims) Subject() string {
	return c.str("sub")
}

// Audience returns the aud claim, which may be a single string or an array.
func (c Claims) Audience() []string {
	switch aud := c["aud"].(type) {
	case string:
		return []string{aud}
	case []any:
		audience := make([]string, 0, len(aud))
		for _, v := range aud {
			if s, ok := v.(string); ok {
				audience = append(audience, s)
			}
		}
		return audience
	default:
		return nil
	}
}

func (c Claims) str(name string) string {
	s, _ := c[name].(string)
	return s
}

// ClaimsValidator checks claim contents after the signature is verified.
// The default accepts everything; exp, nbf, iss and aud checks belong here.
type ClaimsValidator interface {
	ValidateClaims(ctx context.Context, claims Claims) error
}

// ClaimsValidatorFunc adapts a function to ClaimsValidator.
type ClaimsValidatorFunc func(ctx context.Context, claims Claims) error

// ValidateClaims calls f.
func (f ClaimsValidatorFunc) ValidateClaims(ctx context.Context, claims Claims) error {
	return f(ctx, claims)
}

type acceptAllClaims struct{}

func (acceptAllClaims) ValidateClaims(context.Context, Claims) error { return nil }
