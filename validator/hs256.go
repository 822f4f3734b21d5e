package validator

import "context"

// HS256 verifies tokens signed with HMAC-SHA256 and a shared secret.
type HS256 struct {
	secret []byte
}

// NewHS256 returns an HS256 algorithm for secret, which must not be empty.
func NewHS256(secret string) (*HS256, error) {
	if secret == "" {
		return nil, invalidParameter("HS256 secret cannot be empty")
	}
	return &HS256{secret: []byte(secret)}, nil
}

// Name returns "HS256".
func (a *HS256) Name() string {
	return "HS256"
}

func (a *HS256) verify(_ context.Context, token []byte, _ map[string]any) ([]byte, error) {
	return verifySignature(token, a.Name(), a.secret)
}
