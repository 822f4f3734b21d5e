package validator

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"

	"github.com/auth0/go-idtoken/core"
)

// Algorithm is a signing algorithm a Validator accepts. The set of
// implementations is closed: HS256 and RS256.
type Algorithm interface {
	// Name is the JOSE algorithm name tokens must declare in their header.
	Name() string

	// verify checks the signature of a compact token and returns its payload.
	verify(ctx context.Context, token []byte, header map[string]any) ([]byte, error)
}

// verifySignature checks token against key with the named algorithm.
// Expiration and not-before are not looked at.
func verifySignature(token []byte, name string, key any) ([]byte, error) {
	var alg jwa.SignatureAlgorithm
	if err := alg.Accept(name); err != nil {
		return nil, invalidIDToken(core.ErrorCodeInvalidAlgorithm, fmt.Sprintf(fmtAlgUnsupported, name), err)
	}

	// jws.Verify ignores the spare low bits of the last base64url character,
	// so a signature segment that differs only there would still verify.
	signature := token[bytes.LastIndexByte(token, '.')+1:]
	if _, err := base64.RawURLEncoding.Strict().DecodeString(string(signature)); err != nil {
		return nil, invalidIDToken(core.ErrorCodeInvalidSignature, msgSignature, err)
	}

	payload, err := jws.Verify(token, jws.WithKey(alg, key))
	if err != nil {
		return nil, invalidIDToken(core.ErrorCodeInvalidSignature, msgSignature, err)
	}
	return payload, nil
}
