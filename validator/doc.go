/*
Package validator verifies the signature of ID tokens.

A Validator is built around one Algorithm, HS256 with a shared secret or
RS256 with a remote key set:

	hs, err := validator.NewHS256(secret)

	rs, err := validator.NewRS256(
	    validator.JWKSURLForDomain("tenant.auth0.com"),
	    validator.DefaultCacheLifetime,
	    validator.WithTransport(client),
	)

	v, err := validator.New(rs)
	claims, err := v.Validate(ctx, token)

# Validation

Validate rejects empty input and anything that is not three dot-separated
segments. The header must decode to a JSON object whose alg equals the
algorithm's name. The signature is then verified and the payload returned as
Claims. exp and nbf are not checked; plug such checks in with
WithClaimsValidator.

Every rejection is an *InvalidIDTokenError matching ErrInvalidIDToken:

	ID token could not be decoded
	Signature algorithm of "HS512" is not supported. Expected the ID token to be signed with "RS256"
	Invalid ID token signature
	Could not find a public key for Key ID (kid) "abc"
	Could not fetch the JWK set

# RS256 key lookup

RS256 reads keys through a jwks.Cache. When the cached set does not contain
the token's kid and this instance has not fetched the set in the current
cache epoch, one forced refresh is made and the lookup retried once. Clearing
the cache starts a new epoch.

A failed refresh keeps serving the previous set; only a cold cache fails
with "Could not fetch the JWK set". Share the cache across processes with
WithStore(jwks.NewRedisStore(...)).
*/
package validator
