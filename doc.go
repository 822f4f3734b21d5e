/*
Package idtoken provides net/http and Gin middleware that validate ID tokens
and expose their verified claims to handlers.

The middleware delegates to core.Core, which calls a *validator.Validator:

	client, _ := transport.New(transport.WithRetries(3))

	alg, err := validator.NewRS256(
	    validator.JWKSURLForDomain("tenant.auth0.com"),
	    validator.DefaultCacheLifetime,
	    validator.WithTransport(client),
	)
	if err != nil {
	    log.Fatal(err)
	}
	v, _ := validator.New(alg)

	middleware, err := idtoken.New(idtoken.WithValidator(v))
	if err != nil {
	    log.Fatal(err)
	}

	http.Handle("/profile", middleware.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	    claims := idtoken.MustGetClaims[validator.Claims](r.Context())
	    fmt.Fprintln(w, claims.Subject())
	})))

# Gin

	g, _ := idtoken.NewGin(idtoken.WithValidator(v))
	router.Use(g.CheckJWTGin())

# Token extraction

Tokens are read from the Authorization bearer header by default. Use
CookieTokenExtractor, ParameterTokenExtractor, FormTokenExtractor or
MultiTokenExtractor with WithTokenExtractor for other locations.

# Errors

DefaultErrorHandler responds 400 when no token was sent, 401 when the token
was rejected and 500 otherwise. Replace it with WithErrorHandler or
WithGinErrorHandler; errors are a *core.ValidationError matching
ErrJWTMissing or ErrJWTInvalid. Its Code names the failure and it wraps the
validator's *validator.InvalidIDTokenError.
*/
package idtoken
