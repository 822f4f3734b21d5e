/*
Package transport is the resilient HTTP client every remote call in this
module goes through, including JWKS retrieval.

A Client issues one logical request, classifies the response into either a
parsed payload or a typed *Error, and retries only when the server answered
429 Too Many Requests. Retry timing comes from the retry package:

	client, err := transport.New(
	    transport.WithTimeout(10*time.Second),
	    transport.WithRetries(3),
	)
	if err != nil {
	    log.Fatal(err)
	}

	body, err := client.Get(ctx, "https://tenant.auth0.com/.well-known/jwks.json", nil)
	switch {
	case errors.Is(err, transport.ErrRateLimitEncountered):
	    var terr *transport.Error
	    errors.As(err, &terr)
	    log.Printf("rate limited until %s", terr.RateLimit.Reset)
	case errors.Is(err, transport.ErrRequestTimeout):
	    // not retried
	}

# Status mapping

	200-225  success (JSON body, raw text when the body is not JSON)
	400      ErrBadRequest
	401      ErrUnauthorized
	403      ErrAccessDenied
	404      ErrNotFound
	429      ErrRateLimitEncountered (retried)
	500      ErrServerError
	other    ErrUnsupported

Cancelling the caller's context aborts both the in-flight attempt and any
pending backoff; the returned error then wraps context.Canceled or
context.DeadlineExceeded rather than a transport kind.
*/
package transport
