/*
Package core holds the framework-agnostic part of ID token checking and the
logging, metrics and tracing abstractions shared by every other package in
this module.

Core wraps a Validator with the policy for requests that carry no token:

	c, err := core.New(
	    core.WithValidator(v),
	    core.WithCredentialsOptional(false),
	)
	if err != nil {
	    log.Fatal(err)
	}

	claims, err := c.CheckToken(ctx, token)
	switch {
	case errors.Is(err, core.ErrJWTMissing):
	    // no token and credentials are required
	case err != nil:
	    // the validator rejected the token
	}

The HTTP and Gin adapters store the result with SetClaims; handlers read it
back with GetClaims:

	claims, err := core.GetClaims[validator.Claims](ctx)

# Logging

Logger is a printf-style interface. Adapters are provided for logrus, zap
and zerolog, and NopLogger discards everything:

	logger := core.NewLogrusLogger(logrus.StandardLogger())
	logger := core.NewZapLogger(zapLogger.Sugar())
	logger := core.NewZerologLogger(zerolog.New(os.Stderr))

# Metrics and tracing

Metrics is implemented by PrometheusMetrics, which registers vectors lazily
on the given registerer, and by NoopMetrics. Tracer is implemented by
OpenTelemetryTracer and NoopTracer.

Metrics emitted by Core:

	idtoken_checks_total{result="valid|invalid|missing"}
*/
package core
