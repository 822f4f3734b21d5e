package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Fetcher performs the discovery request. *transport.Client satisfies it.
type Fetcher interface {
	Request(ctx context.Context, method, url string, header http.Header, body any, timeout time.Duration) (any, error)
}

// WellKnownEndpoints holds the discovery fields this module uses.
type WellKnownEndpoints struct {
	Issuer  string
	JWKSURI string
}

// GetWellKnownEndpointsFromIssuerURL reads the discovery document published
// under issuerURL. The document's issuer must equal expectedIssuer, so a
// discovery endpoint cannot point validation at another tenant's keys.
func GetWellKnownEndpointsFromIssuerURL(
	ctx context.Context,
	fetcher Fetcher,
	issuerURL url.URL,
	expectedIssuer string,
) (*WellKnownEndpoints, error) {
	issuerURL.Path = path.Join(issuerURL.Path, ".well-known/openid-configuration")
	target := issuerURL.String()

	body, err := fetcher.Request(ctx, http.MethodGet, target, nil, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("could not get well known endpoints from url %s: %w", target, err)
	}

	document, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("well known endpoints at %s are not a JSON object", target)
	}

	issuer, _ := document["issuer"].(string)
	if issuer == "" {
		return nil, errors.New("well known endpoints document is missing required 'issuer' field")
	}
	if issuer != expectedIssuer {
		return nil, fmt.Errorf("issuer mismatch: discovery document declares %q, expected %q", issuer, expectedIssuer)
	}

	jwksURI, _ := document["jwks_uri"].(string)
	if jwksURI == "" {
		return nil, errors.New("well known endpoints document is missing required 'jwks_uri' field")
	}

	return &WellKnownEndpoints{Issuer: issuer, JWKSURI: jwksURI}, nil
}
