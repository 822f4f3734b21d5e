/*
Package oidc implements the part of OpenID Connect Discovery needed to find a
tenant's key set.

The discovery document lives at a well-known path under the issuer:

	https://issuer.example.com/.well-known/openid-configuration

GetWellKnownEndpointsFromIssuerURL fetches it through a Fetcher, normally a
*transport.Client, so discovery gets the same retry and error mapping as
key set fetches:

	client, _ := transport.New()
	issuerURL, _ := url.Parse("https://auth.example.com/")

	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, *issuerURL, "https://auth.example.com/")
	if err != nil {
	    // transport errors, non-object bodies, missing fields, issuer mismatch
	}
	jwksURI := endpoints.JWKSURI

See https://openid.net/specs/openid-connect-discovery-1_0.html.
*/
package oidc
