package oidc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auth0/go-idtoken/transport"
)

const tenantIssuer = "https://tenant1.auth0.com/"

// setupTestServer creates a test HTTP server that returns the specified response code and body.
func setupTestServer(t *testing.T, responseCode int, responseBody string, headers map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/.well-known/openid-configuration", r.URL.Path)
		for key, value := range headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(responseCode)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T, opts ...transport.Option) *transport.Client {
	t.Helper()

	client, err := transport.New(append([]transport.Option{transport.WithRetries(0)}, opts...)...)
	require.NoError(t, err)
	return client
}

func TestGetWellKnownEndpointsFromIssuerURL(t *testing.T) {
	jsonHeader := map[string]string{"Content-Type": "application/json"}

	testCases := []struct {
		name          string
		responseCode  int
		responseBody  string
		headers       map[string]string
		expectedError string
	}{
		{
			name:         "it reads the jwks_uri",
			responseCode: http.StatusOK,
			responseBody: `{"issuer":"https://tenant1.auth0.com/","jwks_uri":"https://tenant1.auth0.com/.well-known/jwks.json"}`,
			headers:      jsonHeader,
		},
		{
			name:          "it fails on 404",
			responseCode:  http.StatusNotFound,
			responseBody:  `{"error": "not found"}`,
			expectedError: "not found",
		},
		{
			name:          "it fails on 500",
			responseCode:  http.StatusInternalServerError,
			responseBody:  `Internal Server Error`,
			expectedError: "could not get well known endpoints",
		},
		{
			name:          "it fails on malformed JSON",
			responseCode:  http.StatusOK,
			responseBody:  `{"jwks_uri": "https://example.com/jwks"`,
			expectedError: "not a JSON object",
		},
		{
			name:          "it fails on an HTML page",
			responseCode:  http.StatusOK,
			responseBody:  `<html><body>Error</body></html>`,
			headers:       map[string]string{"Content-Type": "text/html"},
			expectedError: "not a JSON object",
		},
		{
			name:          "it fails on a JSON array",
			responseCode:  http.StatusOK,
			responseBody:  `[]`,
			headers:       jsonHeader,
			expectedError: "not a JSON object",
		},
		{
			name:          "it fails on a missing issuer",
			responseCode:  http.StatusOK,
			responseBody:  `{"jwks_uri":"https://tenant1.auth0.com/.well-known/jwks.json"}`,
			headers:       jsonHeader,
			expectedError: "missing required 'issuer' field",
		},
		{
			name:          "it fails on an empty issuer",
			responseCode:  http.StatusOK,
			responseBody:  `{"issuer":"","jwks_uri":"https://tenant1.auth0.com/.well-known/jwks.json"}`,
			headers:       jsonHeader,
			expectedError: "missing required 'issuer' field",
		},
		{
			name:          "it fails on an issuer mismatch",
			responseCode:  http.StatusOK,
			responseBody:  `{"issuer":"https://attacker.com/","jwks_uri":"https://attacker.com/.well-known/jwks.json"}`,
			headers:       jsonHeader,
			expectedError: "issuer mismatch",
		},
		{
			name:          "it fails on a missing jwks_uri",
			responseCode:  http.StatusOK,
			responseBody:  `{"issuer":"https://tenant1.auth0.com/"}`,
			headers:       jsonHeader,
			expectedError: "missing required 'jwks_uri' field",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := setupTestServer(t, testCase.responseCode, testCase.responseBody, testCase.headers)
			issuerURL, err := url.Parse(server.URL)
			require.NoError(t, err)

			endpoints, err := GetWellKnownEndpointsFromIssuerURL(context.Background(), newClient(t), *issuerURL, tenantIssuer)

			if testCase.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), testCase.expectedError)
				assert.Nil(t, endpoints)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tenantIssuer, endpoints.Issuer)
			assert.Equal(t, "https://tenant1.auth0.com/.well-known/jwks.json", endpoints.JWKSURI)
		})
	}
}

func TestGetWellKnownEndpoints_NotFoundIsTyped(t *testing.T) {
	server := setupTestServer(t, http.StatusNotFound, "", nil)
	issuerURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	_, err = GetWellKnownEndpointsFromIssuerURL(context.Background(), newClient(t), *issuerURL, tenantIssuer)
	assert.ErrorIs(t, err, transport.ErrNotFound)
}

func TestGetWellKnownEndpoints_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	issuerURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	client := newClient(t, transport.WithTimeout(50*time.Millisecond))
	_, err = GetWellKnownEndpointsFromIssuerURL(context.Background(), client, *issuerURL, tenantIssuer)
	assert.ErrorIs(t, err, transport.ErrRequestTimeout)
}

func TestGetWellKnownEndpoints_KeepsIssuerPath(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"issuer":"https://tenant1.auth0.com/","jwks_uri":"https://x/jwks"}`))
	}))
	defer server.Close()

	issuerURL, err := url.Parse(server.URL + "/tenants/one/")
	require.NoError(t, err)

	_, err = GetWellKnownEndpointsFromIssuerURL(context.Background(), newClient(t), *issuerURL, tenantIssuer)
	require.NoError(t, err)
	assert.Equal(t, "/tenants/one/.well-known/openid-configuration", requested)
}
