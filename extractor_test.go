package idtoken

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_AuthHeaderTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		header    string
		wantToken string
		wantError error
	}{
		{name: "no header"},
		{name: "bearer token", header: "Bearer i-am-a-token", wantToken: "i-am-a-token"},
		{name: "mixed case scheme", header: "BeArEr i-am-a-token", wantToken: "i-am-a-token"},
		{name: "extra spaces", header: "Bearer   i-am-a-token ", wantToken: "i-am-a-token"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantError: ErrAuthHeaderFormat},
		{name: "scheme only", header: "Bearer", wantError: ErrAuthHeaderFormat},
		{name: "too many parts", header: "Bearer a b", wantError: ErrAuthHeaderFormat},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if testCase.header != "" {
				request.Header.Set("Authorization", testCase.header)
			}

			token, err := AuthHeaderTokenExtractor(request)
			assert.ErrorIs(t, err, testCase.wantError)
			assert.Equal(t, testCase.wantToken, token)
		})
	}
}

func Test_CookieTokenExtractor(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	token, err := CookieTokenExtractor("id_token")(request)
	require.NoError(t, err)
	assert.Empty(t, token)

	request.AddCookie(&http.Cookie{Name: "id_token", Value: "cookie-token"})
	token, err = CookieTokenExtractor("id_token")(request)
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", token)
}

func Test_ParameterTokenExtractor(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/?id_token=query-token", nil)
	token, err := ParameterTokenExtractor("id_token")(request)
	require.NoError(t, err)
	assert.Equal(t, "query-token", token)
}

func Test_FormTokenExtractor(t *testing.T) {
	t.Run("it reads a posted form field", func(t *testing.T) {
		form := url.Values{"id_token": {"form-token"}, "state": {"xyz"}}
		request := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(form.Encode()))
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		token, err := FormTokenExtractor("id_token")(request)
		require.NoError(t, err)
		assert.Equal(t, "form-token", token)
	})

	t.Run("it ignores the query string", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/callback?id_token=query-token", nil)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		token, err := FormTokenExtractor("id_token")(request)
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("it ignores non-POST requests", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/callback?id_token=query-token", nil)

		token, err := FormTokenExtractor("id_token")(request)
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}

func Test_MultiTokenExtractor(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/?id_token=query-token", nil)
	request.AddCookie(&http.Cookie{Name: "id_token", Value: "cookie-token"})

	token, err := MultiTokenExtractor(
		AuthHeaderTokenExtractor,
		CookieTokenExtractor("id_token"),
		ParameterTokenExtractor("id_token"),
	)(request)
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", token)

	request.Header.Set("Authorization", "Basic abc")
	_, err = MultiTokenExtractor(AuthHeaderTokenExtractor, ParameterTokenExtractor("id_token"))(request)
	assert.ErrorIs(t, err, ErrAuthHeaderFormat)

	token, err = MultiTokenExtractor()(request)
	require.NoError(t, err)
	assert.Empty(t, token)
}
