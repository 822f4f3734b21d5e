package idtoken

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/auth0/go-idtoken/core"
)

func Test_DefaultErrorHandler(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		wantStatusCode int
		wantBody       string
		wantChallenge  bool
	}{
		{
			name:           "missing token",
			err:            core.NewValidationError(core.ErrorCodeTokenMissing, ErrJWTMissing.Error(), nil),
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"message":"ID token is missing."}`,
		},
		{
			name:           "missing token sentinel",
			err:            ErrJWTMissing,
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"message":"ID token is missing."}`,
		},
		{
			name:           "invalid token",
			err:            core.NewValidationError(core.ErrorCodeInvalidSignature, ErrJWTInvalid.Error(), errors.New("Invalid ID token signature")),
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"ID token is invalid."}`,
			wantChallenge:  true,
		},
		{
			name:           "key not found",
			err:            core.NewValidationError(core.ErrorCodeJWKSKeyNotFound, ErrJWTInvalid.Error(), nil),
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"ID token is invalid."}`,
			wantChallenge:  true,
		},
		{
			name:           "canceled key set fetch",
			err:            fmt.Errorf("JWKS fetch canceled: %w", context.Canceled),
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"message":"Something went wrong while checking the ID token."}`,
		},
		{
			name:           "unexpected error",
			err:            errors.New("boom"),
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"message":"Something went wrong while checking the ID token."}`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			DefaultErrorHandler(recorder, httptest.NewRequest(http.MethodGet, "/", nil), testCase.err)

			assert.Equal(t, testCase.wantStatusCode, recorder.Code)
			assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
			assert.JSONEq(t, testCase.wantBody, recorder.Body.String())
			assert.Equal(t, testCase.wantChallenge, recorder.Header().Get("WWW-Authenticate") != "")
		})

		t.Run("gin "+testCase.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			DefaultGinErrorHandler(c, testCase.err)

			assert.Equal(t, testCase.wantStatusCode, recorder.Code)
			assert.JSONEq(t, testCase.wantBody, recorder.Body.String())
			assert.True(t, c.IsAborted())
		})
	}
}
