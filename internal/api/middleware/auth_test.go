package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "thisisasecretkeythatis32charslong!!"

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService("short")
	assert.ErrorContains(t, err, "at least 32")
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	t.Parallel()

	tokens, err := NewTokenService(testSecret)
	require.NoError(t, err)

	signed, err := tokens.Issue("ops", time.Hour)
	require.NoError(t, err)

	subject, err := tokens.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "ops", subject)
}

func TestTokenService_Validate_Failures(t *testing.T) {
	t.Parallel()

	tokens, err := NewTokenService(testSecret)
	require.NoError(t, err)
	other, err := NewTokenService(strings.Repeat("x", 40))
	require.NoError(t, err)

	expired := &TokenService{
		signingKey: []byte(testSecret),
		timeFunc:   func() time.Time { return time.Now().Add(-time.Hour) },
		clockSkew:  0,
	}
	expiredToken, err := expired.Issue("ops", time.Minute)
	require.NoError(t, err)

	foreign, err := other.Issue("ops", time.Hour)
	require.NoError(t, err)

	noScope, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "expired", token: expiredToken, wantErr: ErrExpiredToken},
		{name: "wrong key", token: foreign, wantErr: ErrInvalidToken},
		{name: "garbage", token: "not-a-token", wantErr: ErrInvalidToken},
		{name: "missing scope", token: noScope, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Validate(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	tokens, err := NewTokenService(testSecret)
	require.NoError(t, err)
	valid, err := tokens.Issue("ops", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name            string
		authHeader      string
		expectedStatus  int
		expectedSubject string
		expectedError   string
	}{
		{
			name:            "valid token",
			authHeader:      "Bearer " + valid,
			expectedStatus:  http.StatusOK,
			expectedSubject: "ops",
		},
		{
			name:           "missing auth header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Authorization header required",
		},
		{
			name:           "invalid auth format",
			authHeader:     "InvalidFormat",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid authorization format",
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalid-token",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := NewAuthMiddleware(tokens)

			var capturedSubject string
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if subject, ok := GetSubject(r); ok {
					capturedSubject = subject
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("POST", "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Add("Authorization", tt.authHeader)
			}
			recorder := httptest.NewRecorder()

			middleware.Authenticate(nextHandler).ServeHTTP(recorder, req)

			assert.Equal(t, tt.expectedStatus, recorder.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedSubject, capturedSubject)
			} else {
				assert.Contains(t, recorder.Body.String(), tt.expectedError)
				assert.Empty(t, capturedSubject)
			}
		})
	}
}

func TestGetSubject(t *testing.T) {
	t.Parallel()

	t.Run("context with subject", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/", nil)
		require.NoError(t, err)
		req = req.WithContext(context.WithValue(req.Context(), SubjectKey, "ops"))

		subject, ok := GetSubject(req)
		assert.True(t, ok)
		assert.Equal(t, "ops", subject)
	})

	t.Run("context without subject", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/", nil)
		require.NoError(t, err)

		subject, ok := GetSubject(req)
		assert.False(t, ok)
		assert.Empty(t, subject)
	})
}
