package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	ts := NewTokenService("s3cret", time.Hour)

	token, expires, err := ts.Issue("browser")
	require.NoError(t, err)
	assert.False(t, expires.IsZero())

	claims, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "browser", claims.Client)
	assert.Equal(t, "client_browser", claims.Subject)
}

func TestTokenService_Expired(t *testing.T) {
	ts := NewTokenService("s3cret", time.Minute)
	base := time.Now()
	ts.now = func() time.Time { return base }

	token, _, err := ts.Issue("cli")
	require.NoError(t, err)

	ts.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = ts.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_NoExpiry(t *testing.T) {
	ts := NewTokenService("s3cret", 0)

	token, expires, err := ts.Issue("cli")
	require.NoError(t, err)
	assert.True(t, expires.IsZero())

	_, err = ts.Validate(token)
	assert.NoError(t, err)
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, _, err := NewTokenService("one", time.Hour).Issue("cli")
	require.NoError(t, err)

	_, err = NewTokenService("two", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	claims := &JWTClaims{Client: "x", RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService("s3cret", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_IssueWithoutSecret(t *testing.T) {
	_, _, err := NewTokenService("", time.Hour).Issue("cli")
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	ts := NewTokenService("s3cret", time.Hour)
	valid, _, err := ts.Issue("browser")
	require.NoError(t, err)

	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, ClientFromContext(c))
	}, RequireAuth(ts))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "browser", rec.Body.String())
			}
		})
	}
}
