package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "airewrite"

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService issues and validates the bearer tokens accepted by the
// local HTTP server.
type TokenService struct {
	secretKey []byte

	// TokenDuration is how long issued tokens stay valid. Zero issues
	// tokens without an expiry.
	TokenDuration time.Duration

	now func() time.Time
}

// JWTClaims represents the claims in our JWT tokens
type JWTClaims struct {
	Client string `json:"client"`
	jwt.RegisteredClaims
}

// NewTokenService creates a new token service
func NewTokenService(secretKey string, ttl time.Duration) *TokenService {
	return &TokenService{
		secretKey:     []byte(secretKey),
		TokenDuration: ttl,
		now:           time.Now,
	}
}

// Issue signs a token for the named client.
func (ts *TokenService) Issue(client string) (string, time.Time, error) {
	if len(ts.secretKey) == 0 {
		return "", time.Time{}, fmt.Errorf("server secret is not configured")
	}

	now := ts.now()
	claims := &JWTClaims{
		Client: client,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   issuer,
			Subject:  "client_" + client,
		},
	}
	var expiresAt time.Time
	if ts.TokenDuration > 0 {
		expiresAt = now.Add(ts.TokenDuration)
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses tokenString and returns its claims.
func (ts *TokenService) Validate(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(ts.now))
	if err != nil || !token.Valid {
		if err == nil {
			err = fmt.Errorf("invalid token")
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}
	return claims, nil
}
