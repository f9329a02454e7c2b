// Package auth guards the local HTTP server with HS256 bearer tokens.
package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ContextKey represents keys for context values
type ContextKey string

const ClientContextKey ContextKey = "client"

// RequireAuth rejects requests without a valid bearer token and stores the
// token's client name in the echo context.
func RequireAuth(tokenService *TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := tokenService.Validate(tokenParts[1])
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("Rejected bearer token")
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(string(ClientContextKey), claims.Client)
			return next(c)
		}
	}
}

// ClientFromContext returns the authenticated client name, if any.
func ClientFromContext(c echo.Context) string {
	client, _ := c.Get(string(ClientContextKey)).(string)
	return client
}
