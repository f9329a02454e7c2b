// Package middleware holds echo middleware for the local HTTP server.
package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Spotas/Ai-rewrite/internal/api/auth"
)

// ThrottleConfig limits how fast a single client may call the API. It sits
// in front of the rewrite rate limiter and only protects the server.
type ThrottleConfig struct {
	RPS       float64
	Burst     int
	ExpiresIn time.Duration
}

// Throttle returns a per-client token bucket limiter. Clients are keyed by
// their token's client name, falling back to the remote address. A
// non-positive RPS disables throttling.
func Throttle(cfg ThrottleConfig) echo.MiddlewareFunc {
	if cfg.RPS <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RPS) + 1
	}
	if cfg.ExpiresIn <= 0 {
		cfg.ExpiresIn = 3 * time.Minute
	}

	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RPS),
		Burst:     cfg.Burst,
		ExpiresIn: cfg.ExpiresIn,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if client := auth.ClientFromContext(c); client != "" {
				return "client:" + client, nil
			}
			return "ip:" + c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "Unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			log.Warn().Str("client", identifier).Str("path", c.Path()).Msg("Client throttled")
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
		},
	})
}
