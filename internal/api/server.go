// Package api is the local HTTP trigger surface. Clients post selections
// and apply the returned text themselves.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Spotas/Ai-rewrite/internal/api/auth"
	"github.com/Spotas/Ai-rewrite/internal/api/middleware"
	"github.com/Spotas/Ai-rewrite/internal/config"
	"github.com/Spotas/Ai-rewrite/internal/llm"
	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/ratelimit"
	"github.com/Spotas/Ai-rewrite/internal/rewrite"
	"github.com/Spotas/Ai-rewrite/internal/settings"
)

// Catalog is the mode and statistics storage the API manages.
type Catalog interface {
	settings.Source
	AddCustomMode(ctx context.Context, name, prompt string) (modes.Custom, error)
	UpdateCustomMode(ctx context.Context, key, name, prompt string) (modes.Custom, error)
	DeleteCustomMode(ctx context.Context, key string) error
	Summary(ctx context.Context) (settings.Stats, error)
	ResetStats(ctx context.Context) error
}

// Deps are the services behind the API. Limiter and Metrics are optional.
type Deps struct {
	Orchestrator  *rewrite.Orchestrator
	Catalog       Catalog
	Notifications *NotificationQueue
	Metrics       *llm.Metrics
	Limiter       *ratelimit.Limiter
}

// Server represents the API server
type Server struct {
	echo   *echo.Echo
	addr   string
	deps   Deps
	tokens *auth.TokenService
}

// DeferredInjector leaves text injection to the HTTP client, which receives
// the text in the response.
type DeferredInjector struct{}

func (DeferredInjector) Inject(context.Context, rewrite.Location, string) error { return nil }

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, addr string, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ev := log.Debug()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("HTTP request")
			return nil
		},
	}))
	e.Use(echomw.Recover())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	} else {
		e.Use(echomw.CORS())
	}

	server := &Server{
		echo: e,
		addr: addr,
		deps: deps,
	}
	if cfg.Secret != "" {
		server.tokens = auth.NewTokenService(cfg.Secret, cfg.TokenTTL)
	}

	server.setupRoutes(middleware.ThrottleConfig{RPS: cfg.ClientRPS, Burst: cfg.ClientBurst})

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes(throttle middleware.ThrottleConfig) {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	v1 := s.echo.Group("/api/v1")
	if s.tokens != nil {
		v1.Use(auth.RequireAuth(s.tokens))
	} else {
		log.Warn().Msg("server.secret is not set, the API accepts unauthenticated requests")
	}
	v1.Use(middleware.Throttle(throttle))

	v1.POST("/rewrite", s.rewrite)
	v1.POST("/undo", s.undo)
	v1.POST("/shortcut", s.shortcut)

	v1.GET("/modes", s.listModes)
	v1.POST("/modes", s.createMode)
	v1.PUT("/modes/:key", s.updateMode)
	v1.DELETE("/modes/:key", s.deleteMode)

	v1.GET("/stats", s.getStats)
	v1.DELETE("/stats", s.resetStats)
	v1.GET("/metrics", s.getMetrics)
	v1.GET("/notifications", s.getNotifications)
}

// ServeHTTP lets the server be mounted or tested without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("API server listening")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}
