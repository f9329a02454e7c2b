package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/Spotas/Ai-rewrite/internal/llm"
	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/ratelimit"
	"github.com/Spotas/Ai-rewrite/internal/rewrite"
	"github.com/Spotas/Ai-rewrite/internal/settings"
)

type shortcutRequest struct {
	Command  string           `json:"command"`
	Text     string           `json:"text"`
	Location rewrite.Location `json:"location"`
}

type undoRequest struct {
	Location rewrite.Location `json:"location"`
}

type modeRequest struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

type statsResponse struct {
	settings.Stats
	FavoriteMode string `json:"favoriteMode,omitempty"`
}

type metricsResponse struct {
	Pipeline      *llm.MetricsSnapshot   `json:"pipeline,omitempty"`
	BurstWindow   *ratelimit.WindowState `json:"burstWindow,omitempty"`
	RequestWindow *ratelimit.WindowState `json:"requestWindow,omitempty"`
}

func (s *Server) rewrite(c echo.Context) error {
	var t rewrite.Trigger
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return s.outcome(c, s.deps.Orchestrator.HandleTrigger(c.Request().Context(), t))
}

func (s *Server) undo(c echo.Context) error {
	var req undoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return s.outcome(c, s.deps.Orchestrator.HandleUndo(c.Request().Context(), req.Location))
}

func (s *Server) shortcut(c echo.Context) error {
	var req shortcutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	out := s.deps.Orchestrator.HandleShortcut(c.Request().Context(), req.Command, req.Text, req.Location)
	return s.outcome(c, out)
}

// outcome writes o with a status code matching its Status.
func (s *Server) outcome(c echo.Context, o rewrite.Outcome) error {
	code := http.StatusOK
	switch o.Status {
	case rewrite.StatusValidation:
		code = http.StatusUnprocessableEntity
	case rewrite.StatusUnknownMode:
		code = http.StatusBadRequest
	case rewrite.StatusRateLimited:
		code = http.StatusTooManyRequests
	case rewrite.StatusBusy:
		code = http.StatusConflict
	case rewrite.StatusFailed:
		code = http.StatusBadGateway
	}
	return c.JSON(code, o)
}

func (s *Server) listModes(c echo.Context) error {
	snap, err := s.deps.Catalog.Snapshot(c.Request().Context())
	if err != nil {
		return s.internal(err)
	}
	snap = snap.Normalize()
	return c.JSON(http.StatusOK, modes.List(snap.CustomModes, snap.EnabledModes))
}

func (s *Server) createMode(c echo.Context) error {
	var req modeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	created, err := s.deps.Catalog.AddCustomMode(c.Request().Context(), req.Name, req.Prompt)
	if err != nil {
		return modeError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) updateMode(c echo.Context) error {
	var req modeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	updated, err := s.deps.Catalog.UpdateCustomMode(c.Request().Context(), c.Param("key"), req.Name, req.Prompt)
	if err != nil {
		return modeError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteMode(c echo.Context) error {
	if err := s.deps.Catalog.DeleteCustomMode(c.Request().Context(), c.Param("key")); err != nil {
		return modeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func modeError(err error) error {
	switch {
	case errors.Is(err, modes.ErrNameRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, modes.ErrModeExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, modes.ErrModeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	log.Error().Err(err).Msg("Custom mode operation failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save custom mode")
}

func (s *Server) getStats(c echo.Context) error {
	stats, err := s.deps.Catalog.Summary(c.Request().Context())
	if err != nil {
		return s.internal(err)
	}
	return c.JSON(http.StatusOK, statsResponse{Stats: stats, FavoriteMode: stats.FavoriteMode()})
}

func (s *Server) resetStats(c echo.Context) error {
	if err := s.deps.Catalog.ResetStats(c.Request().Context()); err != nil {
		return s.internal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getMetrics(c echo.Context) error {
	var resp metricsResponse
	if s.deps.Metrics != nil {
		snap := s.deps.Metrics.Snapshot()
		resp.Pipeline = &snap
	}
	if s.deps.Limiter != nil {
		burst, sustained := s.deps.Limiter.Snapshot()
		resp.BurstWindow, resp.RequestWindow = &burst, &sustained
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) getNotifications(c echo.Context) error {
	tab := c.QueryParam("tab")
	if tab == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tab query parameter is required")
	}
	return c.JSON(http.StatusOK, s.deps.Notifications.Drain(tab))
}

func (s *Server) internal(err error) error {
	log.Error().Err(err).Msg("API request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal error")
}
