// Package app assembles the rewrite core from configuration. Each trigger
// surface (HTTP, MCP, CLI) supplies its own injector and notifier.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/Spotas/Ai-rewrite/internal/ai"
	"github.com/Spotas/Ai-rewrite/internal/config"
	"github.com/Spotas/Ai-rewrite/internal/guard"
	"github.com/Spotas/Ai-rewrite/internal/llm"
	"github.com/Spotas/Ai-rewrite/internal/ratelimit"
	"github.com/Spotas/Ai-rewrite/internal/rewrite"
	"github.com/Spotas/Ai-rewrite/internal/store"
	"github.com/Spotas/Ai-rewrite/internal/undo"
)

// App is a fully wired rewrite core.
type App struct {
	Config       *config.Config
	Store        *store.Store
	Backend      ai.Backend
	Pipeline     *llm.Pipeline
	Limiter      *ratelimit.Limiter
	Orchestrator *rewrite.Orchestrator
}

// Surface is what a trigger surface plugs into the core.
type Surface struct {
	Injector rewrite.Injector
	Notifier rewrite.Notifier
}

// OpenStore opens the settings database named by cfg.
func OpenStore(cfg *config.Config) (*store.Store, error) {
	path := os.ExpandEnv(cfg.Storage.Path)
	st, err := store.Open(path, cfg.Settings())
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}
	return st, nil
}

// New builds the core. Close releases the store.
func New(ctx context.Context, cfg *config.Config, surface Surface) (*App, error) {
	st, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	backend, err := ai.NewModel(ctx, cfg.AI())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create model backend: %w", err)
	}

	var scanner guard.Scanner
	if cfg.Rewrite.SecretGuard {
		g, err := guard.NewGitleaks()
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to load secret rules: %w", err)
		}
		scanner = g
	}

	pipeline := llm.NewPipeline(backend, cfg.Pipeline())
	limiter := ratelimit.New(cfg.RateLimit, nil)

	orch := rewrite.New(rewrite.Deps{
		Settings: st,
		Rewriter: pipeline,
		Limiter:  limiter,
		Injector: surface.Injector,
		Notifier: surface.Notifier,
		Stats:    st,
		Undo:     undo.New(cfg.Rewrite.UndoCapacity),
		Scanner:  scanner,
	})

	a := &App{
		Config:       cfg,
		Store:        st,
		Backend:      backend,
		Pipeline:     pipeline,
		Limiter:      limiter,
		Orchestrator: orch,
	}

	log.Debug().
		Str("provider", cfg.AI().Provider).
		Bool("secret_guard", scanner != nil).
		Msg("Rewrite core ready")
	return a, nil
}

// Close waits for pending usage events and closes the store.
func (a *App) Close() error {
	a.Orchestrator.Wait()
	return a.Store.Close()
}
