// Package app wires config into the running pieces shared by the CLI and
// the server: the leg cache, the mapping client and the planner.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/roadtour/internal/acquire"
	"github.com/katalvlaran/roadtour/internal/config"
	"github.com/katalvlaran/roadtour/internal/infra/health"
	"github.com/katalvlaran/roadtour/internal/planner"
	"github.com/katalvlaran/roadtour/internal/store"
)

// readinessTimeout bounds each dependency check behind /readyz.
const readinessTimeout = 2 * time.Second

// App owns the resources opened by New.
type App struct {
	Config  config.Config
	Store   *store.Store // nil when the cache is disabled
	Client  *acquire.Client
	Planner *planner.Planner
	// Probe reports readiness; the leg cache is registered as "store".
	Probe *health.Probe
}

// New opens the cache (when enabled) and builds the client and planner.
// Close releases what New opened.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	opts, err := acquire.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Probe: health.New(readinessTimeout)}

	var cache acquire.Cache
	if cfg.Cache.Enabled {
		a.Store, err = store.Open(ctx, cfg.Cache.Driver, cfg.Cache.DSN, cfg.CacheTTL())
		if err != nil {
			return nil, fmt.Errorf("open leg cache: %w", err)
		}
		cache = a.Store
		a.Probe.Register("store", a.Store.Ping)
		logger.Info().Str("driver", cfg.Cache.Driver).Dur("ttl", cfg.CacheTTL()).Msg("leg cache ready")
	}

	a.Client = acquire.New(opts, nil, cache, logger)
	a.Planner, err = planner.New(cfg, a.Client, a.Client, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

// Close closes the cache store, if any.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}

	return a.Store.Close()
}
