package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/katalvlaran/roadtour/internal/api"
	"github.com/katalvlaran/roadtour/internal/app"
	"github.com/katalvlaran/roadtour/internal/config"
	"github.com/katalvlaran/roadtour/internal/infra/log"
	"github.com/katalvlaran/roadtour/internal/infra/metrics"
	"github.com/katalvlaran/roadtour/internal/render"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default $ROADTOUR_CONFIG)")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := log.New(os.Stderr, "info", false)
		boot.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	logger := log.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("close leg cache")
		}
	}()
	if cfg.Maps.APIKey == "" {
		logger.Warn().Msg("no mapping service API key; tour requests will fail")
	}

	registry := metrics.Init(logger)
	s := api.NewServer(a.Planner, a.Probe, render.MapOptionsFromConfig(cfg), registry, logger)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       cfg.IdleTimeout(),
	}
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	a.Probe.SetReady(true)
	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("metric", cfg.Maps.Metric).
		Bool("cache", cfg.Cache.Enabled).
		Msg("roadtour server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err = <-errCh:
		logger.Error().Err(err).Msg("http server error")
	}

	a.Probe.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("shutdown complete")
}
