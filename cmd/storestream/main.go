// Command storestream runs the SSE fan-out service: authenticated
// clients subscribe to a shop/branch room over /api/stream and receive
// entity-change events published to that room.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/storestream/internal/auth"
	"github.com/skillsenselab/storestream/internal/broadcast"
	"github.com/skillsenselab/storestream/internal/component"
	"github.com/skillsenselab/storestream/internal/config"
	"github.com/skillsenselab/storestream/internal/logging"
	"github.com/skillsenselab/storestream/internal/observability"
	"github.com/skillsenselab/storestream/internal/server"
	"github.com/skillsenselab/storestream/internal/stream"
	"github.com/skillsenselab/storestream/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storestream: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config.Config
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyDefaults()
	if cfg.Version == "" {
		cfg.Version = version.Get().Version
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logging.Init(cfg.Logging, cfg.Name)
	log := logging.WithComponent("main")
	log.Info("starting", map[string]interface{}{
		"version":     cfg.Version,
		"environment": cfg.Environment,
	})

	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		return err
	}

	registry := component.NewRegistry()

	obs := observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
	if err := registry.Register(obs); err != nil {
		return err
	}

	broadcastOpts := []broadcast.Option{
		broadcast.WithYieldEvery(cfg.Broadcast.YieldEvery),
	}
	var streamMetrics *observability.StreamMetrics
	if cfg.Observability.Enabled {
		m, err := observability.NewStreamMetrics(observability.Meter(cfg.Name))
		if err != nil {
			return fmt.Errorf("creating stream metrics: %w", err)
		}
		streamMetrics = m
		broadcastOpts = append(broadcastOpts, broadcast.WithMetrics(m))
	}

	bc := broadcast.NewComponent(broadcastOpts...)
	if err := registry.Register(bc); err != nil {
		return err
	}

	srv := server.New(cfg.Server)
	// Open streams block graceful shutdown until their sinks close.
	srv.OnShutdown(bc.Registry().ResetAll)
	handlerOpts := []stream.HandlerOption{}
	if streamMetrics != nil {
		handlerOpts = append(handlerOpts, stream.WithStreamMetrics(streamMetrics))
	}
	handler := stream.NewHandler(bc.Broadcaster(), handlerOpts...)
	handler.Register(srv.Engine(), auth.Middleware(authService))
	srv.RegisterDefaultEndpoints(registry, bc.Registry(), cfg.Name, cfg.Environment)

	if err := registry.Register(server.NewComponent(srv)); err != nil {
		return err
	}

	ctx := context.Background()
	if err := registry.StartAll(ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = registry.StopAll(stopCtx)
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info("shutting down", map[string]interface{}{"signal": s.String()})

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := registry.StopAll(stopCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
