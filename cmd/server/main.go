package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ecotraq/be-waste-dashboard/internal/client"
	"github.com/ecotraq/be-waste-dashboard/internal/config"
	"github.com/ecotraq/be-waste-dashboard/internal/handler"
	"github.com/ecotraq/be-waste-dashboard/internal/logger"
	"github.com/ecotraq/be-waste-dashboard/internal/retrieval"
	"github.com/ecotraq/be-waste-dashboard/internal/scoring"
	"github.com/ecotraq/be-waste-dashboard/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.ServiceName, cfg.Version, cfg.Environment, cfg.LogLevel)

	log.Info().
		Str("environment", cfg.Environment).
		Str("record_source", cfg.RecordSource).
		Msg("Starting Waste Dashboard Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the record source adapter
	var src client.RecordSource
	switch cfg.RecordSource {
	case "postgres":
		pg, err := client.NewPostgresSource(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to record store")
		}
		defer pg.Close()
		src = pg
		log.Info().Msg("Postgres record source connected")
	default:
		src = client.NewRESTSource(cfg.RecordSourceURL, cfg.RecordSourceToken)
		log.Info().Str("base_url", cfg.RecordSourceURL).Msg("REST record source configured")
	}

	// Optional alert publishing
	var alerts *client.AlertPublisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer nc.Close()
		alerts = client.NewAlertPublisher(nc, log)
		log.Info().Str("nats_url", cfg.NATSURL).Msg("Alert publishing enabled")
	}

	// Validate the scoring policy before serving anything with it
	policy := scoring.DefaultPolicy()
	if err := policy.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid scoring policy")
	}

	// Wire the retrieval core and services
	coordinator := retrieval.NewCoordinator(src, retrieval.DefaultRegistry(), log)
	dashboard := service.NewDashboardService(coordinator, log)
	compliance := service.NewComplianceService(coordinator, policy, log)
	weighings := service.NewWeighingService(src, alerts, log)

	httpHandler := handler.NewHTTPHandler(dashboard, compliance, weighings, log)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpHandler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
