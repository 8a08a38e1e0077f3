package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/vainnor/ensemble-predict/api"
	"github.com/vainnor/ensemble-predict/collector"
	"github.com/vainnor/ensemble-predict/config"
	"github.com/vainnor/ensemble-predict/events"
	"github.com/vainnor/ensemble-predict/logging"
	"github.com/vainnor/ensemble-predict/missions"
	"github.com/vainnor/ensemble-predict/observability"
	"github.com/vainnor/ensemble-predict/reconcile"
	"github.com/vainnor/ensemble-predict/render"
	"github.com/vainnor/ensemble-predict/services/simclient"
	"github.com/vainnor/ensemble-predict/session"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Configure(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if envErr != nil {
		log.Warn().Err(envErr).Msg("Error loading .env file")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid display timezone")
	}
	metrics, err := observability.New(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}
	registry, err := missions.NewRegistry(cfg.Missions)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid mission table")
	}

	sim := simclient.New(cfg.SimulatorURL, cfg.RequestTimeout)
	layer := render.NewLayer()
	hub := render.NewHub()
	defer hub.Close()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("Publishing sweep events")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close event publisher")
		}
	}()

	s := session.New(session.Config{
		Simulator:      sim,
		BaseURL:        sim.BaseURL(),
		Registry:       registry,
		Renderer:       render.Multi(layer, hub),
		Notifier:       hub,
		Publisher:      publisher,
		Metrics:        metrics,
		Location:       loc,
		RequestTimeout: cfg.RequestTimeout,
		ForecastStart:  cfg.ForecastStart,
		ForecastEnd:    cfg.ForecastEnd,
	})
	defer s.Wait()

	// Create collector
	c := collector.NewCollector(cfg.TelemetryURL, cfg.RequestTimeout, reconcile.New(cfg.HourOffset), s, metrics)

	// Set up API routes
	keys := api.NewKeyStore(cfg.MasterAPIKey)
	router := api.NewRouter(api.Deps{
		Session:   s,
		Collector: c,
		Layer:     layer,
		Hub:       hub,
		Keys:      keys,
		Limiter:   api.NewRateLimiter(100, 5*time.Minute, keys),
		Metrics:   metrics,
	})
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handlers.LoggingHandler(os.Stdout, cors(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the API server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TelemetryInterval > 0 && cfg.TelemetryURL != "" {
		go poll(ctx, c, cfg.TelemetryInterval)
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown")
	}
}

// poll reconciles the active profile against the telemetry feed on every
// tick until ctx is cancelled.
func poll(ctx context.Context, c *collector.Collector, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Starting telemetry collector")

	// Initial collection
	if _, err := c.FetchAndApply(ctx); err != nil {
		log.Error().Err(err).Msg("Error collecting telemetry")
	}

	// Continuous collection
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.FetchAndApply(ctx); err != nil {
				log.Error().Err(err).Msg("Error collecting telemetry")
			}
		}
	}
}
