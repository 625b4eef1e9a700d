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

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/regen-tracker/internal/adapters/cache"
	"github.com/zatekoja/regen-tracker/internal/adapters/database"
	"github.com/zatekoja/regen-tracker/internal/adapters/events"
	"github.com/zatekoja/regen-tracker/internal/api/handlers"
	"github.com/zatekoja/regen-tracker/internal/api/middleware"
	"github.com/zatekoja/regen-tracker/internal/api/routes"
	"github.com/zatekoja/regen-tracker/internal/application/services"
	"github.com/zatekoja/regen-tracker/internal/domain/providers"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/domain/waste"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/auth"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/clients/redis"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/observability"
	"github.com/zatekoja/regen-tracker/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env, cfg.App.LogLevel)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if err := database.Migrate(ctx, pgClient); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	// Redis is optional: without it there is no caching and no live stream
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; running without cache and event stream")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	// Initialize adapters
	userAdapter := database.NewUserAdapter(pgClient)
	wasteLogAdapter := database.NewWasteLogAdapter(pgClient)
	ledgerAdapter := database.NewLedgerAdapter(pgClient)

	var facilityAdapter repositories.FacilityRepository = database.NewFacilityAdapter(pgClient)
	if cacheProvider != nil {
		facilityAdapter = database.NewCachedFacilityAdapter(facilityAdapter, cacheProvider)
	}

	// Initialize services
	tokens := auth.NewTokenManager(cfg.Auth)
	validator := waste.NewValidator(time.Now, cfg.App.Location())

	authService := services.NewAuthService(userAdapter, tokens)
	profileService := services.NewProfileService(userAdapter)
	wasteLogService := services.NewWasteLogService(wasteLogAdapter, ledgerAdapter, eventBus, validator, metrics)
	facilityService := services.NewFacilityService(facilityAdapter, eventBus)
	leaderboardService := services.NewLeaderboardService(userAdapter, cacheProvider, metrics)
	dashboardService := services.NewDashboardService(userAdapter, wasteLogAdapter, facilityAdapter)
	reconciliationService := services.NewReconciliationService(userAdapter, ledgerAdapter, eventBus, metrics)

	if cfg.Reconcile.Enabled {
		if err := reconciliationService.Start(cfg.Reconcile.Schedule); err != nil {
			log.Fatal().Err(err).Msg("failed to start reconciliation scheduler")
		}
		defer reconciliationService.Stop()
	}

	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
			cacheInvalidationService = nil
		}

		warmingService := services.NewCacheWarmingService(facilityAdapter, leaderboardService)
		go warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
	}

	// Initialize handlers
	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, profileService),
		WasteLog:  handlers.NewWasteLogHandler(wasteLogService),
		Facility:  handlers.NewFacilityHandler(facilityService),
		Community: handlers.NewCommunityHandler(leaderboardService, dashboardService),
	}
	if eventBus != nil {
		h.SSE = handlers.NewSSEHandler(eventBus, profileService)
	}

	opts := routes.Options{
		Authenticator:  authService,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        metrics,
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		opts.AuthLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		defer opts.AuthLimiter.Stop()
	}
	if cacheProvider != nil {
		opts.CacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	handler := routes.NewRouter(h, opts).SetupRoutes()

	// Create HTTP server. No write timeout: the SSE stream is long-lived.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
