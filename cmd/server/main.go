package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"relayr/internal/api"
	"relayr/internal/api/handlers"
	"relayr/internal/api/middleware"
	"relayr/internal/engine/apikeys"
	"relayr/internal/engine/ratelimit"
	"relayr/internal/engine/webhooks"
	"relayr/internal/pkg/alerts"
	"relayr/internal/pkg/logger"
	"relayr/internal/platform/auth"
	"relayr/internal/platform/config"
	"relayr/internal/platform/database"
	"relayr/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	// Registry
	webhookRepo := repositories.NewWebhookRepository(db)
	apiKeyRepo := repositories.NewAPIKeyRepository(db)

	// Delivery engine
	reporter := alerts.NewLogReporter()
	resolver := webhooks.NewSubscriberResolver(webhookRepo)
	deliverer := webhooks.NewDeliverer(nil)
	tracker := webhooks.NewFailureTracker(webhookRepo, reporter)
	dispatcher := webhooks.NewDispatcher(resolver, deliverer, tracker, cfg.Webhooks.DispatchInterval)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Administration
	webhookAdmin := webhooks.NewAdmin(webhookRepo, webhooks.Defaults{
		TimeoutSeconds: cfg.Webhooks.DefaultTimeoutSeconds,
		MaxRetries:     cfg.Webhooks.DefaultMaxRetries,
	})
	keyService := apikeys.NewService(apiKeyRepo, ratelimit.NewLimiter(), apikeys.Defaults{
		RequestsPerMinute: cfg.RateLimit.DefaultPerMinute,
		RequestsPerHour:   cfg.RateLimit.DefaultPerHour,
		RequestsPerDay:    cfg.RateLimit.DefaultPerDay,
	})

	tokenSvc := auth.NewTokenService(cfg.JWT)

	router := api.NewRouter(&api.Dependencies{
		WebhookHandler:   handlers.NewWebhookHandler(webhookAdmin, deliverer),
		APIKeyHandler:    handlers.NewAPIKeyHandler(keyService),
		HealthHandler:    handlers.NewHealthHandler(db),
		AuthMiddleware:   middleware.NewAuthMiddleware(tokenSvc),
		APIKeyMiddleware: middleware.NewAPIKeyMiddleware(keyService),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	dispatcher.Stop()
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
