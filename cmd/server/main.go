// Package main wires the Lume backend: database, adapters, services,
// the lifecycle scheduler and the HTTP matching API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"lumebackend/config"
	_ "lumebackend/docs"
	"lumebackend/internal/adapters/auth"
	"lumebackend/internal/adapters/email"
	"lumebackend/internal/adapters/push"
	deliveryhttp "lumebackend/internal/delivery/http"
	"lumebackend/internal/delivery/http/controllers"
	"lumebackend/internal/delivery/http/middleware"
	"lumebackend/internal/repository/postgres"
	"lumebackend/internal/services"
)

const (
	serviceTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

// @title Lume Backend API
// @version 1.0
// @description Matching API of the Lume event-coordination backend.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	personRepo := postgres.NewPersonRepository(db)
	badgeRepo := postgres.NewBadgeRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.SESRegion,
			AccessKeyID:     cfg.Email.SESAccessKeyID,
			SecretAccessKey: cfg.Email.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("Failed to configure mailer", "error", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	pushSender := push.NewHTTPSender(&http.Client{Timeout: serviceTimeout}, cfg.PushGatewayURL)
	dispatcher := services.NewNotificationDispatcher(pushSender, emailService, cfg.PushAppName, logger)

	badgeService := services.NewBadgeService(badgeRepo, eventRepo, logger)
	lifecycle := services.NewLifecycleService(eventRepo, dispatcher, badgeService, cfg.PrelaunchBorder, serviceTimeout, logger)
	matching := services.NewMatchingService(personRepo, eventRepo, serviceTimeout)

	scheduler := services.NewScheduler(lifecycle, cfg.CycleInterval, logger)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	matchingController := controllers.NewMatchingController(logger, matching)

	mux := deliveryhttp.NewRouter(matchingController, verifier, logger)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
