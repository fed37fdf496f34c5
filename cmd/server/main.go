package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rx-logistics/internal/config"
	"rx-logistics/internal/infrastructure/database/postgres"
	"rx-logistics/internal/infrastructure/notification"
	"rx-logistics/internal/infrastructure/storage"
	"rx-logistics/internal/logger"
	"rx-logistics/internal/render"
	"rx-logistics/internal/routes"
	"rx-logistics/internal/scheduler"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}
	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT secret is missing. Please set JWT_SECRET environment variable.")
	}
	if !cfg.Storage.Enabled() {
		logger.Fatal("Photo storage is not configured. Please set S3_ENDPOINT or S3_ACCESS_KEY environment variables.")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStartup()

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := db.Migrate(startupCtx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	photos, err := storage.NewS3PhotoStore(startupCtx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to configure photo storage", zap.Error(err))
	}

	renderer := render.New(cfg.App.Name, cfg.App.Location())
	dispatcher := notification.NewDispatcher(newMailer(cfg), newPublisher(cfg), renderer, notification.DispatcherConfig{
		Topic:      cfg.MQTT.Topic,
		TripLogTo:  cfg.Notify.TripLogRecipients,
		TripLogCC:  cfg.Notify.TripLogCC,
		FeedbackTo: cfg.Feedback.Recipients,
	})

	services := routes.NewServices(cfg, db, renderer, photos, dispatcher)

	jobs := scheduler.New()
	if err := jobs.AddJob(services.Users.TokenCleanupJob()); err != nil {
		logger.Fatal("Failed to schedule token cleanup", zap.Error(err))
	}
	jobs.Start()

	router := routes.SetupRoutes(cfg, db, services)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:    addr,
		Handler: router,
		// photo uploads from phones on slow links
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	jobs.Stop()
	services.TripLogs.Wait()
	services.Feedback.Wait()
	dispatcher.Close()

	logger.Info("Server exited properly")
}

func newMailer(cfg *config.Config) notification.Mailer {
	if !cfg.SMTP.Enabled() {
		logger.Warn("SMTP is not configured, emails will not be sent")
		return notification.NoopMailer{}
	}

	mailer, err := notification.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		logger.Error("Failed to configure SMTP, emails will not be sent", zap.Error(err))
		return notification.NoopMailer{}
	}
	return mailer
}

func newPublisher(cfg *config.Config) notification.EventPublisher {
	if !cfg.MQTT.Enabled() {
		return notification.NoopPublisher{}
	}

	publisher, err := notification.NewMQTTPublisher(cfg.MQTT)
	if err != nil {
		logger.Error("Failed to connect to MQTT broker, events will not be published", zap.Error(err))
		return notification.NoopPublisher{}
	}
	return publisher
}
