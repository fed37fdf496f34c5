package routes

import (
	"context"
	"net/http"
	"time"

	"rx-logistics/internal/config"
	"rx-logistics/internal/delivery/http/handler"
	"rx-logistics/internal/infrastructure/database/postgres"
	"rx-logistics/internal/logger"
	"rx-logistics/internal/middleware"
	"rx-logistics/internal/render"
	"rx-logistics/internal/usecase/contact"
	"rx-logistics/internal/usecase/feedback"
	"rx-logistics/internal/usecase/triplog"
	"rx-logistics/internal/usecase/user"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Notifier receives both submission and feedback notifications.
type Notifier interface {
	triplog.Notifier
	feedback.Notifier
}

// Services are the use cases the HTTP API exposes.
type Services struct {
	TripLogs *triplog.Service
	Users    *user.Service
	Feedback *feedback.Service
	Contacts *contact.Service
}

// NewServices wires repositories on db into the use cases.
func NewServices(cfg *config.Config, db *postgres.DB, renderer *render.Renderer, photos triplog.PhotoStore, notifier Notifier) *Services {
	userRepository := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	tripLogRepository := postgres.NewTripLogRepository(db)
	feedbackRepository := postgres.NewFeedbackRepository(db)
	routeRepository := postgres.NewRouteRepository(db)

	return &Services{
		TripLogs: triplog.NewService(tripLogRepository, userRepository, photos, notifier, renderer, triplog.Config{
			BaseURL:       cfg.App.BaseURL,
			NotifyTimeout: cfg.Notify.Timeout,
		}),
		Users: user.NewService(userRepository, refreshTokenRepo, cfg),
		Feedback: feedback.NewService(feedbackRepository, notifier, feedback.Config{
			AllowedDomain: cfg.Feedback.AllowedDomain,
			BaseURL:       cfg.App.BaseURL,
			NotifyTimeout: cfg.Notify.Timeout,
		}),
		Contacts: contact.NewService(userRepository, routeRepository, contact.Config{
			HiddenEmails:   cfg.Contacts.HiddenEmails,
			FeaturedEmails: cfg.Contacts.FeaturedEmails,
			DispatchPhone:  cfg.Contacts.DispatchPhone,
		}),
	}
}

func SetupRoutes(cfg *config.Config, db HealthChecker, services *Services) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxUploadBytes))
	if cfg.RateLimit.GeneralRPS > 0 {
		router.Use(middleware.RateLimitMiddleware("general", cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))
	}

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := db.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	userHandler := handler.NewUserHandler(services.Users)
	tripLogHandler := handler.NewTripLogHandler(services.TripLogs)
	feedbackHandler := handler.NewFeedbackHandler(services.Feedback)
	contactHandler := handler.NewContactHandler(services.Contacts)

	tripLogHandler.RegisterShareRoutes(router)

	v1 := router.Group("/api/v1")
	{
		public := v1.Group("")
		if cfg.RateLimit.PublicRPS > 0 {
			public.Use(middleware.RateLimitMiddleware("public", cfg.RateLimit.PublicRPS, cfg.RateLimit.PublicBurst))
		}
		userHandler.RegisterRoutes(public)
		feedbackHandler.RegisterRoutes(public)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(cfg, services.Users))
		{
			userHandler.RegisterProfileRoutes(protected)
			contactHandler.RegisterRoutes(protected)
			tripLogHandler.RegisterRoutes(protected, middleware.Submitters(), middleware.Reviewers())

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				userHandler.RegisterAdminRoutes(admin)
				feedbackHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	logger.Info("All routes initialized")
	return router
}
