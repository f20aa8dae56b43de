package router

import (
	"time"

	"event-registration/internal/api/handlers"
	"event-registration/internal/api/middleware"
	"event-registration/internal/auth"
	"event-registration/internal/config"
	domain "event-registration/internal/domain/registration"
	"event-registration/internal/infrastructure/cache"
	"event-registration/internal/infrastructure/repository"
	"event-registration/internal/oracle"
	"event-registration/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// New wires the full service: gorm ledger, redis idempotency store and
// analytics cache, capacity oracle client, and the HTTP surface.
func New(db *gorm.DB) *gin.Engine {
	cfg := config.Get()

	redisCache := cache.NewRedisCacheWithConfig(&cfg.Cache)
	ledger := repository.NewLedgerRepository(db)
	idempotencyRepo := repository.NewRedisIdempotencyRepository(redisCache.GetClient())
	oracleClient := oracle.NewClient(cfg.Oracle.BaseURL, time.Duration(cfg.Oracle.TimeoutSeconds)*time.Second)

	admissionService := service.NewAdmissionService(ledger, oracleClient, idempotencyRepo)
	analyticsService := service.NewAnalyticsService(ledger, redisCache)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	return build(verifier, admissionService, analyticsService, handlers.NewHealthHandler(db, redisCache))
}

// NewWithDependencies wires the HTTP surface around explicit collaborators.
// Used by tests and local modes that swap in in-memory backends.
func NewWithDependencies(
	verifier *auth.Verifier,
	ledger domain.Ledger,
	capacityOracle domain.CapacityOracle,
	idempotencyRepo domain.IdempotencyRepository,
) *gin.Engine {
	admissionService := service.NewAdmissionService(ledger, capacityOracle, idempotencyRepo)
	analyticsService := service.NewAnalyticsService(ledger, nil)
	return build(verifier, admissionService, analyticsService, handlers.NewHealthHandler(nil, nil))
}

func build(
	verifier *auth.Verifier,
	admissionService *service.AdmissionService,
	analyticsService *service.AnalyticsService,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(cors.Default())
	r.Use(gin.Recovery())

	registrationHandler := handlers.NewRegistrationHandler(admissionService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/ready", healthHandler.ReadinessCheck)
	r.GET("/live", healthHandler.LivenessCheck)

	authenticated := middleware.Auth(verifier)

	v1 := r.Group("/api/v1")
	{
		registrations := v1.Group("/registrations", authenticated, middleware.IdempotencyMiddleware())
		{
			registrations.POST("", registrationHandler.Register)
			registrations.GET("/my", registrationHandler.MyRegistrations)
			registrations.GET("/event/:event_id", registrationHandler.EventRegistrations)
			registrations.GET("/:id/ticket", registrationHandler.Ticket)
			registrations.DELETE("/:id", registrationHandler.Cancel)
		}

		analytics := v1.Group("/analytics", authenticated)
		{
			analytics.GET("/event/:event_id", analyticsHandler.EventStats)
			analytics.GET("/overview", analyticsHandler.Overview)
		}
	}

	// Platform-internal hook: the event catalog cancels all registrations
	// when it deletes an event. Guarded by the shared-secret admin role.
	internal := r.Group("/internal", authenticated, middleware.RequireRole(domain.RoleAdmin))
	{
		internal.POST("/events/:event_id/cancel-all", registrationHandler.CancelAllForEvent)
	}

	return r
}
