package handlers

import (
	"net/http"
	"time"

	"event-registration/internal/config"
	"event-registration/internal/infrastructure/cache"
	"event-registration/internal/infrastructure/database"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db         *gorm.DB
	redisCache *cache.RedisCache
}

// NewHealthHandler creates a new health handler. db and redisCache may be
// nil when the corresponding backend is not wired (tests, local modes).
func NewHealthHandler(db *gorm.DB, redisCache *cache.RedisCache) *HealthHandler {
	return &HealthHandler{
		db:         db,
		redisCache: redisCache,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Service   string            `json:"service"`
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Backends  map[string]string `json:"backends"`
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	cfg := config.Get()

	backends := make(map[string]string)
	status := "ok"

	if h.db != nil {
		if err := database.HealthCheck(h.db); err != nil {
			backends["database"] = "unhealthy"
			status = "degraded"
		} else {
			backends["database"] = "healthy"
		}
	}

	if h.redisCache != nil {
		if err := h.redisCache.Ping(c.Request.Context()); err != nil {
			backends["cache"] = "unhealthy"
			status = "degraded"
		} else {
			backends["cache"] = "healthy"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Service:   cfg.App.Name,
		Status:    status,
		Timestamp: time.Now(),
		Version:   cfg.App.Version,
		Backends:  backends,
	})
}

// ReadinessCheck handles GET /ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.db != nil {
		if err := database.HealthCheck(h.db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// LivenessCheck handles GET /live
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
