package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"

	"github.com/campaignflow/engine/internal/application/observer"
	"github.com/campaignflow/engine/internal/domain/repository"
	"github.com/campaignflow/engine/internal/infrastructure/cache"
	"github.com/campaignflow/engine/internal/infrastructure/logger"
	"github.com/campaignflow/engine/internal/infrastructure/storage"
)

// Dependencies are the collaborators the router needs.
type Dependencies struct {
	DB     *bun.DB
	Cache  *cache.RedisCache
	Leads  repository.LeadRepository
	Steps  repository.StepRepository
	Logger *logger.Logger

	WebhookJWTSecret string

	// WebSocketObserver is optional; when set, GET /ws/events streams
	// live lifecycle events to connected dashboards.
	WebSocketObserver *observer.WebSocketObserver
}

// NewRouter builds the gin engine with every SPEC_FULL.md-named endpoint:
// health/ready/metrics, the reply webhook, and the optional live-event
// WebSocket stream. No CRUD surface is built (explicit Non-goal).
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	logging := NewLoggingMiddleware(deps.Logger)
	recovery := NewRecoveryMiddleware(deps.Logger)
	router.Use(recovery.Recovery())
	router.Use(logging.RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := storage.Ping(ctx, deps.DB); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": fmt.Sprintf("database: %s", err)})
			return
		}
		if deps.Cache != nil {
			if err := deps.Cache.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": fmt.Sprintf("redis: %s", err)})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/metrics", func(c *gin.Context) {
		dbStats := storage.Stats(deps.DB)
		metrics := gin.H{
			"database": gin.H{
				"open_connections": dbStats.OpenConnections,
				"in_use":           dbStats.InUse,
				"idle":             dbStats.Idle,
				"wait_count":       dbStats.WaitCount,
			},
		}
		if deps.Cache != nil {
			cacheStats := deps.Cache.Stats()
			metrics["redis"] = gin.H{
				"hits":        cacheStats.Hits,
				"misses":      cacheStats.Misses,
				"total_conns": cacheStats.TotalConns,
				"idle_conns":  cacheStats.IdleConns,
			}
		}
		if deps.WebSocketObserver != nil {
			metrics["websocket_clients"] = deps.WebSocketObserver.ClientCount()
		}
		c.JSON(http.StatusOK, gin.H{"metrics": metrics})
	})

	if deps.WebSocketObserver != nil {
		router.GET("/ws/events", func(c *gin.Context) {
			deps.WebSocketObserver.Handler(c.Writer, c.Request)
		})
	}

	webhooks := NewWebhookHandlers(deps.Leads, deps.Steps, deps.Logger)
	webhookGroup := router.Group("/webhooks")
	webhookGroup.Use(WebhookAuth(deps.WebhookJWTSecret))
	webhookGroup.POST("/reply", webhooks.HandleReply)

	return router
}
