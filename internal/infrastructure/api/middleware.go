// Package api exposes the engine's one inbound surface: the reply webhook,
// plus health/ready/metrics and an optional live-event WebSocket stream.
// No CRUD surface is built here — campaign lifecycle is driven by the
// orchestrator and the Tick Driver, not by an external REST API.
package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campaignflow/engine/internal/infrastructure/logger"
)

const (
	requestIDHeader     = "X-Request-ID"
	contextKeyRequestID = "request_id"
)

// LoggingMiddleware logs every request with a request id, generating one
// if the caller did not supply it.
type LoggingMiddleware struct {
	logger *logger.Logger
}

// NewLoggingMiddleware builds a LoggingMiddleware.
func NewLoggingMiddleware(log *logger.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: log}
}

// RequestLogger is the gin middleware func.
func (m *LoggingMiddleware) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(contextKeyRequestID, requestID)
		c.Header(requestIDHeader, requestID)

		m.logger.Info("request started",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)

		c.Next()

		m.logger.Info("request completed",
			"request_id", requestID,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// RecoveryMiddleware converts a panic in a handler into a 500 response
// instead of crashing the process.
type RecoveryMiddleware struct {
	logger *logger.Logger
}

// NewRecoveryMiddleware builds a RecoveryMiddleware.
func NewRecoveryMiddleware(log *logger.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{logger: log}
}

// Recovery is the gin middleware func.
func (m *RecoveryMiddleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestID, _ := c.Get(contextKeyRequestID)
				m.logger.Error("panic recovered",
					"request_id", requestID,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"error", r,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    "INTERNAL_ERROR",
					"message": fmt.Sprintf("internal server error (request_id: %v)", requestID),
				})
			}
		}()
		c.Next()
	}
}

// WebhookAuth verifies the bearer JWT on inbound webhook deliveries against
// a shared HMAC secret. An empty secret disables verification, which is
// the expected local-development posture (no secret configured).
func WebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "missing bearer token"})
			return
		}

		_, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "invalid webhook token"})
			return
		}
		c.Next()
	}
}
