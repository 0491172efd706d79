package router

import (
	"time"

	"facerate-go/internal/handlers"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger creates a gin middleware for logging requests using zap.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Bool("htmx", c.GetHeader("HX-Request") == "true"),
		}
		if s, ok := c.Get(sessions.DefaultKey); ok {
			if pid, ok := s.(sessions.Session).Get(handlers.ParticipantIDKey).(string); ok {
				fields = append(fields, zap.String("participant_id", pid))
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("Server error", fields...)
		case status >= 400:
			log.Warn("Client error", fields...)
		default:
			// Successful requests stay at Debug; every trial produces several.
			log.Debug("Request processed", fields...)
		}
	}
}
