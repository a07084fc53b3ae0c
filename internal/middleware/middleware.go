package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	applogger "github.com/campushub/miniapp/internal/pkg/logger"
)

const (
	loggerKey       = "logger"
	requestIDHeader = "X-Request-ID"
)

// RequestLogger tags each request with an id and logs its outcome
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		reqLogger := base.With().Str("requestID", requestID).Logger()
		c.Set(loggerKey, reqLogger)

		c.Next()

		status := c.Writer.Status()
		event := reqLogger.Info()
		switch {
		case status >= 500:
			event = reqLogger.Error()
		case status >= 400:
			event = reqLogger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("clientIP", c.ClientIP()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}

// logger returns the request logger, or the global one outside RequestLogger
func logger(c *gin.Context) zerolog.Logger {
	if value, ok := c.Get(loggerKey); ok {
		if l, ok := value.(zerolog.Logger); ok {
			return l
		}
	}
	return applogger.Get()
}

// CORS allows the mini-app frontend to call the API from another origin
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+requestIDHeader)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
