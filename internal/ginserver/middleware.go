package ginserver

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonesrussell/markdown-gateway/internal/logger"
)

// RequestIDKey is the context key the request correlation id is stored
// under.
const RequestIDKey = "request_id"

// maxDebugDetail bounds the diagnostic detail attached to error responses
// when debug mode is requested.
const maxDebugDetail = 2048

// RequestIDMiddleware attaches a correlation id to each request. An
// incoming X-Request-ID is honored; otherwise one is generated. The id is
// echoed back in the response headers.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()
	}
}

// RequestID returns the correlation id for the current request.
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// LoggerMiddleware logs one structured entry per request: method, path,
// status, duration, client IP, and the correlation id.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		method := c.Request.Method

		c.Next()

		fields := []logger.Field{
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
			logger.String(RequestIDKey, RequestID(c)),
		}
		if query != "" {
			fields = append(fields, logger.String("query", query))
		}
		if !strings.HasPrefix(path, "/health") {
			fields = append(fields, logger.String("user_agent", c.Request.UserAgent()))
		}

		if len(c.Errors) > 0 {
			errorMessages := make([]string, len(c.Errors))
			for i, err := range c.Errors {
				errorMessages[i] = err.Err.Error()
			}
			fields = append(fields, logger.Strings("errors", errorMessages))
			log.Error("HTTP request with errors", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}

// RecoveryMiddleware catches panics, logs them, and returns a 500 carrying
// the correlation id so operators can cross-reference logs. Stack detail is
// attached only when the client asked for debug mode, and even then
// truncated.
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := RequestID(c)
				log.Error("Panic recovered",
					logger.Any("error", err),
					logger.String("path", c.Request.URL.Path),
					logger.String("method", c.Request.Method),
					logger.String(RequestIDKey, requestID),
				)

				body := gin.H{
					"error":      "internal error",
					"request_id": requestID,
				}
				if c.Query("debug") == "1" {
					body["detail"] = TruncateDetail(string(debug.Stack()))
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()

		c.Next()
	}
}

// TruncateDetail bounds diagnostic text for inclusion in a debug response.
func TruncateDetail(detail string) string {
	if len(detail) > maxDebugDetail {
		return detail[:maxDebugDetail] + "... (truncated)"
	}
	return detail
}
