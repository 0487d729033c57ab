package common

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// MetricsMiddleware tracks API performance metrics in conn
func MetricsMiddleware(conn *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Generate request ID for tracing
		requestID := uuid.New().String()
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		// Record start time
		startTime := time.Now()

		// Process request
		c.Next()

		// Get errors (if any)
		errors := ""
		if len(c.Errors) > 0 {
			errors = c.Errors.String()
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		metric := ApiMetric{
			RequestID:  requestID,
			Endpoint:   endpoint,
			Method:     c.Request.Method,
			StatusCode: c.Writer.Status(),
			DurationMs: int(time.Since(startTime).Milliseconds()),
			Errors:     errors,
			Timestamp:  startTime,
		}

		if err := conn.Create(&metric).Error; err != nil {
			log.Warn().Err(err).Str("request_id", requestID).Msg("save api metric")
		}
	}
}
