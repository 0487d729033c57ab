package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tubeseed/common"
)

// RequestLogger logs each request as one structured line
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		evt := log.Info()
		if status >= 500 {
			evt = log.Error()
		} else if status >= 400 {
			evt = log.Warn()
		}

		evt.
			Str("request_id", c.GetString(common.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration_ms", time.Since(start)).
			Int("bytes_sent", c.Writer.Size()).
			Msg("request")
	}
}
