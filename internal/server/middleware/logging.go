package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/storestream/internal/logging"
)

// RequestLogging logs one line per completed request. Long-lived SSE
// streams log on disconnect, so their duration reflects the stream
// lifetime rather than handler latency.
func RequestLogging(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  RequestIDFrom(c),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request completed", fields)
		case c.Writer.Status() >= 400:
			log.Warn("request completed", fields)
		default:
			log.Info("request completed", fields)
		}
	}
}
