package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/storestream/internal/errors"
	"github.com/skillsenselab/storestream/internal/logging"
)

// Recovery recovers from handler panics, logs the stack, and responds
// with a 500 error body unless the response has already started (an
// in-flight SSE stream cannot be rewritten).
func Recovery(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", map[string]interface{}{
					"panic":      r,
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"request_id": RequestIDFrom(c),
					"stack":      string(debug.Stack()),
				})
				if !c.Writer.Written() {
					appErr := apperrors.Internal(fmt.Errorf("panic: %v", r))
					c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.ToResponse())
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
