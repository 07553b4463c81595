package endpoint

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/storestream/internal/component"
)

// HealthChecker reports component health. *component.Registry satisfies
// it.
type HealthChecker interface {
	HealthAll(ctx context.Context) []component.Health
}

// HealthResponse is the aggregate health report.
type HealthResponse struct {
	Status     component.HealthStatus `json:"status"`
	Components []component.Health     `json:"components,omitempty"`
}

// Health returns a handler aggregating component health. Any unhealthy
// component makes the aggregate unhealthy (503); degraded components
// degrade it without failing the probe.
func Health(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var components []component.Health
		if checker != nil {
			components = checker.HealthAll(c.Request.Context())
		}

		status := component.StatusHealthy
		for _, h := range components {
			switch h.Status {
			case component.StatusUnhealthy:
				status = component.StatusUnhealthy
			case component.StatusDegraded:
				if status == component.StatusHealthy {
					status = component.StatusDegraded
				}
			}
		}

		code := http.StatusOK
		if status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, HealthResponse{Status: status, Components: components})
	}
}
