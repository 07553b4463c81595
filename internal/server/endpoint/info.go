package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/storestream/internal/version"
)

// InfoResponse describes the running service.
type InfoResponse struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Commit      string `json:"commit,omitempty"`
	BuildTime   string `json:"buildTime,omitempty"`
	GoVersion   string `json:"goVersion"`
	Environment string `json:"environment"`
	StartedAt   string `json:"startedAt"`
	Uptime      string `json:"uptime"`
}

// Info returns a handler reporting build and runtime information.
func Info(service, environment string) gin.HandlerFunc {
	started := time.Now()
	info := version.Get()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, InfoResponse{
			Service:     service,
			Version:     info.Version,
			Commit:      info.Commit,
			BuildTime:   info.BuildTime,
			GoVersion:   info.GoVersion,
			Environment: environment,
			StartedAt:   started.UTC().Format(time.RFC3339),
			Uptime:      time.Since(started).Round(time.Second).String(),
		})
	}
}
