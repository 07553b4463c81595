package server

import (
	"github.com/skillsenselab/storestream/internal/server/endpoint"
)

// RegisterDefaultEndpoints mounts the operational endpoints on the
// engine.
func (s *Server) RegisterDefaultEndpoints(checker endpoint.HealthChecker, stats endpoint.StreamStats, service, environment string) {
	s.engine.GET("/health", endpoint.Health(checker))
	s.engine.GET("/info", endpoint.Info(service, environment))
	s.engine.GET("/metrics", endpoint.Metrics(stats))
}
