package server

import (
	"context"
	"fmt"

	"github.com/skillsenselab/storestream/internal/component"
)

// ServerComponent adapts Server to the component lifecycle.
type ServerComponent struct {
	server *Server
}

// NewComponent wraps a server as a lifecycle component.
func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

// Name returns the component name.
func (c *ServerComponent) Name() string { return "server" }

// Server returns the wrapped server.
func (c *ServerComponent) Server() *Server { return c.server }

// Start binds and starts serving.
func (c *ServerComponent) Start(ctx context.Context) error {
	return c.server.Start(ctx)
}

// Stop shuts the server down gracefully.
func (c *ServerComponent) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}

// Health reports whether the server is accepting connections.
func (c *ServerComponent) Health(ctx context.Context) component.Health {
	c.server.mu.Lock()
	started := c.server.started
	c.server.mu.Unlock()
	if !started {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "not started",
		}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("listening on %s", c.server.Addr()),
	}
}
