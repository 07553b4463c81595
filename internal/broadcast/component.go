package broadcast

import (
	"context"
	"fmt"

	"github.com/skillsenselab/storestream/internal/component"
)

// Component wraps a Registry and Broadcaster pair as a lifecycle-managed
// component. Stop tears down every live connection via ResetAll.
type Component struct {
	registry    *Registry
	broadcaster *Broadcaster
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a broadcast component with a fresh registry.
func NewComponent(opts ...Option) *Component {
	registry := NewRegistry()
	return &Component{
		registry:    registry,
		broadcaster: NewBroadcaster(registry, opts...),
	}
}

// Registry returns the client/room registry.
func (c *Component) Registry() *Registry { return c.registry }

// Broadcaster returns the fan-out engine.
func (c *Component) Broadcaster() *Broadcaster { return c.broadcaster }

// Name returns the component name.
func (c *Component) Name() string { return "broadcast" }

// Start is a no-op: the registry is passive shared state with no run
// loop of its own.
func (c *Component) Start(_ context.Context) error { return nil }

// Stop closes every live sink and clears all registry state.
func (c *Component) Stop(_ context.Context) error {
	c.registry.ResetAll()
	return nil
}

// Health reports the number of connected clients and active rooms.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
		Message: fmt.Sprintf("%d clients in %d rooms",
			c.registry.ClientCount(), c.registry.RoomCount()),
	}
}
