package observability

import (
	"context"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/skillsenselab/storestream/internal/component"
)

// Component manages the telemetry provider lifecycle. When export is
// disabled it does nothing and the global no-op providers stay in
// place.
type Component struct {
	cfg         Config
	serviceName string
	version     string
	environment string

	mp *sdkmetric.MeterProvider
	tp *sdktrace.TracerProvider
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the telemetry component.
func NewComponent(cfg Config, serviceName, version, environment string) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg:         cfg,
		serviceName: serviceName,
		version:     version,
		environment: environment,
	}
}

// Name returns the component name.
func (c *Component) Name() string { return "observability" }

// Start initializes the meter and tracer providers when export is
// enabled.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}

	mp, err := InitMeter(ctx, c.cfg, c.serviceName, c.version, c.environment)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	c.mp = mp

	tp, err := InitTracer(ctx, c.cfg, c.serviceName, c.version, c.environment)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	c.tp = tp
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var firstErr error
	if c.tp != nil {
		if err := c.tp.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("tracer shutdown: %w", err)
		}
		c.tp = nil
	}
	if c.mp != nil {
		if err := c.mp.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("meter shutdown: %w", err)
		}
		c.mp = nil
	}
	return firstErr
}

// Health reports the export state.
func (c *Component) Health(_ context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusHealthy,
			Message: "export disabled",
		}
	}
	if c.mp == nil || c.tp == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusDegraded,
			Message: "providers not initialized",
		}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("exporting to %s", c.cfg.Endpoint),
	}
}
