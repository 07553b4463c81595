package broadcast

import "fmt"

// Config holds fan-out tuning knobs.
type Config struct {
	// YieldEvery makes the fan-out loop yield the processor after every
	// N writes when a room is very large. Zero disables yielding.
	YieldEvery int `yaml:"yield_every" mapstructure:"yield_every"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.YieldEvery < 0 {
		return fmt.Errorf("broadcast.yield_every must be non-negative (got: %d)", c.YieldEvery)
	}
	return nil
}
