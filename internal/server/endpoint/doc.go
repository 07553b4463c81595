// Package endpoint provides the default operational endpoints: health,
// info, and runtime metrics.
package endpoint
