// Package component defines the lifecycle interface for storestream's
// long-lived infrastructure pieces (HTTP server, broadcast engine,
// telemetry) and a registry that starts them in order and stops them in
// reverse.
package component
