// Package server provides the HTTP server hosting storestream's
// endpoints: a Gin engine mounted on an http.ServeMux with h2c support,
// a standard middleware stack, and the default health/info/metrics
// endpoints.
package server
