// Package middleware provides Gin middleware for the storestream HTTP
// server: panic recovery, request IDs, CORS, and request logging.
package middleware
