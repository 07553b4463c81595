// Package errors provides unified error handling for storestream's HTTP
// surface. It implements structured error types with error codes, HTTP
// status mapping, and retryable detection.
//
// The broadcast core never returns errors across its boundary; this
// package serves the router, auth, and publish layers only.
package errors
