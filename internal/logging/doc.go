// Package logging provides structured logging for storestream using
// zerolog.
//
// It supports JSON and console output formats, level configuration,
// and component-scoped loggers with structured fields.
//
// # Usage
//
//	log := logging.WithComponent("broadcast")
//	log.Info("client registered", map[string]interface{}{"client_id": id})
package logging
