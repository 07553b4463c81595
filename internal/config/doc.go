// Package config provides configuration loading and validation for
// storestream.
//
// It uses Viper to load configuration from a YAML file and environment
// variables, with a .env file loaded via godotenv for development.
// Environment variables override file values using underscore-separated
// paths (e.g. SERVER_PORT, AUTH_SECRET).
package config
