// Package server holds the HTTP server configuration.
//
// While cmd/start handles the server startup, this package defines the
// settings it reads: the API port, the API key and the path prefixes exempt
// from it, the websocket hub port, and whether the Swagger UI is served.
//
// # Usage
//
// This package is embedded by core/config and read by cmd/start and the auth
// middleware.
package server
