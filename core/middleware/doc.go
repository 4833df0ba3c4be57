// Package middleware contains HTTP middleware for the Fiber application.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - auth: API key validation (X-API-Key header or api_key query). Path
//     prefixes such as /webhook can be exempted so the timing software can
//     post without a key.
//   - rayid: assigns every request a Request ID (RayID), stored in the
//     context and echoed in the X-Ray-ID response header for tracing.
//
// These middleware components are registered globally in cmd/start.
package middleware
