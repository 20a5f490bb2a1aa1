// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation (X-API-Key), compared in constant time and
//     disabled when no key is configured.
//   - rayid: a unique request ID (RayID) per request, stored in the context
//     locals and echoed in the X-Ray-ID response header for tracing.
//
// RayID must be registered first so every later log line can carry it.
package middleware
