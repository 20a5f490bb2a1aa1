// Package server holds the HTTP server settings: listen port, API key, body
// limit and graceful shutdown deadline.
package server
