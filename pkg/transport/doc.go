// Package transport defines the store contract and HTTP middleware chain
// for the keygate server.
//
// # Store Interface
//
// RecordStore is the contract between the HTTP adapter and the storage
// backends (memory, postgres, sqlite). Every method takes the request
// context so that a client disconnect cancels the underlying query.
//
// # Middleware
//
// Middleware wraps http.Handler with cross-cutting concerns. Built-in
// middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured access logging via log/slog. Chain
// composes them in order.
//
// # Errors
//
// Every error response is the flat JSON object {"error": "<message>"}.
// StatusFromError maps storage and validation errors to HTTP status codes.
package transport
