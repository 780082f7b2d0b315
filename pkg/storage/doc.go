// Package storage provides sentinel errors shared across the record
// store backends.
//
// Backends (memory, postgres, sqlite) implement the transport.RecordStore
// interface defined in pkg/transport/handler.go. This package contains
// only shared types and helpers, not the interface itself.
package storage
