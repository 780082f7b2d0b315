// Package api defines the wire types served by the keygate HTTP API.
//
// Records ([Customer], [CallLog], [Item]) are the documents persisted by
// the storage backends and returned by the data endpoints. Every error
// response uses the flat [ErrorResponse] shape: {"error": "<message>"}.
//
// The package has zero external dependencies beyond ID generation and
// performs no I/O.
package api
