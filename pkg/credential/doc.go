// Package credential checks presented credentials against the configured
// shared secrets and mints short-lived signed tokens for verified clients.
//
// Everything here is pure computation over immutable inputs: no network,
// no storage. The package has no notion of HTTP; extracting credentials
// from requests is the job of pkg/auth.
//
// Tokens are HS256 JWTs carrying a "client" claim and an expiry. They are
// never persisted, so validity is decided by signature and expiry alone.
package credential
