// Package auth decides which authentication scheme, if any, accepts an
// incoming request.
//
// A Resolver walks an ordered list of rules. Each rule says when it applies
// (which headers must be present), how the presented credential is
// verified, and what happens when verification fails: fall through to the
// next rule, or reject the request outright. The first rule that accepts
// or rejects ends the walk; when every rule abstains the request is
// rejected as Unauthorized. Every request therefore ends with exactly one
// identity or exactly one rejection.
//
// The default rule order is API key, Basic, Bearer, client credentials.
// API key and Basic mismatches fall through; Bearer and client credential
// mismatches reject. StrictRules makes every mismatch reject.
//
// Auth is applied as HTTP middleware. The resolved Identity is stored in
// the request context for handlers to read.
package auth
