// Package authplane composes a token authority and a Redis-backed
// coordination store into a session lifecycle engine: login issuance,
// blacklist-gated validation, refresh-credential rotation, and revocation.
//
// The package is designed for concurrent server workloads: [Engine]
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Architecture boundaries
//
// authplane is the public composition surface. The token authority
// (package token) is a pure leaf — signing, hashing, no I/O. The
// coordination store (package coord) owns every Redis interaction. This
// package decides when to call each and owns the session-id-to-hash
// mapping; it never persists plaintext secrets and hands them to the
// caller exactly once.
//
// # Error boundary
//
// Validation and refresh failures collapse to [ErrUnauthorized] at this
// boundary so callers cannot distinguish a bad signature from expiry or
// revocation. The distinct internal kind is logged and counted, not
// returned. Store connectivity faults propagate unmodified as
// coord.ErrStoreUnavailable.
package authplane
