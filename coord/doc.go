// Package coord is a thin semantic layer over a shared Redis deployment:
// namespaced JSON key-value storage with per-key TTL, atomic counters with
// create-time TTL arming, create-only writes, cooperative locks, and a
// token revocation registry.
//
// # Namespacing
//
// Every key passes through the configured "<prefix>:" namespace, so
// unrelated subsystems sharing the Redis deployment cannot collide with
// entries written through this layer. The revocation registry nests a
// fixed "jwt:blacklist:" sub-namespace inside the prefix.
//
// # Atomicity
//
// Redis serializes conflicting operations internally; this package adds no
// local locking. Check-then-act sequences that must be atomic — counter
// creation detection, lock release — run as Lua scripts, which Redis
// executes atomically. Lock acquisition uses a single SET NX PX command so
// the TTL is armed in the same step that wins the race.
//
// # Error model
//
// Connectivity failures wrap [ErrStoreUnavailable] and are propagated, not
// retried; callers own timeout and retry policy. A present-but-undecodable
// entry is [ErrCorrupt], distinct from absence.
package coord
