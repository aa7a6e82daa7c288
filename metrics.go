package authplane

import "sync/atomic"

// metrics holds the engine's lock-free operation counters.
type metrics struct {
	logins             atomic.Uint64
	validations        atomic.Uint64
	validationFailures atomic.Uint64
	refreshes          atomic.Uint64
	refreshFailures    atomic.Uint64
	revocations        atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the engine counters.
type MetricsSnapshot struct {
	Logins             uint64
	Validations        uint64
	ValidationFailures uint64
	Refreshes          uint64
	RefreshFailures    uint64
	Revocations        uint64
}

// Metrics returns a consistent-enough snapshot of the operation counters.
// Counters are sampled individually; they may skew by in-flight
// operations but never go backwards.
func (e *Engine) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		Logins:             e.metrics.logins.Load(),
		Validations:        e.metrics.validations.Load(),
		ValidationFailures: e.metrics.validationFailures.Load(),
		Refreshes:          e.metrics.refreshes.Load(),
		RefreshFailures:    e.metrics.refreshFailures.Load(),
		Revocations:        e.metrics.revocations.Load(),
	}
}
