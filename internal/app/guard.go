package app

import (
	"context"

	"billvault/internal/domain/billing"
)

// acquireGuard takes the reentrancy lock protecting fund-moving entry points.
// The returned release func must be deferred immediately so the lock is
// cleared on every exit path, error returns included. The platform runs one
// invocation to completion at a time; the lock exists to reject nested
// re-entry within a single call graph, not to serialize independent calls.
func (e *Engine) acquireGuard(ctx context.Context) (func(), error) {
	locked, err := e.store.Has(ctx, keyReentrancyLock)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, billing.ErrReentrancy
	}
	if err := e.store.Set(ctx, keyReentrancyLock, true); err != nil {
		return nil, err
	}

	release := func() {
		// Release with a cancellation-detached context: the operation's own
		// ctx may already be dead (client disconnect, keeper timeout), and a
		// removal that fails for that reason would wedge every later
		// fund-moving call behind a stale lock.
		_ = e.store.Remove(context.WithoutCancel(ctx), keyReentrancyLock)
	}
	return release, nil
}
