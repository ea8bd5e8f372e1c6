// Package lock provides ReconcileLock implementations. The lock prevents two
// concurrent reconciliation runs from claiming the same pending events: one
// in-process implementation for single-instance deployments and one backed by
// Redis for multi-instance ones.
package lock

import (
	"context"
	"sync"

	"github.com/gearsync/backend/internal/domain/integration"
)

// LocalReconcileLock is an in-process ReconcileLock. The "all" scope
// conflicts with every other scope: an unconstrained reconciliation selects
// a superset of any narrower selection.
type LocalReconcileLock struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalReconcileLock creates a new LocalReconcileLock
func NewLocalReconcileLock() *LocalReconcileLock {
	return &LocalReconcileLock{held: make(map[string]bool)}
}

var _ integration.ReconcileLock = (*LocalReconcileLock)(nil)

// Acquire takes the lock for the scope, or returns ErrReconcileInProgress.
func (l *LocalReconcileLock) Acquire(ctx context.Context, scope string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[scope] {
		return nil, integration.ErrReconcileInProgress
	}
	if scope == "all" && len(l.held) > 0 {
		return nil, integration.ErrReconcileInProgress
	}
	if scope != "all" && l.held["all"] {
		return nil, integration.ErrReconcileInProgress
	}

	l.held[scope] = true

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.held, scope)
		})
	}
	return release, nil
}
