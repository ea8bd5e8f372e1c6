package integration

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// Platform Ports
// ---------------------------------------------------------------------------

// SnapshotProvider returns a platform's current listings as a flat list.
// Implementations live in the infrastructure layer and own all transport
// concerns: authentication, pagination, rate-limit backoff.
type SnapshotProvider interface {
	// ListCurrent returns the platform's present listings
	ListCurrent(ctx context.Context) ([]RemoteListing, error)
}

// LocalStateProvider returns the locally believed state for every known
// listing of one platform.
type LocalStateProvider interface {
	// ListLocal returns the local belief for the platform's listings
	ListLocal(ctx context.Context, platform PlatformCode) ([]LocalListing, error)
}

// PlatformActionAdapter pushes state changes out to a marketplace.
// MarkSold is idempotent from the core's perspective: ending an
// already-ended listing is not a hard failure.
type PlatformActionAdapter interface {
	// MarkSold ends the listing on the platform
	MarkSold(ctx context.Context, externalID string) (bool, error)
}

// DetailFetcher loads a single listing in full. Implementations must be safe
// for concurrent invocation; callers bound the number of simultaneous fetches.
type DetailFetcher interface {
	// FetchDetailed returns the full listing record
	FetchDetailed(ctx context.Context, listingID string) (RemoteListing, error)
}

// PlatformAdapter bundles the capabilities one marketplace adapter provides.
type PlatformAdapter interface {
	// PlatformCode returns the platform this adapter handles
	PlatformCode() PlatformCode

	SnapshotProvider
	PlatformActionAdapter
}

// PlatformRegistry resolves adapters by platform code.
type PlatformRegistry interface {
	// Adapter returns the adapter for the code, or ErrPlatformNotConfigured
	Adapter(code PlatformCode) (PlatformAdapter, error)

	// Codes returns the configured platform codes in a stable order
	Codes() []PlatformCode
}

// ---------------------------------------------------------------------------
// RetryPolicy
// ---------------------------------------------------------------------------

// RetryPolicy is an explicit retry schedule for platform calls. It belongs
// to the adapter layer; the reconciliation core never retries inline.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first
	MaxAttempts int
	// Backoff is the delay before each retry; the last entry repeats when
	// attempts outnumber entries
	Backoff []time.Duration
}

// DefaultRetryPolicy returns a conservative schedule for marketplace APIs.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{500 * time.Millisecond, 2 * time.Second},
	}
}

// Delay returns the wait before retry number attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if attempt > len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1]
	}
	if attempt < 1 {
		return p.Backoff[0]
	}
	return p.Backoff[attempt-1]
}

// ---------------------------------------------------------------------------
// ReconcileLock
// ---------------------------------------------------------------------------

// ReconcileLock guarantees that two concurrent reconciliation runs never
// claim the same pending events. One logical lock per selection scope is
// held for the duration of one Reconcile call.
type ReconcileLock interface {
	// Acquire takes the lock for the scope and returns its release func,
	// or ErrReconcileInProgress when the scope is already locked.
	Acquire(ctx context.Context, scope string) (func(), error)
}
