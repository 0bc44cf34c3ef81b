// Package enginemetrics tracks the batch engine's permit-acquisition
// concurrency metrics, adapted from concurrency.ConcurrencyHandler's
// semaphore instrumentation. The persistent worker pool (C5) has no
// dynamic scaling to feed, so this package keeps only the counters a
// dispatcher actually reports: total permits handed out, time spent
// waiting, and the current utilization snapshot.
package enginemetrics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deploymenttheory/batchhttp/internal/enginelog"
)

// Snapshot is a point-in-time read of the tracker's counters.
type Snapshot struct {
	Capacity         int
	InUse            int
	TotalAcquired    int64
	TotalWaitTime    time.Duration
}

// PermitTracker hands out one permit per pool worker slot, correlating
// each acquisition with a UUID for log tracing, mirroring
// ConcurrencyHandler.AcquireConcurrencyPermit/ReleaseConcurrencyPermit
// but sized to the dispatcher's fixed worker count rather than a
// dynamically retuned limit.
type PermitTracker struct {
	sem chan struct{}
	log enginelog.Logger

	mu            sync.Mutex
	totalAcquired int64
	totalWait     time.Duration
}

// NewPermitTracker builds a tracker with capacity permits, one per
// persistent worker in the pool.
func NewPermitTracker(capacity int, log enginelog.Logger) *PermitTracker {
	if log == nil {
		log = enginelog.NewNop()
	}
	return &PermitTracker{
		sem: make(chan struct{}, capacity),
		log: log,
	}
}

// Acquire blocks until a permit is available or ctx is cancelled. It
// returns the request-correlation UUID used in the acquired/released log
// pair so callers can thread it through to the worker's own logging.
func (t *PermitTracker) Acquire(ctx context.Context) (uuid.UUID, error) {
	start := time.Now()
	id := uuid.New()

	select {
	case t.sem <- struct{}{}:
		wait := time.Since(start)
		t.mu.Lock()
		t.totalAcquired++
		t.totalWait += wait
		t.mu.Unlock()
		enginelog.PermitAcquired(t.log, id.String(), wait, len(t.sem), cap(t.sem))
		return id, nil
	case <-ctx.Done():
		return id, ctx.Err()
	}
}

// Release returns a permit to the pool. Calling it without a matching
// Acquire blocks forever on the underlying channel receive, which is the
// intended failure mode for a permit-lifecycle bug in the dispatcher.
func (t *PermitTracker) Release(id uuid.UUID) {
	<-t.sem
	enginelog.PermitReleased(t.log, id.String(), len(t.sem), cap(t.sem))
}

// Snapshot reports the tracker's current utilization and lifetime totals.
func (t *PermitTracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Capacity:      cap(t.sem),
		InUse:         len(t.sem),
		TotalAcquired: t.totalAcquired,
		TotalWaitTime: t.totalWait,
	}
}
