// Package dispatcher implements the persistent worker-pool batch
// dispatcher (C5): it spins up W long-lived goroutines, each bound to
// its own worker.Worker, and feeds them manifest requests over a shared
// channel until the batch is exhausted. This is the resolution of
// SPEC_FULL.md's open worker-pool-vs-wave-scheduling question, grounded
// in generalizing concurrency.ConcurrencyHandler's semaphore from "one
// permit per in-flight request" to "one permit per persistent pool
// worker".
package dispatcher

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/deploymenttheory/batchhttp/internal/clientfacade"
	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
	"github.com/deploymenttheory/batchhttp/internal/enginelog"
	"github.com/deploymenttheory/batchhttp/internal/enginemetrics"
	"github.com/deploymenttheory/batchhttp/internal/manifest"
	"github.com/deploymenttheory/batchhttp/internal/sink"
	"github.com/deploymenttheory/batchhttp/internal/worker"
)

// Dispatcher owns the worker pool for one batch run.
type Dispatcher struct {
	cfg     *engineconfig.EngineConfig
	log     enginelog.Logger
	permits *enginemetrics.PermitTracker
}

// New builds a Dispatcher sized to cfg.MaxConcurrency.
func New(cfg *engineconfig.EngineConfig, log enginelog.Logger) *Dispatcher {
	if log == nil {
		log = enginelog.NewNop()
	}
	return &Dispatcher{
		cfg:     cfg,
		log:     log,
		permits: enginemetrics.NewPermitTracker(cfg.MaxConcurrency, log),
	}
}

// Run dispatches every request in requests across a pool of
// min(max_concurrency, len(requests)) persistent workers, writing each
// finished ResponseRecord to out as soon as it completes: order of
// completion, not order of input.
//
// Run returns only once every request handed to a worker has produced
// exactly one output record. When ctx is cancelled, Run stops handing
// out requests, and requests not yet taken by a worker produce no
// record. A per-worker spawn or sink failure is fatal to the whole
// batch; such failures are aggregated with multierr so the caller sees
// every independent cause rather than just the first.
func (d *Dispatcher) Run(ctx context.Context, requests []manifest.RequestDescriptor, out sink.Sink) error {
	if len(requests) == 0 {
		return nil
	}

	workerCount := d.cfg.MaxConcurrency
	if workerCount > len(requests) {
		workerCount = len(requests)
	}

	jobs := make(chan manifest.RequestDescriptor)
	var fatalMu sync.Mutex
	var fatal error

	recordFatal := func(err error) {
		if err == nil {
			return
		}
		fatalMu.Lock()
		fatal = multierr.Append(fatal, err)
		fatalMu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		facade, err := clientfacade.New(d.cfg)
		if err != nil {
			recordFatal(err)
			continue
		}
		w := worker.New(facade, d.cfg.DefaultRetryPolicy(), d.log)

		wg.Add(1)
		go d.runWorker(ctx, w, jobs, out, &wg, recordFatal)
	}

	go func() {
		defer close(jobs)
		for _, req := range requests {
			select {
			case jobs <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	return fatal
}

func (d *Dispatcher) runWorker(ctx context.Context, w *worker.Worker, jobs <-chan manifest.RequestDescriptor, out sink.Sink, wg *sync.WaitGroup, recordFatal func(error)) {
	defer wg.Done()

	for req := range jobs {
		permitID, err := d.permits.Acquire(ctx)
		if err != nil {
			recordFatal(out.EmitError(req.ID, err.Error()))
			return
		}

		record := w.Run(ctx, &req)
		d.permits.Release(permitID)

		if err := out.Emit(record); err != nil {
			recordFatal(err)
			return
		}
	}
}
