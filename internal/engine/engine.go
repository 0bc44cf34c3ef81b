// Package engine wires the dispatcher, sink, and configuration together
// behind the one call a caller needs: ProcessBatch. Everything upstream
// of the dispatcher (manifest parsing) and downstream of the sink (file
// handling) is the caller's concern, mirroring the wider client
// library's ClientConfig.Build as the single assembly point for a
// configured client.
package engine

import (
	"context"
	"fmt"

	"github.com/deploymenttheory/batchhttp/internal/dispatcher"
	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
	"github.com/deploymenttheory/batchhttp/internal/enginelog"
	"github.com/deploymenttheory/batchhttp/internal/manifest"
	"github.com/deploymenttheory/batchhttp/internal/sink"
)

// Engine is the assembled batch HTTP execution engine for one run.
type Engine struct {
	cfg        *engineconfig.EngineConfig
	log        enginelog.Logger
	dispatcher *dispatcher.Dispatcher
}

// New assembles an Engine from a validated configuration and logger. Pass
// nil for log to get a no-op logger.
func New(cfg *engineconfig.EngineConfig, log enginelog.Logger) *Engine {
	if log == nil {
		log = enginelog.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		log:        log,
		dispatcher: dispatcher.New(cfg, log),
	}
}

// ProcessBatch runs every request in requests to completion against out,
// producing exactly one ResponseRecord per request regardless of
// individual outcome. It returns a non-nil error only when the batch
// could not complete at all (a fatal sink or worker-spawn failure), not
// when individual requests failed: those failures are recorded in the
// output manifest, not surfaced as a Go error. If ctx is cancelled, the
// requests not yet started produce no record.
func (e *Engine) ProcessBatch(ctx context.Context, requests []manifest.RequestDescriptor, out sink.Sink) error {
	if err := e.dispatcher.Run(ctx, requests, out); err != nil {
		return fmt.Errorf("engine: batch run failed: %w", err)
	}
	return nil
}
