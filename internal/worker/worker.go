// Package worker binds one client facade (C1) and one retry engine (C2)
// per goroutine (C4), executing a single manifest request end to end and
// producing the ResponseRecord the sink will serialize. It is the layer
// that knows about HTTP status codes; the generic retry engine (C2)
// only knows Retryable/Terminal. It is grounded in the wider client library's
// httpclient.Client.do, which threaded status-code checks and retry
// bookkeeping through one call rather than splitting policy from
// mechanism.
package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/deploymenttheory/batchhttp/internal/classify"
	"github.com/deploymenttheory/batchhttp/internal/clientfacade"
	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
	"github.com/deploymenttheory/batchhttp/internal/enginelog"
	"github.com/deploymenttheory/batchhttp/internal/errorbody"
	"github.com/deploymenttheory/batchhttp/internal/manifest"
	"github.com/deploymenttheory/batchhttp/internal/retry"
)

// Worker executes manifest requests against one Facade, using one policy
// for requests that don't override max_retries.
type Worker struct {
	facade       *clientfacade.Facade
	defaultPolicy engineconfig.RetryPolicy
	log          enginelog.Logger
}

// New binds a Worker to a facade and the engine's default retry policy.
func New(facade *clientfacade.Facade, defaultPolicy engineconfig.RetryPolicy, log enginelog.Logger) *Worker {
	if log == nil {
		log = enginelog.NewNop()
	}
	return &Worker{facade: facade, defaultPolicy: defaultPolicy, log: log}
}

// Run executes one manifest request to completion, including retries,
// and returns the finished ResponseRecord. It never returns an error:
// every failure mode, including a request that exhausts its retry
// budget, is represented in the returned record's Error/Status fields,
// preserving one output line per input line.
func (w *Worker) Run(ctx context.Context, req *manifest.RequestDescriptor) manifest.ResponseRecord {
	start := time.Now()

	if req.Method == manifest.MethodHead || req.Method == manifest.MethodOptions {
		return manifest.ResponseRecord{
			ID:    req.ID,
			Error: classify.NewTransportError(classify.MethodNotSupported, nil).Error(),
		}
	}

	if req.TimeoutMs != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	policy := w.defaultPolicy
	if req.MaxRetries != nil {
		policy.MaxAttempts = *req.MaxRetries + 1
	}

	engine := retry.New(policy, statusAwareClassifier, w.log)

	enginelog.RequestStart(w.log, req.ID, string(req.Method), req.URL)

	result := retry.Do(ctx, engine, req.ID, func(ctx context.Context, attempt int) (*clientfacade.ClientResponse, error) {
		resp, err := w.facade.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if classify.IsRetryableStatus(resp.Status) {
			return nil, &httpStatusError{status: resp.Status, resp: resp}
		}
		return resp, nil
	})

	record := manifest.ResponseRecord{
		ID:         req.ID,
		RetryCount: result.RetryCount,
		LatencyMs:  time.Since(start).Milliseconds(),
	}

	resp := result.Value
	if result.Err != nil {
		if statusErr, ok := result.Err.(*httpStatusError); ok {
			resp = statusErr.resp
		} else {
			record.Error = result.Err.Error()
			enginelog.RequestEnd(w.log, req.ID, string(req.Method), req.URL, 0, result.RetryCount, time.Since(start))
			return record
		}
	}

	record.Status = resp.Status
	record.Headers = resp.Headers

	if resp.Status >= 400 {
		record.Error = errorbody.Extract(resp.Headers["Content-Type"], errorbody.DecodeCharset(resp.Headers["Content-Type"], resp.Body))
	} else {
		record.Body = string(errorbody.DecodeCharset(resp.Headers["Content-Type"], resp.Body))
	}

	enginelog.RequestEnd(w.log, req.ID, string(req.Method), req.URL, resp.Status, result.RetryCount, time.Since(start))
	return record
}

// statusAwareClassifier layers the worker's HTTP-status retryability
// table on top of retry.DefaultClassifier's transport-failure table.
// The generic retry engine has no notion of an HTTP status code, so
// this lives here rather than in internal/retry.
func statusAwareClassifier(err error) retry.Outcome {
	if statusErr, ok := err.(*httpStatusError); ok {
		if classify.IsRetryableStatus(statusErr.status) {
			return retry.Retryable
		}
		return retry.Terminal
	}
	return retry.DefaultClassifier(err)
}

// httpStatusError represents a completed HTTP round trip whose status
// code falls in the worker's retryable set (408/429/500/502/503/504). It carries the
// response along so that, whether the engine retries again or gives up
// after exhausting the retry budget, the worker can still populate the
// final ResponseRecord from the last attempt's actual response.
type httpStatusError struct {
	status int
	resp   *clientfacade.ClientResponse
}

func (e *httpStatusError) Error() string {
	return http.StatusText(e.status)
}

// RetryAfter lets retry.Do honor a server-provided wait hint for
// rate-limited and overloaded responses instead of the computed
// exponential backoff, per classify.RetryAfter's header parsing.
func (e *httpStatusError) RetryAfter() (time.Duration, string, bool) {
	if e.resp == nil || (e.status != http.StatusTooManyRequests && e.status != http.StatusServiceUnavailable) {
		return 0, "", false
	}
	h := make(http.Header, len(e.resp.Headers))
	for k, v := range e.resp.Headers {
		h.Set(k, v)
	}
	wait, ok := classify.RetryAfter(h)
	if !ok {
		return 0, "", false
	}
	return wait, h.Get("Retry-After"), true
}
