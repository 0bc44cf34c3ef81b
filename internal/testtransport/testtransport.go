// Package testtransport is a scriptable http.RoundTripper test double,
// grounded in the wider client library's mocklogger.MockLogger pattern
// of hand-rolling a double for an interface rather than hitting the
// network, applied here to http.RoundTripper so retry, worker, and
// dispatcher tests can simulate transport failures and status sequences
// deterministically.
package testtransport

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Step describes one scripted response to the next round trip. Exactly
// one of Err or (Status, Body) is meaningful per step.
type Step struct {
	Err     error
	Status  int
	Body    string
	Headers map[string]string
}

// RoundTripper replays a fixed Steps sequence, one per call, across
// however many goroutines call RoundTrip concurrently; it is safe for
// concurrent use. Once Steps is exhausted, it repeats the last step,
// which is convenient for load-style tests that don't care about exact
// call count.
type RoundTripper struct {
	mu    sync.Mutex
	Steps []Step
	calls int
	Requests []*http.Request
}

// New builds a scripted RoundTripper from the given steps, replayed in
// order across successive calls.
func New(steps ...Step) *RoundTripper {
	return &RoundTripper{Steps: steps}
}

// RoundTrip implements http.RoundTripper.
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	idx := rt.calls
	if idx >= len(rt.Steps) {
		idx = len(rt.Steps) - 1
	}
	rt.calls++
	rt.Requests = append(rt.Requests, req)
	step := rt.Steps[idx]
	rt.mu.Unlock()

	if step.Err != nil {
		return nil, step.Err
	}

	header := http.Header{}
	for k, v := range step.Headers {
		header.Set(k, v)
	}

	return &http.Response{
		StatusCode: step.Status,
		Status:     fmt.Sprintf("%d %s", step.Status, http.StatusText(step.Status)),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(step.Body)),
		Request:    req,
	}, nil
}

// CallCount reports how many round trips have been made so far.
func (rt *RoundTripper) CallCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.calls
}

// Client builds an *http.Client bound to this RoundTripper, for tests
// that exercise a component expecting a real *http.Client rather than
// an injected facade.
func (rt *RoundTripper) Client() *http.Client {
	return &http.Client{Transport: rt}
}
