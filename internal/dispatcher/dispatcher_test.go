package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
	"github.com/deploymenttheory/batchhttp/internal/manifest"
	"github.com/deploymenttheory/batchhttp/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunProducesOneRecordPerRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := engineconfig.DefaultEngineConfig()
	cfg.MaxConcurrency = 4
	d := New(cfg, nil)

	var buf bytes.Buffer
	out := sink.NewWriterSink(&buf)

	requests := make([]manifest.RequestDescriptor, 0, 20)
	for i := 0; i < 20; i++ {
		requests = append(requests, manifest.RequestDescriptor{ID: "r", Method: manifest.MethodGet, URL: srv.URL})
	}

	err := d.Run(context.Background(), requests, out)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	assert.Equal(t, int32(20), atomic.LoadInt32(&calls))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20)
	for _, line := range lines {
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &decoded))
		assert.Equal(t, float64(200), decoded["status"])
	}
}

func TestDispatcherRunWorkerCountCappedByRequestCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := engineconfig.DefaultEngineConfig()
	cfg.MaxConcurrency = 50
	d := New(cfg, nil)

	var buf bytes.Buffer
	out := sink.NewWriterSink(&buf)

	requests := []manifest.RequestDescriptor{
		{ID: "r1", Method: manifest.MethodGet, URL: srv.URL},
		{ID: "r2", Method: manifest.MethodGet, URL: srv.URL},
	}

	err := d.Run(context.Background(), requests, out)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestDispatcherRunEmptyBatchIsNoop(t *testing.T) {
	cfg := engineconfig.DefaultEngineConfig()
	d := New(cfg, nil)
	var buf bytes.Buffer
	out := sink.NewWriterSink(&buf)

	err := d.Run(context.Background(), nil, out)
	require.NoError(t, err)
	require.NoError(t, out.Close())
	assert.Empty(t, buf.String())
}
