package engine

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
	"github.com/deploymenttheory/batchhttp/internal/manifest"
	"github.com/deploymenttheory/batchhttp/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessBatchEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/notfound":
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := engineconfig.DefaultEngineConfig()
	cfg.MaxConcurrency = 3
	e := New(cfg, nil)

	var buf bytes.Buffer
	out := sink.NewWriterSink(&buf)

	requests := []manifest.RequestDescriptor{
		{ID: "a", Method: manifest.MethodGet, URL: srv.URL + "/ok"},
		{ID: "b", Method: manifest.MethodGet, URL: srv.URL + "/notfound"},
	}

	err := e.ProcessBatch(context.Background(), requests, out)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}
