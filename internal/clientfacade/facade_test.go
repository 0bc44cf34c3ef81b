package clientfacade

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deploymenttheory/batchhttp/internal/classify"
	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
	"github.com/deploymenttheory/batchhttp/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacadeDoSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	cfg := engineconfig.DefaultEngineConfig()
	f, err := New(cfg)
	require.NoError(t, err)

	resp, err := f.Do(context.Background(), &manifest.RequestDescriptor{
		ID: "r1", Method: manifest.MethodGet, URL: srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "hello", string(resp.Body))
	assert.Equal(t, "yes", resp.Headers["X-Test"])
}

func TestFacadeDoBodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100))
	}))
	defer srv.Close()

	cfg := engineconfig.DefaultEngineConfig()
	cfg.MaxBodyBytes = 10
	f, err := New(cfg)
	require.NoError(t, err)

	_, err = f.Do(context.Background(), &manifest.RequestDescriptor{
		ID: "r1", Method: manifest.MethodGet, URL: srv.URL,
	})
	require.Error(t, err)
	var transportErr *classify.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, classify.BodyTooLarge, transportErr.Kind)
}

func TestFacadeDoConnectFailed(t *testing.T) {
	cfg := engineconfig.DefaultEngineConfig()
	f, err := New(cfg)
	require.NoError(t, err)

	_, err = f.Do(context.Background(), &manifest.RequestDescriptor{
		ID: "r1", Method: manifest.MethodGet, URL: "http://127.0.0.1:1",
	})
	require.Error(t, err)
	var transportErr *classify.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, classify.ConnectFailed, transportErr.Kind)
}

func TestFacadeDoTooManyRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/next", http.StatusFound)
	}))
	defer srv.Close()

	cfg := engineconfig.DefaultEngineConfig()
	cfg.FollowRedirects = true
	cfg.MaxRedirects = 2
	f, err := New(cfg)
	require.NoError(t, err)

	_, err = f.Do(context.Background(), &manifest.RequestDescriptor{
		ID: "r1", Method: manifest.MethodGet, URL: srv.URL,
	})
	require.Error(t, err)
	var transportErr *classify.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, classify.TooManyRedirects, transportErr.Kind)
}

func TestFacadeDoPostSendsBody(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		received = string(buf)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cfg := engineconfig.DefaultEngineConfig()
	f, err := New(cfg)
	require.NoError(t, err)

	resp, err := f.Do(context.Background(), &manifest.RequestDescriptor{
		ID: "r1", Method: manifest.MethodPost, URL: srv.URL, Body: `{"ok":true}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, `{"ok":true}`, received)
}

func TestFacadeDoUserAgentDefault(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	cfg := engineconfig.DefaultEngineConfig()
	f, err := New(cfg)
	require.NoError(t, err)

	_, err = f.Do(context.Background(), &manifest.RequestDescriptor{
		ID: "r1", Method: manifest.MethodGet, URL: srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, engineconfig.DefaultUserAgent, gotUA)
}
