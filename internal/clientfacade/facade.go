// Package clientfacade implements the worker-isolated HTTP client facade
// (C1): a thin wrapper around one *http.Client / http.Transport pair,
// never shared across goroutines, adapted from httpclient.Client's
// per-client cookie jar, redirect, and proxy setup but stripped of the
// vendor-auth and concurrency-handler concerns that belonged to a
// single shared client.
package clientfacade

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/deploymenttheory/batchhttp/internal/classify"
	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
	"github.com/deploymenttheory/batchhttp/internal/manifest"
)

// ClientResponse is the facade's normalized view of a completed HTTP
// round trip, before retry or manifest concerns are applied.
type ClientResponse struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// ProxyConfig carries optional upstream proxy settings, adapted from
// proxy.InitializeProxy.
type ProxyConfig struct {
	URL      string
	Username string
	Password string
}

// Facade is one worker's private HTTP client. Workers never share a
// Facade: each owns its own *http.Client, transport, and cookie jar, so
// no client is ever handed off between workers, by construction rather
// than by locking.
type Facade struct {
	client       *http.Client
	maxBodyBytes int64
	userAgent    string
}

// Option configures a Facade at construction time.
type Option func(*http.Client, *Facade)

// WithTransport overrides the facade's http.RoundTripper, primarily for
// tests that inject testtransport.RoundTripper instead of dialing a real
// network, mirroring httpclient.ClientConfig.HTTPExecutor's injectable
// executor.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *http.Client, f *Facade) {
		c.Transport = rt
	}
}

// WithProxy routes the facade's transport through an upstream proxy,
// optionally with basic auth, adapted from proxy.InitializeProxy.
func WithProxy(p ProxyConfig) Option {
	return func(c *http.Client, f *Facade) {
		if p.URL == "" {
			return
		}
		parsed, err := url.Parse(p.URL)
		if err != nil {
			return
		}
		if p.Username != "" && p.Password != "" {
			parsed.User = url.UserPassword(p.Username, p.Password)
		}
		transport, ok := c.Transport.(*http.Transport)
		if !ok {
			transport = &http.Transport{}
		}
		transport.Proxy = http.ProxyURL(parsed)
		c.Transport = transport
	}
}

// New builds a Facade bound to one EngineConfig snapshot. Redirect
// following, its hop cap, and the cookie jar are all scoped to this
// client instance only.
func New(cfg *engineconfig.EngineConfig, opts ...Option) (*Facade, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("clientfacade: create cookie jar: %w", err)
	}

	client := &http.Client{
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
		Timeout:   cfg.Timeout(),
		Jar:       jar,
	}

	f := &Facade{
		maxBodyBytes: cfg.MaxBodyBytes,
		userAgent:    cfg.UserAgent,
	}

	if cfg.FollowRedirects {
		client.CheckRedirect = maxRedirectsPolicy(cfg.MaxRedirects)
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	for _, opt := range opts {
		opt(client, f)
	}

	f.client = client
	return f, nil
}

// maxRedirectsPolicy caps the number of hops a request may follow,
// adapted from redirecthandler.RedirectHandler.checkRedirect's
// len(via) >= MaxRedirects guard, without the permanent-redirect cache
// or cross-domain header stripping the source layered on top: the
// batch engine has no session state worth protecting across a redirect.
func maxRedirectsPolicy(max int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return &classify.TransportError{
				Kind: classify.TooManyRedirects,
				Err:  fmt.Errorf("stopped after %d redirects", max),
			}
		}
		return nil
	}
}

// Do executes one HTTP round trip for the given manifest request,
// classifying any transport-layer failure into a *classify.TransportError
// rather than returning the raw net/http error.
func (f *Facade) Do(ctx context.Context, req *manifest.RequestDescriptor) (*ClientResponse, error) {
	var bodyReader io.Reader
	if req.Body != "" && req.Method.AllowsBody() {
		bodyReader = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), req.URL, bodyReader)
	if err != nil {
		return nil, classify.NewTransportError(classify.InvalidMethod, err)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if httpReq.Header.Get("User-Agent") == "" && f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, classifyDoError(err)
	}
	defer resp.Body.Close()

	body, err := readBodyCapped(resp.Body, f.maxBodyBytes)
	if err != nil {
		return nil, err
	}

	return &ClientResponse{
		Status:  resp.StatusCode,
		Headers: flattenHeaders(resp.Header),
		Body:    body,
	}, nil
}

// readBodyCapped reads at most limit+1 bytes so it can distinguish "body
// fit within limit" from "body exceeded limit" without buffering an
// unbounded response, classifying the overflow case as a transport
// failure rather than silently truncating (manifest.TruncateBody handles
// the wire-size cap on the way out, not here).
func readBodyCapped(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, classify.NewTransportError(classify.ReadFailed, err)
		}
		return body, nil
	}

	limited := io.LimitReader(r, limit+1)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(limited); err != nil {
		return nil, classify.NewTransportError(classify.ReadFailed, err)
	}
	if int64(buf.Len()) > limit {
		return nil, classify.NewTransportError(classify.BodyTooLarge, fmt.Errorf("response body exceeded %d bytes", limit))
	}
	return buf.Bytes(), nil
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

// classifyDoError maps the grab-bag of errors *http.Client.Do can return
// into the fixed TransportFailureKind vocabulary, adapted from the status
// and error-shape checks scattered across errors.HandleAPIErrorResponse
// and response.HandleAPIErrorResponse in the wider client library.
func classifyDoError(err error) error {
	var transportErr *classify.TransportError
	if ok := asTransportError(err, &transportErr); ok {
		return transportErr
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Client.Timeout") || strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "i/o timeout"):
		return classify.NewTransportError(classify.Timeout, err)
	case strings.Contains(msg, "context canceled"):
		return classify.NewTransportError(classify.ConnectFailed, err)
	case strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:"):
		return classify.NewTransportError(classify.TlsHandshakeFailed, err)
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") || strings.Contains(msg, "network is unreachable"):
		return classify.NewTransportError(classify.ConnectFailed, err)
	case strings.Contains(msg, "stopped after") && strings.Contains(msg, "redirects"):
		return classify.NewTransportError(classify.TooManyRedirects, err)
	default:
		return classify.NewTransportError(classify.WriteFailed, err)
	}
}

func asTransportError(err error, target **classify.TransportError) bool {
	if te, ok := err.(*classify.TransportError); ok {
		*target = te
		return true
	}
	if urlErr, ok := err.(*url.Error); ok {
		return asTransportError(urlErr.Err, target)
	}
	return false
}
