// internal/provider/client.go
//
// REST client for the external auth provider.
//
// Context
// -------
// The provider speaks the GoTrue v1 API under `<url>/auth/v1` and exposes
// its database through PostgREST under `<url>/rest/v1`.  Every request
// carries the project's anon key in the `apikey` header.  Calls made on
// behalf of a signed-in user also carry `Authorization: Bearer <token>`,
// which the provider uses for row-level security.
//
// A *Client is immutable after New.  WithToken returns a shallow copy bound
// to one user's token, so concurrent requests never share credentials.
//
// Instrumentation
// ---------------
//   - Every call is counted and timed in Prometheus by operation name.
//   - DEBUG log per call with op, status, and duration.  Tokens are never
//     logged.
//
// Notes
// -----
// • Errors from the provider decode into *APIError.  Transport failures
//   stay as wrapped net/url errors; IsTransient tells them apart.
// • Oxford commas, two spaces after periods.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/adept-auth/internal/metrics"
)

// Options configures New.
type Options struct {
	URL        string        // project base URL, e.g. https://xyz.supabase.co
	AnonKey    string        // public API key sent as `apikey`
	Timeout    time.Duration // per-request timeout; 10s when zero
	HTTPClient *http.Client  // overrides the default client (tests)
}

// Client talks to the provider.  Safe for concurrent use.
type Client struct {
	base  *url.URL
	key   string
	token string
	hc    *http.Client
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("provider: invalid url %q", opts.URL)
	}
	if opts.AnonKey == "" {
		return nil, errors.New("provider: anon key required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{base: u, key: opts.AnonKey, hc: hc}, nil
}

// WithToken returns a copy of c that authenticates as the holder of token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token reports the bearer token bound by WithToken, or "".
func (c *Client) Token() string { return c.token }

// call describes one HTTP exchange.
type call struct {
	op     string // metrics label
	method string
	path   string // relative to base, e.g. "/auth/v1/user"
	query  url.Values
	header http.Header
	body   any
	out    any
}

func (c *Client) do(ctx context.Context, cl call) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		metrics.ProviderRequestsTotal.WithLabelValues(cl.op, metrics.Result(err)).Inc()
		metrics.ProviderRequestDuration.WithLabelValues(cl.op).Observe(time.Since(start).Seconds())
		zap.L().Debug("provider call",
			zap.String("op", cl.op),
			zap.Int("status", status),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
	}()

	u := *c.base
	u.Path += cl.path
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var rdr io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("provider %s: encode: %w", cl.op, err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), rdr)
	if err != nil {
		return fmt.Errorf("provider %s: %w", cl.op, err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Accept", "application/json")
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, vs := range cl.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("provider %s: %w", cl.op, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("provider %s: read body: %w", cl.op, err)
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, body)
	}
	if cl.out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, cl.out); err != nil {
		return fmt.Errorf("provider %s: decode: %w", cl.op, err)
	}
	return nil
}
