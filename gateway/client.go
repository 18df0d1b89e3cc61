// Package gateway is the client for the database's REST/RPC gateway. Tables
// are read with Select, changed with Patch and stored functions are invoked
// with Call. The service key authenticates every request; end-user
// credentials are never forwarded.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robodex/robodex-backend/internal/metrics"
	"github.com/robodex/robodex-backend/internal/upstream"
)

const (
	upstreamName = "gateway"
	restPrefix   = "/rest/v1"
	maxBodyBytes = 8 << 20
)

// API is the capability handlers and stores depend on.
type API interface {
	// Select decodes the matching rows of table into dest.
	Select(ctx context.Context, table string, q *Query, dest any) error
	// Call invokes a stored function with named params and decodes its result
	// into dest. A nil dest discards the result.
	Call(ctx context.Context, fn string, params any, dest any) error
	// Patch updates fields on the rows of table matching q. A non-nil dest
	// receives the updated rows, so an empty result means nothing matched.
	Patch(ctx context.Context, table string, q *Query, fields map[string]any, dest any) error
}

type Client struct {
	baseURL    *url.URL
	serviceKey string
	httpClient *http.Client
	timeout    time.Duration
}

var _ API = (*Client)(nil)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	registerer prometheus.Registerer
}

type Option func(*options)

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout bounds every call. Zero leaves calls bounded only by the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func New(baseURL, serviceKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse gateway url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("gateway url %q must be absolute", baseURL)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	hc := &http.Client{}
	if o.httpClient != nil {
		copied := *o.httpClient
		hc = &copied
	}
	hc.Transport = metrics.InstrumentRoundTripper(o.registerer, upstreamName, hc.Transport)

	return &Client{
		baseURL:    u,
		serviceKey: serviceKey,
		httpClient: hc,
		timeout:    o.timeout,
	}, nil
}

func (c *Client) Select(ctx context.Context, table string, q *Query, dest any) error {
	return c.do(ctx, http.MethodGet, c.endpoint(table, q), nil, nil, dest)
}

func (c *Client) Call(ctx context.Context, fn string, params any, dest any) error {
	if params == nil {
		params = map[string]any{}
	}
	return c.do(ctx, http.MethodPost, c.endpoint(path.Join("rpc", fn), nil), params, nil, dest)
}

func (c *Client) Patch(ctx context.Context, table string, q *Query, fields map[string]any, dest any) error {
	prefer := "return=minimal"
	if dest != nil {
		prefer = "return=representation"
	}
	header := http.Header{"Prefer": []string{prefer}}
	return c.do(ctx, http.MethodPatch, c.endpoint(table, q), fields, header, dest)
}

func (c *Client) endpoint(target string, q *Query) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, restPrefix, target)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, header http.Header, dest any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &upstream.TransportError{Upstream: upstreamName, Op: "encode", Err: errors.WithStack(err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &upstream.TransportError{Upstream: upstreamName, Op: "build", Err: errors.WithStack(err)}
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &upstream.TransportError{Upstream: upstreamName, Op: "send", Err: errors.Wrapf(err, "%s %s", method, req.URL.Path)}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
	}()

	data, err := upstream.ReadBody(resp.Body, maxBodyBytes)
	if err != nil {
		return &upstream.TransportError{Upstream: upstreamName, Op: "read", Err: errors.WithStack(err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &upstream.Error{Upstream: upstreamName, Status: resp.StatusCode, Body: string(data)}
	}
	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &upstream.TransportError{Upstream: upstreamName, Op: "decode", Err: errors.Wrapf(err, "%s %s", method, req.URL.Path)}
	}
	return nil
}
