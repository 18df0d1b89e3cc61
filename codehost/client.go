// Package codehost proxies read-only repository listings from the code
// hosting API. Responses are returned as received, whatever their status.
package codehost

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robodex/robodex-backend/internal/metrics"
	"github.com/robodex/robodex-backend/internal/upstream"
	"golang.org/x/oauth2"
)

const (
	upstreamName  = "codehost"
	acceptHeader  = "application/vnd.github+json"
	maxBodyBytes  = 8 << 20
	defaultAPIURL = "https://api.github.com"
)

// Resource is a repository listing that may be proxied.
type Resource string

const (
	Issues       Resource = "issues"
	Pulls        Resource = "pulls"
	Contributors Resource = "contributors"
)

func (r Resource) Valid() bool {
	switch r {
	case Issues, Pulls, Contributors:
		return true
	}
	return false
}

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidSegment reports whether s can be used as an owner or repository name.
func ValidSegment(s string) bool {
	return s != "." && s != ".." && segmentPattern.MatchString(s)
}

// Response is an upstream reply passed through to the caller.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
}

type options struct {
	token      string
	httpClient *http.Client
	timeout    time.Duration
	registerer prometheus.Registerer
}

type Option func(*options)

// WithToken authenticates requests with a static bearer token.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New returns a client for baseURL, defaulting to the public GitHub API.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse code host url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("code host url %q must be absolute", baseURL)
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
	transport := metrics.InstrumentRoundTripper(o.registerer, upstreamName, hc.Transport)
	if o.token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token}),
			Base:   transport,
		}
	}
	hc.Transport = transport

	return &Client{baseURL: u, httpClient: hc, timeout: o.timeout}, nil
}

// RepoResource fetches <base>/repos/<owner>/<repo>/<resource>. Non-2xx
// replies are returned as a Response, not as an error.
func (c *Client) RepoResource(ctx context.Context, owner, repo string, resource Resource) (*Response, error) {
	if !ValidSegment(owner) || !ValidSegment(repo) || !resource.Valid() {
		return nil, errors.Errorf("invalid repository path %q/%q/%q", owner, repo, resource)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := *c.baseURL
	u.Path = path.Join(u.Path, "repos", owner, repo, string(resource))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &upstream.TransportError{Upstream: upstreamName, Op: "build", Err: errors.WithStack(err)}
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &upstream.TransportError{Upstream: upstreamName, Op: "send", Err: errors.Wrapf(err, "GET %s", u.Path)}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
	}()

	body, err := upstream.ReadBody(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, &upstream.TransportError{Upstream: upstreamName, Op: "read", Err: errors.WithStack(err)}
	}
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
