// Package cache provides clearance cache backends keyed by member id.
package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robodex/robodex-backend/internal/metrics"
)

type options struct {
	now        func() time.Time
	registerer prometheus.Registerer
	prefix     string
}

type Option func(*options)

// WithClock replaces time.Now for expiry in the memory backend.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRegisterer records hits and misses on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithKeyPrefix sets the Redis key prefix, "clearance:" by default.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, prefix: "clearance:"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type lookupCounter struct {
	hit  prometheus.Counter
	miss prometheus.Counter
}

func newLookupCounter(reg prometheus.Registerer, backend string) lookupCounter {
	if reg == nil {
		return lookupCounter{}
	}
	vec := metrics.CacheLookups(reg)
	return lookupCounter{
		hit:  vec.WithLabelValues(backend, "hit"),
		miss: vec.WithLabelValues(backend, "miss"),
	}
}

func (c lookupCounter) observe(hit bool) {
	switch {
	case hit && c.hit != nil:
		c.hit.Inc()
	case !hit && c.miss != nil:
		c.miss.Inc()
	}
}
