// Package metrics holds the collectors shared by the server and its upstream
// clients.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "robodex"

// Register registers c with reg. When an equivalent collector is already
// registered the existing one is returned, so several clients built against
// the same registry share their vectors.
func Register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func upstreamDuration(reg prometheus.Registerer) *prometheus.HistogramVec {
	return Register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "A histogram of outbound request latencies per upstream.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"upstream", "code", "method"},
	))
}

// InstrumentRoundTripper records the duration of every request sent through
// next under the given upstream label. A nil registerer leaves next untouched.
func InstrumentRoundTripper(reg prometheus.Registerer, upstream string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if reg == nil {
		return next
	}
	histVec := upstreamDuration(reg).MustCurryWith(prometheus.Labels{"upstream": upstream})
	return promhttp.InstrumentRoundTripperDuration(histVec, next)
}

// CacheLookups counts clearance cache hits and misses per backend.
func CacheLookups(reg prometheus.Registerer) *prometheus.CounterVec {
	return Register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clearance_cache_lookups_total",
			Help:      "Clearance cache lookups by backend and result.",
		},
		[]string{"backend", "result"},
	))
}

// HTTPServer holds the inbound request collectors.
type HTTPServer struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewHTTPServer(reg prometheus.Registerer) *HTTPServer {
	return &HTTPServer{
		Requests: Register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Inbound requests by route, method and status code.",
			},
			[]string{"route", "code", "method"},
		)),
		Duration: Register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Inbound request latencies by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "code", "method"},
		)),
	}
}

// Instrument wraps h with the counter and histogram curried to route.
func (m *HTTPServer) Instrument(route string, h http.Handler) http.Handler {
	labels := prometheus.Labels{"route": route}
	return promhttp.InstrumentHandlerDuration(m.Duration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.Requests.MustCurryWith(labels), h),
	)
}
