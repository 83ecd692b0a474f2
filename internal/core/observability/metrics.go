package observability

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

type collectorSet struct {
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	upstreamLatencySeconds     *prometheus.HistogramVec
	upstreamFailuresTotal      *prometheus.CounterVec
	resolutionsTotal           *prometheus.CounterVec
	cacheOpTotal               *prometheus.CounterVec
	cacheOpDurationSeconds     *prometheus.HistogramVec
	cacheWriteFailuresTotal    prometheus.Counter
	writebackDroppedTotal      prometheus.Counter
	objectCacheTotal           *prometheus.CounterVec
	eventsDroppedTotal         prometheus.Counter
}

var current atomic.Pointer[collectorSet]

func init() {
	current.Store(newCollectorSet())
}

// Init swaps in a fresh collector set and registers it on reg when enabled.
// With metrics disabled the collectors still record but nothing exports them.
func Init(reg prometheus.Registerer, enabled bool) {
	cs := newCollectorSet()
	if enabled && reg != nil {
		reg.MustRegister(cs.all()...)
	}
	current.Store(cs)
}

func newCollectorSet() *collectorSet {
	return &collectorSet{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
			},
			[]string{"method", "route", "status"},
		),
		upstreamLatencySeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_latency_seconds",
				Help:    "Latency of upstream calls in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"upstream"},
		),
		upstreamFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_failures_total",
				Help: "Upstream failures by kind (transport, status, shape).",
			},
			[]string{"kind"},
		),
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pass_resolutions_total",
				Help: "Pass resolutions by data source.",
			},
			[]string{"source"},
		),
		cacheOpTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_op_total",
				Help: "Cache store operations by result.",
			},
			[]string{"op", "result"},
		),
		cacheOpDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cache_op_duration_seconds",
				Help:    "Duration of cache store operations in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"op"},
		),
		cacheWriteFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_write_failures_total",
			Help: "Write-through inserts that failed after retries.",
		}),
		writebackDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "writeback_dropped_total",
			Help: "Write-through batches dropped because the queue was full.",
		}),
		objectCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "object_cache_total",
				Help: "Tracked object lookups by LRU outcome.",
			},
			[]string{"outcome"},
		),
		eventsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pass_events_dropped_total",
			Help: "Resolution events dropped because the publish queue was full.",
		}),
	}
}

func (cs *collectorSet) all() []prometheus.Collector {
	return []prometheus.Collector{
		cs.httpRequestsTotal,
		cs.httpRequestDurationSeconds,
		cs.upstreamLatencySeconds,
		cs.upstreamFailuresTotal,
		cs.resolutionsTotal,
		cs.cacheOpTotal,
		cs.cacheOpDurationSeconds,
		cs.cacheWriteFailuresTotal,
		cs.writebackDroppedTotal,
		cs.objectCacheTotal,
		cs.eventsDroppedTotal,
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	cs := current.Load()
	st := strconv.Itoa(status)
	cs.httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	cs.httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, durationSeconds float64) {
	current.Load().upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
}

func IncUpstreamFailure(kind string) {
	current.Load().upstreamFailuresTotal.WithLabelValues(kind).Inc()
}

func ObserveResolution(source string) {
	current.Load().resolutionsTotal.WithLabelValues(source).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	cs := current.Load()
	result := "ok"
	if err != nil {
		result = "error"
	}
	cs.cacheOpTotal.WithLabelValues(op, result).Inc()
	cs.cacheOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncCacheWriteFailure() {
	current.Load().cacheWriteFailuresTotal.Inc()
}

func IncWriteBackDropped() {
	current.Load().writebackDroppedTotal.Inc()
}

func ObserveObjectCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	current.Load().objectCacheTotal.WithLabelValues(outcome).Inc()
}

func IncEventsDropped() {
	current.Load().eventsDroppedTotal.Inc()
}
