// Package observability exposes Prometheus metrics for the aggregator.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokenagg/internal/application/port"
)

// Metrics implements port.Metrics on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	// Fetch metrics
	FetchRetries   *prometheus.CounterVec
	SourceRequests *prometheus.CounterVec
	SourceLatency  *prometheus.HistogramVec

	// Pull path
	CacheLookups *prometheus.CounterVec

	// Monitor metrics
	PollCycles        *prometheus.CounterVec
	PollDuration      prometheus.Histogram
	SpikesEmitted     *prometheus.CounterVec
	ActiveSubscribers prometheus.Gauge

	// Websocket
	DroppedFrames *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tokenagg"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FetchRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Upstream request retries by host",
		}, []string{"host"}),
		SourceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "source_requests_total",
			Help:      "Per-source fetch results",
		}, []string{"source", "result"}),
		SourceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "source_duration_seconds",
			Help:      "Per-source fetch latency including retries",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Pull-path cache lookups by result",
		}, []string{"result"}),

		PollCycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "poll_cycles_total",
			Help:      "Monitor poll cycles by result",
		}, []string{"result"}),
		PollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "poll_duration_seconds",
			Help:      "Monitor poll cycle duration",
			Buckets:   prometheus.DefBuckets,
		}),
		SpikesEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "spikes_emitted_total",
			Help:      "Spike events emitted by kind",
		}, []string{"kind"}),
		ActiveSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "active_subscribers",
			Help:      "Connections with an active polling loop",
		}),

		DroppedFrames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "dropped_frames_total",
			Help:      "Frames dropped on a full client send buffer",
		}, []string{"event"}),
	}
}

func (m *Metrics) FetchRetry(host string) {
	m.FetchRetries.WithLabelValues(host).Inc()
}

func (m *Metrics) SourceResult(source string, err error, d time.Duration) {
	m.SourceRequests.WithLabelValues(source, result(err)).Inc()
	m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) PollCycle(err error, d time.Duration) {
	m.PollCycles.WithLabelValues(result(err)).Inc()
	m.PollDuration.Observe(d.Seconds())
}

func (m *Metrics) SpikeEmitted(kind string) {
	m.SpikesEmitted.WithLabelValues(kind).Inc()
}

func (m *Metrics) Subscribers(n int) {
	m.ActiveSubscribers.Set(float64(n))
}

func (m *Metrics) FrameDropped(event string) {
	m.DroppedFrames.WithLabelValues(event).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var _ port.Metrics = (*Metrics)(nil)
