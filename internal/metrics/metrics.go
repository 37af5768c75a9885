// Package metrics exposes prometheus collectors for playlist synchronization and the HTTP service.
//
// Each [Recorder] owns its registry, so tests and multiple servers never collide on the default one.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/plconv/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plconv"

// Sync results recorded by [Recorder.SyncFinished].
const (
	ResultCompleted = "completed"
	ResultCancelled = "cancelled"
	ResultFailed    = "failed"
)

// Recorder holds the collectors and the registry they are registered with.
type Recorder struct {
	registry *prometheus.Registry
	tracks   *prometheus.CounterVec
	syncs    *prometheus.CounterVec
	duration prometheus.Histogram
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New creates a Recorder with a fresh registry that also carries the Go runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		tracks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_total",
			Help:      "Tracks processed by outcome status.",
		}, []string{"status"}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "syncs_total",
			Help:      "Synchronizations by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of a synchronization, including inter-call delays.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.tracks,
		r.syncs,
		r.duration,
		r.requests,
		r.latency,
	)
	return r
}

// TrackOutcome counts one processed track.
func (r *Recorder) TrackOutcome(status models.MatchStatus) {
	r.tracks.WithLabelValues(status.String()).Inc()
}

// SyncFinished counts one synchronization and observes its duration.
func (r *Recorder) SyncFinished(result string, elapsed time.Duration) {
	r.syncs.WithLabelValues(result).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request.
func (r *Recorder) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	r.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Registry returns the underlying prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
