// Package metrics exposes the Prometheus collectors of the trash engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	capturedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "trash",
		Name:      "captured_total",
		Help:      "Trash entries written by the capture path, by entity type.",
	}, []string{"table"})

	restoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "trash",
		Name:      "restores_total",
		Help:      "Restore requests by result.",
	}, []string{"result"})

	restoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "trash",
		Name:      "restored_entities_total",
		Help:      "Rows rebuilt by restores, by entity type.",
	}, []string{"table"})

	restoreDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "trash",
		Name:      "restore_duration_seconds",
		Help:      "Wall time of restore transactions.",
		Buckets:   prometheus.DefBuckets,
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "API request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Bus events lost to full subscriber buffers, by event type.",
	}, []string{"type"})

	streamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "stream_clients",
		Help:      "Connected websocket subscribers of the notification feed.",
	})

	purgedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "trash",
		Name:      "purged_entries_total",
		Help:      "Trash entries removed for good, by operation.",
	}, []string{"operation"})
)

// Restore result labels.
const (
	ResultSuccess = "success"
	ResultBlocked = "blocked"
	ResultFailed  = "failed"
)

func Captured(table string) {
	capturedTotal.WithLabelValues(table).Inc()
}

func Restored(table string) {
	restoredTotal.WithLabelValues(table).Inc()
}

// ObserveRestore records one finished restore request.
func ObserveRestore(result string, elapsed time.Duration) {
	restoresTotal.WithLabelValues(result).Inc()
	restoreDuration.Observe(elapsed.Seconds())
}

func Purged(operation string, n int) {
	if n > 0 {
		purgedTotal.WithLabelValues(operation).Add(float64(n))
	}
}

func EventDropped(eventType string) {
	eventsDropped.WithLabelValues(eventType).Inc()
}

func StreamClients(n int) {
	streamClients.Set(float64(n))
}

// ObserveHTTP records one served request against its route pattern.
func ObserveHTTP(method, route, status string, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
