// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	global *Metrics
	once   sync.Once
)

type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	PlanGenerations *prometheus.CounterVec
	WebhookEvents   *prometheus.CounterVec
	FeedEvents      *prometheus.CounterVec
	TaskToggles     *prometheus.CounterVec
	SagaFailures    *prometheus.CounterVec
}

// Get registers the collectors with the default registry on first use.
//
// Metrics:
//   - goalkeeper_http_requests_total{method,status}
//   - goalkeeper_http_request_duration_seconds{method}
//   - goalkeeper_plan_generations_total{outcome}: ok, parse_error, error, fallback
//   - goalkeeper_webhook_events_total{type,result}
//   - goalkeeper_feed_events_total{result}: published, delivered, duplicate
//   - goalkeeper_task_toggles_total{type}
//   - goalkeeper_saga_failures_total{saga}
func Get() *Metrics {
	once.Do(func() {
		global = &Metrics{
			HTTPRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goalkeeper_http_requests_total",
					Help: "Total number of HTTP requests served",
				},
				[]string{"method", "status"},
			),
			HTTPDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "goalkeeper_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method"},
			),
			PlanGenerations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goalkeeper_plan_generations_total",
					Help: "Total number of goal plan generations by outcome",
				},
				[]string{"outcome"},
			),
			WebhookEvents: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goalkeeper_webhook_events_total",
					Help: "Total number of identity webhook events",
				},
				[]string{"type", "result"},
			),
			FeedEvents: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goalkeeper_feed_events_total",
					Help: "Total number of community feed events",
				},
				[]string{"result"},
			),
			TaskToggles: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goalkeeper_task_toggles_total",
					Help: "Total number of task completion toggles",
				},
				[]string{"type"},
			),
			SagaFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goalkeeper_saga_failures_total",
					Help: "Total number of multi-step writes that did not complete",
				},
				[]string{"saga"},
			),
		}
	})
	return global
}
