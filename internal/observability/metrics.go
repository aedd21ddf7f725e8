package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotel", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hotel", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotel", Name: "cache_events_total", Help: "Response cache hits/misses/sets."},
		[]string{"cache", "event"}, // event: hit|miss|set
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotel", Name: "payment_webhook_events_total", Help: "Payment gateway events by outcome."},
		[]string{"type", "outcome"}, // outcome: applied|ignored|dropped|failed|rejected
	)
	BookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "hotel", Name: "bookings_created_total", Help: "Bookings created from cart checkouts."},
	)
	PaymentsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotel", Name: "payments_applied_total", Help: "Payment upserts by action."},
		[]string{"action"}, // action: created|updated
	)
)

// InitRegistry registers the application collectors on a fresh registry.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, CacheEvents, WebhookEvents, BookingsCreated, PaymentsApplied)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveWebhook(eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}
