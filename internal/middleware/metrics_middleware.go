package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce         sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	paymentIntentsTotal *prometheus.CounterVec
	webhookEventsTotal  *prometheus.CounterVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "founderkit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route, method and status",
		}, []string{"route", "method", "status"})

		httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "founderkit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"})

		paymentIntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "founderkit",
			Subsystem: "checkout",
			Name:      "payment_intents_total",
			Help:      "Payment intent creation attempts by outcome",
		}, []string{"outcome"})

		webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "founderkit",
			Subsystem: "checkout",
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by event type and outcome",
		}, []string{"event_type", "outcome"})
	})
}

// MetricsMiddleware records request counts and latency per route.
func MetricsMiddleware() gin.HandlerFunc {
	initMetrics()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// CountPaymentIntent records a payment intent creation outcome.
func CountPaymentIntent(outcome string) {
	initMetrics()
	paymentIntentsTotal.WithLabelValues(outcome).Inc()
}

// CountWebhookEvent records a webhook delivery outcome.
func CountWebhookEvent(eventType, outcome string) {
	initMetrics()
	webhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}
