package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the HTTP and invoicing instruments registered with
// the default prometheus registry.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	InvoicesCreated       prometheus.Counter
	InvoiceCreateFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		InvoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoices_created_total",
			Help: "Successfully committed invoice creations.",
		}),
		InvoiceCreateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoice_create_failures_total",
			Help: "Invoice creations rolled back with an error.",
		}),
	}

	prometheus.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.InvoicesCreated,
		m.InvoiceCreateFailures,
	)
	return m
}

// GinMiddleware records request counts and latency per templated route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
