// Package metrics collects and exposes Prometheus metrics for the relay.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records contact pipeline metrics
type Collector struct {
	submissions         *prometheus.CounterVec
	httpStatus          *prometheus.CounterVec
	verificationLatency prometheus.Histogram
	mailLatency         prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_relay_submissions_total",
			Help: "Contact form submissions by outcome",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_relay_http_status_total",
			Help: "Responses by HTTP status code",
		}, []string{"status_code"}),
		verificationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contact_relay_verification_latency_seconds",
			Help:    "Latency of human verification requests in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		mailLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contact_relay_mail_latency_seconds",
			Help:    "Latency of SMTP delivery in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.submissions,
		c.httpStatus,
		c.verificationLatency,
		c.mailLatency,
	)

	return c
}

// RecordOutcome counts a finished submission
func (c *Collector) RecordOutcome(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus counts a response status code
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordVerificationLatency(d time.Duration) {
	c.verificationLatency.Observe(d.Seconds())
}

func (c *Collector) RecordMailLatency(d time.Duration) {
	c.mailLatency.Observe(d.Seconds())
}

// Handler returns the Prometheus scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
