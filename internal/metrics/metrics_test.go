package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordOutcome("sent")
	c.RecordOutcome("sent")
	c.RecordOutcome("rate_limited")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.submissions.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.submissions.WithLabelValues("rate_limited")))
}

func TestRecordHTTPStatus(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordHTTPStatus(http.StatusTooManyRequests)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("429")))
}

func TestLatencyHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordVerificationLatency(120 * time.Millisecond)
	c.RecordMailLatency(2 * time.Second)

	count, err := testutil.GatherAndCount(reg,
		"contact_relay_verification_latency_seconds",
		"contact_relay_mail_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordOutcome("sent")

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `contact_relay_submissions_total{outcome="sent"} 1`)
}
