package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreIsolatedPerInstance(t *testing.T) {
	first := New()
	second := New()

	first.IncrementSubmissionsCreated()
	first.IncrementSubmissionsCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(first.SubmissionsCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.SubmissionsCreated))
}

func TestRecordValidationFailures(t *testing.T) {
	m := New()
	m.RecordValidationFailures(map[string]string{
		"aadhaar": "Aadhaar must be exactly 12 digits",
		"pan":     "PAN Number is required",
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("aadhaar")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("pan")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("email")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.IncrementRateLimited("/api/submit")
	m.ObserveRequest(http.MethodGet, "/api/stats", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `udyam_rate_limited_requests_total{route="/api/submit"} 1`)
	assert.Contains(t, body, "udyam_http_request_duration_seconds_bucket")
}
