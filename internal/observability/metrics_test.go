package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	InitMetrics(reg)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/friends", "200"))
	RecordHTTPRequest(http.MethodGet, "/friends", http.StatusOK, 15*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/friends", "200")))

	RecordHTTPRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "404")), 1.0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestAuditCounters(t *testing.T) {
	before := testutil.ToFloat64(auditEventsPublishedTotal.WithLabelValues("unknown"))
	IncAuditEventPublished("")
	assert.Equal(t, before+1, testutil.ToFloat64(auditEventsPublishedTotal.WithLabelValues("unknown")))

	errs := testutil.ToFloat64(amqpPublishErrorsTotal)
	IncAMQPPublishError()
	assert.Equal(t, errs+1, testutil.ToFloat64(amqpPublishErrorsTotal))
}
