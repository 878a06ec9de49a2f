package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	auditEventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_audit_events_published_total",
			Help: "Total number of audit events published.",
		},
		[]string{"level"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	grpcRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_grpc_requests_total",
			Help: "Total number of internal gRPC calls.",
		},
		[]string{"method", "code"},
	)
	metricsOnce sync.Once
)

func InitMetrics(reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		reg.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			auditEventsPublishedTotal,
			amqpPublishErrorsTotal,
			grpcRequestsTotal,
		)
	})
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func IncAuditEventPublished(level string) {
	if level == "" {
		level = "unknown"
	}
	auditEventsPublishedTotal.WithLabelValues(level).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func RecordGRPCRequest(method, code string) {
	grpcRequestsTotal.WithLabelValues(method, code).Inc()
}
