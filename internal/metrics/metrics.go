package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	friendMetricsOnce sync.Once

	friendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_requests_total",
			Help: "Total number of friend request attempts",
		},
		[]string{"status"},
	)

	friendRequestViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_request_violations_total",
			Help: "Total number of friend requests refused by a business rule",
		},
		[]string{"reason"},
	)

	friendAcceptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_accepts_total",
			Help: "Total number of friend request accept attempts",
		},
		[]string{"status"},
	)

	friendRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_rejects_total",
			Help: "Total number of friend request reject attempts",
		},
		[]string{"status"},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Total number of sign up attempts",
		},
		[]string{"status"},
	)
)

func RegisterFriendMetrics() {
	friendMetricsOnce.Do(func() {
		prometheus.MustRegister(
			friendRequestsTotal,
			friendRequestViolationsTotal,
			friendAcceptsTotal,
			friendRejectsTotal,
			loginsTotal,
			registrationsTotal,
		)
	})
}

func IncFriendRequest(status string) {
	RegisterFriendMetrics()
	friendRequestsTotal.WithLabelValues(status).Inc()
}

func IncFriendViolation(reason string) {
	RegisterFriendMetrics()
	friendRequestViolationsTotal.WithLabelValues(reason).Inc()
}

func IncFriendAccept(status string) {
	RegisterFriendMetrics()
	friendAcceptsTotal.WithLabelValues(status).Inc()
}

func IncFriendReject(status string) {
	RegisterFriendMetrics()
	friendRejectsTotal.WithLabelValues(status).Inc()
}

func IncLogin(status string) {
	RegisterFriendMetrics()
	loginsTotal.WithLabelValues(status).Inc()
}

func IncRegistration(status string) {
	RegisterFriendMetrics()
	registrationsTotal.WithLabelValues(status).Inc()
}
