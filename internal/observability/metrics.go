package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	sessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scipnet",
			Subsystem: "terminal",
			Name:      "sessions_total",
			Help:      "Terminal sessions by outcome.",
		},
		[]string{"outcome"},
	)
	messages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scipnet",
			Subsystem: "protocol",
			Name:      "messages_total",
			Help:      "Envelopes sent and received by message type.",
		},
		[]string{"direction", "type"},
	)
	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scipnet",
			Subsystem: "terminal",
			Name:      "auth_total",
			Help:      "Authentication attempts by result.",
		},
		[]string{"result"},
	)
	accessDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scipnet",
			Subsystem: "terminal",
			Name:      "access_total",
			Help:      "Access decisions by file type and verdict.",
		},
		[]string{"f_type", "verdict"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(sessions, messages, authAttempts, accessDecisions)
	})
}

func RecordSession(outcome string) {
	RegisterMetrics()
	sessions.WithLabelValues(outcome).Inc()
}

func RecordMessage(direction, msgType string) {
	RegisterMetrics()
	messages.WithLabelValues(direction, msgType).Inc()
}

func RecordAuth(result string) {
	RegisterMetrics()
	authAttempts.WithLabelValues(result).Inc()
}

func RecordAccess(fType, verdict string) {
	RegisterMetrics()
	accessDecisions.WithLabelValues(fType, verdict).Inc()
}
