package pkg

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MilestoneTransitions 里程碑状态迁移，result=ok|rejected
	MilestoneTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_milestone_transitions_total",
			Help: "Milestone state transitions by action and result",
		},
		[]string{"action", "result"},
	)

	LedgerWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_ledger_writes_total",
			Help: "Ledger appends by type and result",
		},
		[]string{"type", "result"},
	)

	UpstreamCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_upstream_calls_total",
			Help: "Calls to external collaborators by target and result",
		},
		[]string{"target", "result"},
	)

	OutboxDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_outbox_deliveries_total",
			Help: "Ledger outbox deliveries by result",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentor_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(MilestoneTransitions)
	prometheus.MustRegister(LedgerWrites)
	prometheus.MustRegister(UpstreamCalls)
	prometheus.MustRegister(OutboxDeliveries)
	prometheus.MustRegister(HTTPRequestDuration)
}

func ResultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
