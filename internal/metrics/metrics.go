// Package metrics exposes operational counters on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts handled HTTP requests by method, route and status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jims",
		Name:      "http_requests_total",
		Help:      "HTTP requests handled, by method, route and status.",
	}, []string{"method", "route", "status"})

	// ApprovalsTotal counts approval workflow outcomes by entity and result.
	ApprovalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jims",
		Name:      "approvals_total",
		Help:      "Approval decisions, by entity type and outcome.",
	}, []string{"entity", "outcome"})

	// CascadeDeletesTotal counts destructive cascades by target type.
	CascadeDeletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jims",
		Name:      "cascade_deletes_total",
		Help:      "Completed cascade deletions, by target type.",
	}, []string{"target"})
)
