// Package metrics holds Prometheus instruments that are used across the
// engine.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the transform counters.
const (
	OutcomeRewritten = "rewritten"
	OutcomeUnchanged = "unchanged"
	OutcomeBypassed  = "bypassed"
	OutcomeCached    = "cached"
	OutcomeCollision = "collision"
	OutcomeResolved  = "resolved"
	OutcomeHistory   = "history"
	OutcomePartial   = "partial"
	OutcomeFallback  = "fallback"
)

// Front-controller actions.
const (
	ActionRedirect    = "redirect"
	ActionStatic      = "static"
	ActionRewritten   = "rewritten"
	ActionPassthrough = "passthrough"
)

var (
	CleanTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanurls_clean_total",
			Help: "Forward transforms by outcome.",
		}, []string{"outcome"})

	UncleanTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanurls_unclean_total",
			Help: "Backward transforms by outcome.",
		}, []string{"outcome"})

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanurls_cache_requests_total",
			Help: "Two-way cache lookups by namespace and result.",
		}, []string{"namespace", "result"})

	CacheErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cleanurls_cache_errors_total",
			Help: "Cache backend errors (treated as misses).",
		})

	InvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanurls_invalidations_total",
			Help: "Cache entries evicted by resource events.",
		}, []string{"event"})

	HistoryWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cleanurls_history_writes_total",
			Help: "History records written by the cleaner.",
		})

	FrontRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanurls_front_requests_total",
			Help: "Front-controller requests by action and user-agent class.",
		}, []string{"action", "agent"})

	RejectedHandlersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cleanurls_rejected_format_handlers_total",
			Help: "Course-format handlers rejected for implementing one direction only.",
		})
)

func init() {
	prometheus.MustRegister(
		CleanTotal,
		UncleanTotal,
		CacheRequestsTotal,
		CacheErrorsTotal,
		InvalidationsTotal,
		HistoryWritesTotal,
		FrontRequestsTotal,
		RejectedHandlersTotal,
	)
}
