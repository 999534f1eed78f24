// Package metrics exposes prometheus counters for the fact-check core
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ClaimsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "factcheck_claims_submitted_total",
		Help: "Total claims submitted",
	})
	Verifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_verifications_total",
		Help: "Total verify calls by resulting status",
	}, []string{"status"})
	EngagementEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_engagement_events_total",
		Help: "Total engagement mutations by kind",
	}, []string{"kind"})
	PermissionDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_permission_denials_total",
		Help: "Total actions rejected by the access policy",
	}, []string{"action"})
	RankingCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_ranking_cache_total",
		Help: "Ranking cache lookups by result",
	}, []string{"result"})
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "factcheck_http_request_duration_seconds",
		Help:    "HTTP request duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(ClaimsSubmitted, Verifications, EngagementEvents, PermissionDenials, RankingCacheHits, RequestDuration)
}

// IncEngagement increments the counter for kind ("view", "like", ...)
func IncEngagement(kind string) { EngagementEvents.WithLabelValues(kind).Inc() }

// IncDenied increments the policy rejection counter
func IncDenied(action string) { PermissionDenials.WithLabelValues(action).Inc() }

// ObserveRequest records an HTTP request duration
func ObserveRequest(method, route, status string, start time.Time) {
	RequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
}
