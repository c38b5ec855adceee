// Package metrics holds Prometheus instruments that are used across
// adept-auth.  All collectors are registered with the global registry, so
// mounting promhttp.Handler() in main.go is enough to expose them on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Gate outcomes used as the "outcome" label on GateDecisionsTotal.
const (
	OutcomeAllow      = "allow"
	OutcomeAnonymous  = "anonymous"
	OutcomeSignIn     = "redirect_sign_in"
	OutcomeOnboarding = "redirect_complete_profile"
	OutcomeResync     = "resync"
	OutcomeError      = "error"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adept_http_requests_total",
			Help: "HTTP requests served, by method and status code.",
		}, []string{"method", "code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adept_http_request_duration_seconds",
			Help:    "HTTP request latency, by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"})

	GateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adept_gate_decisions_total",
			Help: "Authentication gate results, by outcome.",
		}, []string{"outcome"})

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adept_provider_requests_total",
			Help: "Calls to the external auth provider, by operation and result.",
		}, []string{"op", "result"})

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adept_provider_request_duration_seconds",
			Help:    "Latency of calls to the external auth provider, by operation.",
			Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op"})

	AuthEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adept_auth_events_total",
			Help: "Sign-in, sign-up, sign-out, and onboarding events, by result.",
		}, []string{"event", "result"})

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adept_rate_limited_total",
			Help: "Requests rejected by the per-IP limiter.",
		})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		GateDecisionsTotal,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		AuthEventsTotal,
		RateLimitedTotal,
	)
}

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
