package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewClaimConflictsTotal returns a Prometheus counter for claim attempts that
// lost the single-winner race
func NewClaimConflictsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claim_conflicts_total",
		Help: "Total number of delivery claim attempts that lost the race",
	})
}

// NewSettlementsTotal returns a Prometheus counter for completed settlements
func NewSettlementsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Total number of settlement records written",
	})
}

// NewNotifyFailuresTotal returns a Prometheus counter for notification emit failures
func NewNotifyFailuresTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_failures_total",
		Help: "Total number of notification emissions that failed after commit",
	})
}

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}
