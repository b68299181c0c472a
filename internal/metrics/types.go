package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	MatchesCommitted   prometheus.Counter
	MatchesDeleted     prometheus.Counter
	MatchesEdited      prometheus.Counter
	PendingCreated     prometheus.Counter
	PendingResolved    *prometheus.CounterVec
	Recalculations     prometheus.Counter
	RecalcDuration     prometheus.Histogram
	SweepFailures      prometheus.Counter
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}
