package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncMatchesCommitted()
	IncMatchesDeleted()
	IncMatchesEdited()
	IncPendingCreated()
	IncPendingResolved(outcome string)
	IncRecalculations()
	ObserveRecalcDuration(duration float64)
	IncSweepFailures()
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
