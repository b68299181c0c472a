package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		MatchesCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_matches_committed_total",
			Help: "The total number of matches appended to the ledger.",
		}),
		MatchesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_matches_deleted_total",
			Help: "The total number of matches removed from the ledger.",
		}),
		MatchesEdited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_matches_edited_total",
			Help: "The total number of committed matches that were corrected.",
		}),
		PendingCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_pending_matches_created_total",
			Help: "The total number of reported results awaiting confirmation.",
		}),
		PendingResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ladder_pending_matches_resolved_total",
			Help: "The total number of pending matches that reached a terminal state.",
		}, []string{"outcome"}),
		Recalculations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_recalculations_total",
			Help: "The total number of full ledger replays.",
		}),
		RecalcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ladder_recalculation_duration_seconds",
			Help:    "The duration of full ledger replays.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_expiry_sweep_failures_total",
			Help: "The total number of pending matches the expiry sweep failed to resolve.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ladder_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.MatchesCommitted,
		s.MatchesDeleted,
		s.MatchesEdited,
		s.PendingCreated,
		s.PendingResolved,
		s.Recalculations,
		s.RecalcDuration,
		s.SweepFailures,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncMatchesCommitted() {
	s.MatchesCommitted.Inc()
}

func (s *Service) IncMatchesDeleted() {
	s.MatchesDeleted.Inc()
}

func (s *Service) IncMatchesEdited() {
	s.MatchesEdited.Inc()
}

func (s *Service) IncPendingCreated() {
	s.PendingCreated.Inc()
}

func (s *Service) IncPendingResolved(outcome string) {
	s.PendingResolved.WithLabelValues(outcome).Inc()
}

func (s *Service) IncRecalculations() {
	s.Recalculations.Inc()
}

func (s *Service) ObserveRecalcDuration(duration float64) {
	s.RecalcDuration.Observe(duration)
}

func (s *Service) IncSweepFailures() {
	s.SweepFailures.Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
