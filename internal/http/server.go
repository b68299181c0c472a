package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mauv0809/racket-ladder/internal/config"
	"github.com/mauv0809/racket-ladder/internal/http/handlers"
	"github.com/mauv0809/racket-ladder/internal/inngest"
	"github.com/mauv0809/racket-ladder/internal/league"
	"github.com/mauv0809/racket-ladder/internal/metrics"
	"github.com/mauv0809/racket-ladder/internal/notifier"
	"github.com/mauv0809/racket-ladder/internal/pubsub"
)

func NewServer(engine *league.Engine, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient, inngestClient inngest.InngestClient) *Server {
	server := &Server{
		Engine:         engine,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		PubSub:         pubsub,
		Inngest:        inngestClient,
		Router:         chi.NewRouter(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	r := s.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Handle("/metrics", s.MetricsHandler)

	// Everything else gets the query-parameter middleware.
	r.Group(func(r chi.Router) {
		r.Use(paramsMiddleware)

		r.Get("/health", handlers.HealthCheckHandler())

		r.Route("/api", func(r chi.Router) {
			r.Route("/leagues/{league}", func(r chi.Router) {
				r.Get("/players", handlers.ListPlayersHandler(s.Engine))
				r.Post("/players", handlers.AddPlayerHandler(s.Engine))
				r.Get("/leaderboard", handlers.LeaderboardHandler(s.Engine))
				r.Get("/matches", handlers.ListMatchesHandler(s.Engine))
				r.Post("/matches", handlers.RecordMatchHandler(s.Engine))
				r.Post("/recalculate", handlers.RecalculateHandler(s.Engine))
				r.Get("/pending", handlers.ListPendingHandler(s.Engine))
				r.Get("/seasons", handlers.ListSeasonsHandler(s.Engine))
				r.Post("/seasons", handlers.StartSeasonHandler(s.Engine))
				r.Get("/seasons/active", handlers.ActiveSeasonHandler(s.Engine))
				r.Post("/seasons/end", handlers.EndSeasonHandler(s.Engine))
			})
			r.Route("/players/{id}", func(r chi.Router) {
				r.Get("/", handlers.GetPlayerHandler(s.Engine))
				r.Delete("/", handlers.RemovePlayerHandler(s.Engine))
				r.Get("/history", handlers.HistoryHandler(s.Engine))
			})
			r.Route("/matches/{id}", func(r chi.Router) {
				r.Get("/", handlers.GetMatchHandler(s.Engine))
				r.Put("/", handlers.EditMatchHandler(s.Engine))
				r.Delete("/", handlers.DeleteMatchHandler(s.Engine))
			})
			r.Route("/pending/{id}", func(r chi.Router) {
				r.Get("/", handlers.GetPendingHandler(s.Engine))
				r.Post("/confirm", handlers.ConfirmPendingHandler(s.Engine))
				r.Post("/dispute", handlers.DisputePendingHandler(s.Engine))
				r.Post("/force-confirm", handlers.ForceConfirmPendingHandler(s.Engine))
				r.Post("/reject", handlers.RejectPendingHandler(s.Engine))
			})
			r.Get("/seasons/{id}", handlers.GetSeasonHandler(s.Engine))
			if s.Inngest != nil {
				r.Handle("/inngest", s.Inngest.Serve())
			}
		})

		r.Post("/scheduled/expire-pending", handlers.ExpirePendingHandler(s.Engine))
		if s.Inngest != nil {
			r.Post("/scheduled/expire-pending/async", handlers.TriggerExpireHandler(s.Inngest))
		}

		// Pub/Sub push subscriptions. Without a bot token messages are only logged.
		dryRun := s.Cfg.Slack.Token == ""
		r.Post("/pubsub/pending-match-created", handlers.PendingMatchCreatedHandler(s.Engine, s.Notifier, s.PubSub, dryRun))
		r.Post("/pubsub/match-committed", handlers.MatchCommittedHandler(s.Engine, s.Notifier, s.PubSub, dryRun))
		r.Post("/pubsub/season-ended", handlers.SeasonEndedHandler(s.Engine, s.Notifier, s.PubSub, dryRun))

		r.Group(func(r chi.Router) {
			r.Use(slackVerifier(s.Cfg.Slack.SigningSecret))
			r.Post("/slack/command/leaderboard", handlers.LeaderboardCommandHandler(s.Engine, s.Notifier, s.Cfg.DefaultLeagueID))
			r.Post("/slack/command/player-stats", handlers.PlayerStatsCommandHandler(s.Engine, s.Notifier, s.Cfg.DefaultLeagueID))
		})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
