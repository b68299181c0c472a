package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/racket-ladder/internal/config"
	"github.com/mauv0809/racket-ladder/internal/inngest"
	"github.com/mauv0809/racket-ladder/internal/league"
	"github.com/mauv0809/racket-ladder/internal/metrics"
	"github.com/mauv0809/racket-ladder/internal/notifier"
	"github.com/mauv0809/racket-ladder/internal/pubsub"
)

type Server struct {
	Engine         *league.Engine
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	PubSub         pubsub.PubSubClient
	Inngest        inngest.InngestClient
	Router         *chi.Mux
}
