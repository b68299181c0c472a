package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/racket-ladder/internal/inngest"
	"github.com/mauv0809/racket-ladder/internal/league"
)

// ExpirePendingHandler auto-confirms every pending match past its deadline.
// It is meant for an external scheduler such as Cloud Scheduler.
func ExpirePendingHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Starting scheduled expiry sweep...")
		expired, err := engine.ExpireDue(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ExpireResponse{Expired: expired})
		log.Info("Scheduled expiry sweep finished.", "expired", expired)
	}
}

// TriggerExpireHandler hands the sweep to the durable Inngest function.
func TriggerExpireHandler(client inngest.InngestClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := client.SendEvent(r.Context(), inngest.EventExpirePending, map[string]any{}); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("OK"))
	}
}
