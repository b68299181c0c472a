package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/racket-ladder/internal/league"
	"github.com/mauv0809/racket-ladder/internal/notifier"
	"github.com/mauv0809/racket-ladder/internal/pubsub"
)

// pushEnvelope is the body Pub/Sub push subscriptions deliver.
type pushEnvelope struct {
	Subscription string `json:"subscription"`
	Message      struct {
		Data       string            `json:"data"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
}

// decodePush unwraps a push envelope into out. It writes the 400 response
// itself and reports false on failure.
func decodePush(w http.ResponseWriter, r *http.Request, client pubsub.PubSubClient, out any) bool {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("Failed to read request body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return false
	}
	log.Debug("Received push message", "path", r.URL.Path, "body", string(bodyBytes))

	var envelope pushEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		log.Error("Failed to unmarshal wrapper JSON", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}

	rawData, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		log.Error("Failed to decode base64 data", "error", err)
		http.Error(w, "Invalid base64 data", http.StatusBadRequest)
		return false
	}
	if err := client.ProcessMessage(rawData, out); err != nil {
		log.Error("Failed to decode event payload", "error", err)
		http.Error(w, "Invalid event payload", http.StatusBadRequest)
		return false
	}
	return true
}

// notifyFailed answers with a 500 so Pub/Sub redelivers the message.
func notifyFailed(w http.ResponseWriter, what string, err error) {
	log.Error("Failed to "+what, "error", err)
	http.Error(w, "Failed to "+what, http.StatusInternalServerError)
}

func PendingMatchCreatedHandler(engine *league.Engine, n notifier.Notifier, client pubsub.PubSubClient, forceDryRun bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev pubsub.PendingMatchEvent
		if !decodePush(w, r, client, &ev) {
			return
		}
		if ev.Pending == nil {
			http.Error(w, "Missing pending match", http.StatusBadRequest)
			return
		}
		p := ev.Pending
		names := engine.Names(r.Context(), append(p.Submission().Participants(), p.LoggedBy)...)
		if err := n.SendConfirmationRequest(p, names, forceDryRun || IsDryRunFromContext(r)); err != nil {
			notifyFailed(w, "send confirmation request", err)
			return
		}
		w.Write([]byte("OK"))
	}
}

func MatchCommittedHandler(engine *league.Engine, n notifier.Notifier, client pubsub.PubSubClient, forceDryRun bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev pubsub.MatchEvent
		if !decodePush(w, r, client, &ev) {
			return
		}
		if ev.Match == nil {
			http.Error(w, "Missing match", http.StatusBadRequest)
			return
		}
		names := engine.Names(r.Context(), ev.Match.Participants()...)
		if err := n.SendMatchResult(ev.Match, names, forceDryRun || IsDryRunFromContext(r)); err != nil {
			notifyFailed(w, "send match result", err)
			return
		}
		w.Write([]byte("OK"))
	}
}

func SeasonEndedHandler(engine *league.Engine, n notifier.Notifier, client pubsub.PubSubClient, forceDryRun bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev pubsub.SeasonEvent
		if !decodePush(w, r, client, &ev) {
			return
		}
		if ev.Season == nil {
			http.Error(w, "Missing season", http.StatusBadRequest)
			return
		}
		ids := make([]string, 0, len(ev.Season.FinalStandings))
		for _, st := range ev.Season.FinalStandings {
			ids = append(ids, st.PlayerID)
		}
		if err := n.SendSeasonSummary(ev.Season, engine.Names(r.Context(), ids...), forceDryRun || IsDryRunFromContext(r)); err != nil {
			notifyFailed(w, "send season summary", err)
			return
		}
		w.Write([]byte("OK"))
	}
}
