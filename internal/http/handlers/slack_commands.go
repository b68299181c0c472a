package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/league"
	"github.com/mauv0809/racket-ladder/internal/notifier"
	"github.com/slack-go/slack"
)

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg any) {
	slackMsg, ok := msg.(slack.Message)
	if !ok {
		http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
		log.Error("Failed to cast message to slack.Message")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(slackMsg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// parseModeText reads an optional trailing mode from a command text.
// Expected formats: "", "singles", "doubles", "Jane Doe", "Jane Doe doubles".
func parseModeText(text string) (rest string, mode domain.Mode) {
	parts := strings.Fields(text)
	mode = domain.ModeSingles
	if len(parts) == 0 {
		return "", mode
	}
	switch last := domain.Mode(strings.ToLower(parts[len(parts)-1])); last {
	case domain.ModeSingles, domain.ModeDoubles:
		mode = last
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, " "), mode
}

func LeaderboardCommandHandler(engine *league.Engine, n notifier.Notifier, leagueID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		_, mode := parseModeText(r.FormValue("text"))

		entries, err := engine.Leaderboard(r.Context(), leagueID, mode)
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard", "error", err)
			return
		}

		msg, err := n.FormatLeaderboardResponse(mode, entries)
		if err != nil {
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			log.Error("Failed to format leaderboard", "error", err)
			return
		}
		respondWithSlackMsg(w, msg)
	}
}

func PlayerStatsCommandHandler(engine *league.Engine, n notifier.Notifier, leagueID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		playerName := strings.TrimSpace(r.FormValue("text"))
		if playerName == "" {
			http.Error(w, "Player name is required.", http.StatusBadRequest)
			return
		}

		log.Info("Received player stats command", "player", playerName)
		player, err := engine.FindPlayer(r.Context(), leagueID, playerName)
		var msg any
		switch {
		case domain.IsNotFound(err):
			log.Warn("Could not find player", "player", playerName)
			msg, err = n.FormatPlayerNotFoundResponse(playerName)
		case err != nil:
			http.Error(w, "Failed to look up player", http.StatusInternalServerError)
			log.Error("Failed to look up player", "error", err)
			return
		default:
			msg, err = n.FormatPlayerStatsResponse(player)
		}

		if err != nil {
			http.Error(w, "Failed to format player stats", http.StatusInternalServerError)
			log.Error("Failed to format player stats", "error", err)
			return
		}
		respondWithSlackMsg(w, msg)
	}
}
