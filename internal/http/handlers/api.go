package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/league"
)

func ListPlayersHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := engine.ListPlayers(r.Context(), chi.URLParam(r, "league"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

func AddPlayerHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerRequest
		if !decode(w, r, &req) {
			return
		}
		player, err := engine.AddPlayer(r.Context(), chi.URLParam(r, "league"), req.ID, req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, player)
	}
}

func GetPlayerHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := engine.GetPlayer(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, player)
	}
}

func RemovePlayerHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.RemovePlayer(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HistoryHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := engine.History(r.Context(), chi.URLParam(r, "id"), queryMode(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	}
}

func LeaderboardHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := engine.Leaderboard(r.Context(), chi.URLParam(r, "league"), queryMode(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// RecordMatchHandler commits direct results and submits all others for
// confirmation.
func RecordMatchHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MatchRequest
		if !decode(w, r, &req) {
			return
		}
		leagueID := chi.URLParam(r, "league")
		if req.Direct {
			match, err := engine.RecordMatch(r.Context(), leagueID, req.Submission(), req.LoggedBy)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, match)
			return
		}
		pending, err := engine.SubmitMatch(r.Context(), leagueID, req.Submission(), req.LoggedBy)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, pending)
	}
}

func ListMatchesHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, err)
			return
		}
		matches, err := engine.ListMatches(r.Context(), chi.URLParam(r, "league"), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func GetMatchHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match, err := engine.GetMatch(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func EditMatchHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EditMatchRequest
		if !decode(w, r, &req) {
			return
		}
		match, err := engine.EditMatch(r.Context(), chi.URLParam(r, "id"), req.Edit())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func DeleteMatchHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.DeleteMatch(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func RecalculateHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID := chi.URLParam(r, "league")
		log.Info("Starting recalculation...", "leagueID", leagueID)
		summary, err := engine.RecalculateStats(r.Context(), leagueID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RecalcResponse{PlayersUpdated: summary.PlayersUpdated, MatchesReplayed: summary.MatchesReplayed})
	}
}

func ListPendingHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := domain.PendingStatus(r.URL.Query().Get("status"))
		pending, err := engine.ListPendingMatches(r.Context(), chi.URLParam(r, "league"), status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pending)
	}
}

func GetPendingHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := engine.GetPendingMatch(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pending)
	}
}

func ConfirmPendingHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConfirmationRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := engine.ConfirmPendingMatch(r.Context(), chi.URLParam(r, "id"), req.PlayerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func DisputePendingHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConfirmationRequest
		if !decode(w, r, &req) {
			return
		}
		pending, err := engine.DisputePendingMatch(r.Context(), chi.URLParam(r, "id"), req.PlayerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pending)
	}
}

func ForceConfirmPendingHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := engine.ForceConfirmPendingMatch(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res.Match)
	}
}

func RejectPendingHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := engine.RejectPendingMatch(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pending)
	}
}

func StartSeasonHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeasonRequest
		if !decode(w, r, &req) {
			return
		}
		season, err := engine.StartSeason(r.Context(), chi.URLParam(r, "league"), req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, season)
	}
}

func EndSeasonHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		season, err := engine.EndSeason(r.Context(), chi.URLParam(r, "league"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, season)
	}
}

func ListSeasonsHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seasons, err := engine.ListSeasons(r.Context(), chi.URLParam(r, "league"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, seasons)
	}
}

func ActiveSeasonHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		season, err := engine.ActiveSeason(r.Context(), chi.URLParam(r, "league"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, season)
	}
}

func GetSeasonHandler(engine *league.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		season, err := engine.GetSeason(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, season)
	}
}
