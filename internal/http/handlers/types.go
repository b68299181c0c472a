package handlers

import (
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/ledger"
)

// MatchRequest reports a result. Direct results skip confirmation.
type MatchRequest struct {
	Mode        string   `json:"mode" validate:"required,oneof=singles doubles"`
	Winners     []string `json:"winners" validate:"required,min=1,max=2,dive,required"`
	Losers      []string `json:"losers" validate:"required,min=1,max=2,dive,required"`
	ScoreWinner int      `json:"score_winner" validate:"gte=0"`
	ScoreLoser  int      `json:"score_loser" validate:"gte=0"`
	IsFriendly  bool     `json:"is_friendly"`
	LoggedBy    string   `json:"logged_by" validate:"required"`
	Direct      bool     `json:"direct"`
}

func (m MatchRequest) Submission() domain.Submission {
	return domain.Submission{
		Mode:        domain.Mode(m.Mode),
		Winners:     m.Winners,
		Losers:      m.Losers,
		ScoreWinner: m.ScoreWinner,
		ScoreLoser:  m.ScoreLoser,
		IsFriendly:  m.IsFriendly,
	}
}

// EditMatchRequest corrects the participants and score of a match.
type EditMatchRequest struct {
	Winners     []string `json:"winners" validate:"required,min=1,max=2,dive,required"`
	Losers      []string `json:"losers" validate:"required,min=1,max=2,dive,required"`
	ScoreWinner int      `json:"score_winner" validate:"gte=0"`
	ScoreLoser  int      `json:"score_loser" validate:"gte=0"`
}

func (e EditMatchRequest) Edit() ledger.Edit {
	return ledger.Edit{
		Winners:     e.Winners,
		Losers:      e.Losers,
		ScoreWinner: e.ScoreWinner,
		ScoreLoser:  e.ScoreLoser,
	}
}

type PlayerRequest struct {
	ID   string `json:"id" validate:"omitempty,max=64"`
	Name string `json:"name" validate:"required,max=100"`
}

type ConfirmationRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
}

type SeasonRequest struct {
	Name string `json:"name" validate:"max=100"`
}

// RecalcResponse is the body of a successful recalculation.
type RecalcResponse struct {
	PlayersUpdated  int `json:"players_updated"`
	MatchesReplayed int `json:"matches_replayed"`
}

// ExpireResponse reports how many pending matches a sweep committed.
type ExpireResponse struct {
	Expired int `json:"expired"`
}
