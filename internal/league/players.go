package league

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/racket-ladder/internal/domain"
)

// AddPlayer registers a player in a league. An empty playerID gets a
// generated one.
func (e *Engine) AddPlayer(ctx context.Context, leagueID, playerID, name string) (*domain.Player, error) {
	if leagueID == "" {
		return nil, &domain.ValidationError{Field: "league_id", Reason: "must not be empty"}
	}
	unlock := e.lock(leagueID)
	defer unlock()
	p, err := e.ledger.AddPlayer(ctx, leagueID, playerID, name)
	if err != nil {
		return nil, err
	}
	log.Info("Added player", "leagueID", leagueID, "playerID", p.ID)
	return p, nil
}

// RemovePlayer retires a player. Their matches stay in the ledger.
func (e *Engine) RemovePlayer(ctx context.Context, playerID string) error {
	p, err := e.ledger.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	unlock := e.lock(p.LeagueID)
	defer unlock()
	if err := e.ledger.RemovePlayer(ctx, playerID); err != nil {
		return err
	}
	log.Info("Removed player", "leagueID", p.LeagueID, "playerID", playerID)
	return nil
}

func (e *Engine) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	return e.ledger.GetPlayer(ctx, playerID)
}

func (e *Engine) ListPlayers(ctx context.Context, leagueID string) ([]domain.Player, error) {
	return e.ledger.ListPlayers(ctx, leagueID)
}

// FindPlayer returns the active player of a league whose id or name matches
// query, ignoring case.
func (e *Engine) FindPlayer(ctx context.Context, leagueID, query string) (*domain.Player, error) {
	players, err := e.ledger.ListPlayers(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	for i := range players {
		if players[i].ID == query || strings.EqualFold(players[i].Name, query) {
			return &players[i], nil
		}
	}
	return nil, &domain.NotFoundError{Kind: "player", ID: query}
}

func (e *Engine) Leaderboard(ctx context.Context, leagueID string, mode domain.Mode) ([]domain.LeaderboardEntry, error) {
	return e.ledger.Leaderboard(ctx, leagueID, mode)
}

// History returns the rating history of a player in one mode, oldest first.
func (e *Engine) History(ctx context.Context, playerID string, mode domain.Mode) ([]domain.RatingHistoryEntry, error) {
	return e.ledger.History(ctx, playerID, mode)
}
