package league

import (
	"context"

	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/pubsub"
)

// StartSeason opens a new season and resets the league's aggregates.
func (e *Engine) StartSeason(ctx context.Context, leagueID, name string) (*domain.Season, error) {
	unlock := e.lock(leagueID)
	defer unlock()
	return e.seasons.Start(ctx, leagueID, name)
}

// EndSeason archives the active season with its final standings.
func (e *Engine) EndSeason(ctx context.Context, leagueID string) (*domain.Season, error) {
	unlock := e.lock(leagueID)
	s, err := e.seasons.End(ctx, leagueID)
	unlock()
	if err != nil {
		return nil, err
	}
	e.publish(event{topic: pubsub.EventSeasonEnded, data: pubsub.SeasonEvent{Season: s}})
	return s, nil
}

func (e *Engine) GetSeason(ctx context.Context, seasonID string) (*domain.Season, error) {
	return e.seasons.Get(ctx, seasonID)
}

func (e *Engine) ListSeasons(ctx context.Context, leagueID string) ([]domain.Season, error) {
	return e.seasons.List(ctx, leagueID)
}

func (e *Engine) ActiveSeason(ctx context.Context, leagueID string) (*domain.Season, error) {
	return e.seasons.Active(ctx, leagueID)
}
