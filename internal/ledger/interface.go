package ledger

import (
	"context"

	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/projector"
)

// Store persists players, the match ledger and the derived aggregates.
type Store interface {
	projector.Source

	AddPlayer(ctx context.Context, leagueID, playerID, name string) (*domain.Player, error)
	RemovePlayer(ctx context.Context, playerID string) error
	GetPlayer(ctx context.Context, playerID string) (*domain.Player, error)
	ListPlayers(ctx context.Context, leagueID string) ([]domain.Player, error)
	Leaderboard(ctx context.Context, leagueID string, mode domain.Mode) ([]domain.LeaderboardEntry, error)

	Commit(ctx context.Context, m *domain.Match) (*domain.Match, error)
	CommitTx(ctx context.Context, tx database.DBTX, m *domain.Match) (*domain.Match, error)
	Delete(ctx context.Context, matchID string) (*domain.Match, error)
	Edit(ctx context.Context, matchID string, edit Edit) (*domain.Match, error)
	GetMatch(ctx context.Context, matchID string) (*domain.Match, error)
	ListMatches(ctx context.Context, leagueID string, limit int) ([]domain.Match, error)
	History(ctx context.Context, playerID string, mode domain.Mode) ([]domain.RatingHistoryEntry, error)

	ResetAggregatesTx(ctx context.Context, tx database.DBTX, leagueID string) error
	ActivePlayersTx(ctx context.Context, tx database.DBTX, leagueID string) ([]domain.Player, error)
	CountSeasonMatchesTx(ctx context.Context, tx database.DBTX, seasonID string) (int, error)
}
