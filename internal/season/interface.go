package season

import (
	"context"

	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
)

// Ledger is the slice of the ledger store a season boundary touches.
type Ledger interface {
	ResetAggregatesTx(ctx context.Context, tx database.DBTX, leagueID string) error
	ActivePlayersTx(ctx context.Context, tx database.DBTX, leagueID string) ([]domain.Player, error)
	CountSeasonMatchesTx(ctx context.Context, tx database.DBTX, seasonID string) (int, error)
}

// Controller starts and archives seasons.
type Controller interface {
	Start(ctx context.Context, leagueID, name string) (*domain.Season, error)
	End(ctx context.Context, leagueID string) (*domain.Season, error)
	Get(ctx context.Context, seasonID string) (*domain.Season, error)
	List(ctx context.Context, leagueID string) ([]domain.Season, error)
	Active(ctx context.Context, leagueID string) (*domain.Season, error)
}
