package confirmation

import (
	"context"
	"time"

	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
)

// Committer appends a resolved result to the ledger inside the caller's transaction.
type Committer interface {
	CommitTx(ctx context.Context, tx database.DBTX, m *domain.Match) (*domain.Match, error)
}

// Workflow drives reported results from submission to resolution.
type Workflow interface {
	Create(ctx context.Context, leagueID string, sub domain.Submission, loggedBy string) (*domain.PendingMatch, error)
	Get(ctx context.Context, pendingID string) (*domain.PendingMatch, error)
	List(ctx context.Context, leagueID string, status domain.PendingStatus) ([]domain.PendingMatch, error)
	Due(ctx context.Context, now time.Time) ([]domain.PendingMatch, error)

	Confirm(ctx context.Context, pendingID, playerID string) (*Resolution, error)
	Dispute(ctx context.Context, pendingID, playerID string) (*domain.PendingMatch, error)
	ForceConfirm(ctx context.Context, pendingID string) (*Resolution, error)
	Reject(ctx context.Context, pendingID string) (*domain.PendingMatch, error)
	ExpireIfDue(ctx context.Context, pendingID string) (*Resolution, error)
}
