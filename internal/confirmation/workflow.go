package confirmation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
)

type workflow struct {
	db        *sql.DB
	committer Committer
	ttl       time.Duration
	now       func() time.Time
}

// Option configures a Workflow.
type Option func(*workflow)

// WithTTL sets how long a pending match waits before it auto-confirms.
func WithTTL(ttl time.Duration) Option {
	return func(w *workflow) {
		if ttl > 0 {
			w.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *workflow) { w.now = now }
}

// New creates a Workflow that commits resolved results through committer.
func New(db *sql.DB, committer Committer, opts ...Option) Workflow {
	w := &workflow{db: db, committer: committer, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *workflow) clock() time.Time {
	return w.now().UTC().Truncate(time.Millisecond)
}

// Create stores a reported result as pending. The submitter counts as
// having confirmed.
func (w *workflow) Create(ctx context.Context, leagueID string, sub domain.Submission, loggedBy string) (*domain.PendingMatch, error) {
	if leagueID == "" {
		return nil, &domain.ValidationError{Field: "league_id", Reason: "must not be empty"}
	}
	if loggedBy == "" {
		return nil, &domain.ValidationError{Field: "logged_by", Reason: "must not be empty"}
	}
	if err := domain.ValidateSubmission(sub); err != nil {
		return nil, err
	}

	now := w.clock()
	p := &domain.PendingMatch{
		ID:            uuid.NewString(),
		LeagueID:      leagueID,
		Mode:          sub.Mode,
		Winners:       sub.Winners,
		Losers:        sub.Losers,
		ScoreWinner:   sub.ScoreWinner,
		ScoreLoser:    sub.ScoreLoser,
		IsFriendly:    sub.IsFriendly,
		LoggedBy:      loggedBy,
		Status:        domain.PendingStatusPending,
		Confirmations: []string{},
		CreatedAt:     now,
		ExpiresAt:     now.Add(w.ttl),
	}
	if err := insertPending(ctx, w.db, p); err != nil {
		return nil, err
	}
	log.Info("Created pending match", "pendingID", p.ID, "leagueID", leagueID, "loggedBy", loggedBy, "expiresAt", p.ExpiresAt)
	return p, nil
}

func (w *workflow) Get(ctx context.Context, pendingID string) (*domain.PendingMatch, error) {
	return getPending(ctx, w.db, pendingID)
}

// List returns the pending matches of a league, newest first. An empty
// status lists every state.
func (w *workflow) List(ctx context.Context, leagueID string, status domain.PendingStatus) ([]domain.PendingMatch, error) {
	if status == "" {
		return queryPending(ctx, w.db, `WHERE league_id = ? ORDER BY created_at DESC, id`, leagueID)
	}
	return queryPending(ctx, w.db, `WHERE league_id = ? AND status = ? ORDER BY created_at DESC, id`, leagueID, status)
}

// Due returns every pending match whose deadline has passed, oldest first.
func (w *workflow) Due(ctx context.Context, now time.Time) ([]domain.PendingMatch, error) {
	return queryPending(ctx, w.db, `WHERE status = ? AND expires_at <= ? ORDER BY expires_at, id`,
		domain.PendingStatusPending, now.UnixMilli())
}

// Confirm records playerID's confirmation and commits the match once every
// required confirmer has confirmed.
func (w *workflow) Confirm(ctx context.Context, pendingID, playerID string) (*Resolution, error) {
	var out *Resolution
	err := database.InTx(ctx, w.db, func(tx database.DBTX) error {
		p, err := getPending(ctx, tx, pendingID)
		if err != nil {
			return err
		}
		if err := CheckTransition(p, ActionConfirm); err != nil {
			return err
		}
		if !p.IsParticipant(playerID) {
			return &domain.ValidationError{Field: "player_id", Reason: fmt.Sprintf("player %s did not play in match %s", playerID, pendingID)}
		}
		out = &Resolution{Pending: p}
		if playerID == p.LoggedBy {
			return nil
		}

		now := w.clock()
		if err := addConfirmation(ctx, tx, pendingID, playerID, now); err != nil {
			return err
		}
		if !contains(p.Confirmations, playerID) {
			p.Confirmations = append(p.Confirmations, playerID)
		}
		if !p.FullyConfirmed() {
			log.Debug("Recorded confirmation", "pendingID", pendingID, "playerID", playerID)
			return nil
		}
		out, err = w.resolve(ctx, tx, p, domain.PendingStatusConfirmed, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Dispute blocks auto-confirmation until an admin force-confirms or rejects.
func (w *workflow) Dispute(ctx context.Context, pendingID, playerID string) (*domain.PendingMatch, error) {
	var out *domain.PendingMatch
	err := database.InTx(ctx, w.db, func(tx database.DBTX) error {
		p, err := getPending(ctx, tx, pendingID)
		if err != nil {
			return err
		}
		if err := CheckTransition(p, ActionDispute); err != nil {
			return err
		}
		if !p.IsParticipant(playerID) || playerID == p.LoggedBy {
			return &domain.ValidationError{Field: "player_id", Reason: fmt.Sprintf("player %s cannot dispute match %s", playerID, pendingID)}
		}
		if err := w.swap(ctx, tx, p, domain.PendingStatusDisputed, w.clock(), ""); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Disputed pending match", "pendingID", pendingID, "playerID", playerID)
	return out, nil
}

// ForceConfirm commits a pending or disputed match regardless of confirmations.
func (w *workflow) ForceConfirm(ctx context.Context, pendingID string) (*Resolution, error) {
	return w.resolveAction(ctx, pendingID, ActionForceConfirm, domain.PendingStatusConfirmed)
}

// ExpireIfDue auto-confirms a pending match whose deadline has passed. It
// returns nil when the match is not due.
func (w *workflow) ExpireIfDue(ctx context.Context, pendingID string) (*Resolution, error) {
	var out *Resolution
	err := database.InTx(ctx, w.db, func(tx database.DBTX) error {
		p, err := getPending(ctx, tx, pendingID)
		if err != nil {
			return err
		}
		now := w.clock()
		if !p.Due(now) {
			return nil
		}
		out, err = w.resolve(ctx, tx, p, domain.PendingStatusExpired, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject discards a pending or disputed match without touching the ledger.
func (w *workflow) Reject(ctx context.Context, pendingID string) (*domain.PendingMatch, error) {
	var out *domain.PendingMatch
	err := database.InTx(ctx, w.db, func(tx database.DBTX) error {
		p, err := getPending(ctx, tx, pendingID)
		if err != nil {
			return err
		}
		if err := CheckTransition(p, ActionReject); err != nil {
			return err
		}
		if err := w.swap(ctx, tx, p, domain.PendingStatusRejected, w.clock(), ""); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Rejected pending match", "pendingID", pendingID)
	return out, nil
}

func (w *workflow) resolveAction(ctx context.Context, pendingID string, action Action, to domain.PendingStatus) (*Resolution, error) {
	var out *Resolution
	err := database.InTx(ctx, w.db, func(tx database.DBTX) error {
		p, err := getPending(ctx, tx, pendingID)
		if err != nil {
			return err
		}
		if err := CheckTransition(p, action); err != nil {
			return err
		}
		out, err = w.resolve(ctx, tx, p, to, w.clock())
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolve moves p to a committing terminal state and appends the result to
// the ledger in the same transaction.
func (w *workflow) resolve(ctx context.Context, tx database.DBTX, p *domain.PendingMatch, to domain.PendingStatus, now time.Time) (*Resolution, error) {
	m := &domain.Match{
		LeagueID:    p.LeagueID,
		Mode:        p.Mode,
		Winners:     p.Winners,
		Losers:      p.Losers,
		ScoreWinner: p.ScoreWinner,
		ScoreLoser:  p.ScoreLoser,
		IsFriendly:  p.IsFriendly,
		LoggedBy:    p.LoggedBy,
		PendingID:   p.ID,
	}
	m.ID = uuid.NewString()
	if err := w.swap(ctx, tx, p, to, now, m.ID); err != nil {
		return nil, err
	}
	committed, err := w.committer.CommitTx(ctx, tx, m)
	if err != nil {
		return nil, err
	}
	log.Info("Resolved pending match", "pendingID", p.ID, "status", to, "matchID", committed.ID)
	return &Resolution{Pending: p, Match: committed}, nil
}

// swap performs the compare-and-swap and updates p on success. A lost race
// is reported as the state the winner left behind.
func (w *workflow) swap(ctx context.Context, tx database.DBTX, p *domain.PendingMatch, to domain.PendingStatus, now time.Time, matchID string) error {
	ok, err := swapStatus(ctx, tx, p, to, now, matchID)
	if err != nil {
		return err
	}
	if !ok {
		current, err := getPending(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return &domain.AlreadyResolvedError{PendingID: p.ID, Status: current.Status}
		}
		return &domain.TransitionError{PendingID: p.ID, From: current.Status, Action: string(to)}
	}
	p.Status = to
	p.MatchID = matchID
	if to.Terminal() {
		p.ResolvedAt = &now
	}
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

var _ Workflow = (*workflow)(nil)
