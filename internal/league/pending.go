package league

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/racket-ladder/internal/confirmation"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/pubsub"
)

// SubmitMatch stores a reported result until the other participants confirm it.
func (e *Engine) SubmitMatch(ctx context.Context, leagueID string, sub domain.Submission, loggedBy string) (*domain.PendingMatch, error) {
	if err := domain.ValidateSubmission(sub); err != nil {
		return nil, err
	}
	for _, id := range sub.Participants() {
		p, err := e.ledger.GetPlayer(ctx, id)
		if err != nil {
			return nil, err
		}
		if p.LeagueID != leagueID || p.Removed {
			return nil, &domain.NotFoundError{Kind: "player", ID: id}
		}
	}

	unlock := e.lock(leagueID)
	pending, err := e.workflow.Create(ctx, leagueID, sub, loggedBy)
	unlock()
	if err != nil {
		return nil, err
	}

	e.metrics.IncPendingCreated()
	log.Info("Submitted match for confirmation", "leagueID", leagueID, "pendingID", pending.ID, "expiresAt", pending.ExpiresAt)
	e.publish(event{topic: pubsub.EventPendingMatchCreated, data: pubsub.PendingMatchEvent{Pending: pending}})
	return pending, nil
}

// transition runs action under the league lock of the pending match. A due
// match is expired first, so the action then sees it as resolved. A failed
// expiry leaves the match pending and the action still runs.
func (e *Engine) transition(ctx context.Context, pendingID string, action func() ([]event, error)) error {
	p, err := e.workflow.Get(ctx, pendingID)
	if err != nil {
		return err
	}

	unlock := e.lock(p.LeagueID)
	expired, err := e.workflow.ExpireIfDue(ctx, pendingID)
	if err != nil {
		e.expiryFailed(pendingID, err)
		expired = nil
	}
	events := e.resolved(expired, SourceExpired)
	more, err := action()
	unlock()

	e.publish(append(events, more...)...)
	return err
}

// ConfirmPendingMatch records playerID's confirmation. Res.Match is set when
// this confirmation completed the set and the result was committed.
func (e *Engine) ConfirmPendingMatch(ctx context.Context, pendingID, playerID string) (*confirmation.Resolution, error) {
	var res *confirmation.Resolution
	err := e.transition(ctx, pendingID, func() ([]event, error) {
		var err error
		res, err = e.workflow.Confirm(ctx, pendingID, playerID)
		if err != nil {
			return nil, err
		}
		return e.resolved(resolvedOnly(res), SourceConfirmed), nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DisputePendingMatch blocks auto-confirmation until an admin decides.
func (e *Engine) DisputePendingMatch(ctx context.Context, pendingID, playerID string) (*domain.PendingMatch, error) {
	var out *domain.PendingMatch
	err := e.transition(ctx, pendingID, func() ([]event, error) {
		var err error
		out, err = e.workflow.Dispute(ctx, pendingID, playerID)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	log.Info("Disputed pending match", "pendingID", pendingID, "playerID", playerID)
	return out, nil
}

// ForceConfirmPendingMatch commits a pending or disputed match without
// waiting for the remaining confirmations.
func (e *Engine) ForceConfirmPendingMatch(ctx context.Context, pendingID string) (*confirmation.Resolution, error) {
	var res *confirmation.Resolution
	err := e.transition(ctx, pendingID, func() ([]event, error) {
		var err error
		res, err = e.workflow.ForceConfirm(ctx, pendingID)
		if err != nil {
			return nil, err
		}
		return e.resolved(res, SourceForceConfirmed), nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RejectPendingMatch discards a pending or disputed match.
func (e *Engine) RejectPendingMatch(ctx context.Context, pendingID string) (*domain.PendingMatch, error) {
	var out *domain.PendingMatch
	err := e.transition(ctx, pendingID, func() ([]event, error) {
		var err error
		out, err = e.workflow.Reject(ctx, pendingID)
		if err != nil {
			return nil, err
		}
		e.metrics.IncPendingResolved(string(out.Status))
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Rejected pending match", "pendingID", pendingID)
	return out, nil
}

// resolvedOnly drops a confirmation that left the match pending.
func resolvedOnly(res *confirmation.Resolution) *confirmation.Resolution {
	if res == nil || !res.Pending.Status.Terminal() {
		return nil
	}
	return res
}

// GetPendingMatch returns a pending match, expiring it first when due.
func (e *Engine) GetPendingMatch(ctx context.Context, pendingID string) (*domain.PendingMatch, error) {
	p, err := e.workflow.Get(ctx, pendingID)
	if err != nil {
		return nil, err
	}
	if !p.Due(e.clock()) {
		return p, nil
	}
	if _, err := e.expire(ctx, p); err != nil {
		e.expiryFailed(pendingID, err)
		return p, nil
	}
	return e.workflow.Get(ctx, pendingID)
}

// ListPendingMatches lists the pending matches of a league in the given
// status, or all of them when status is empty. Due matches are expired first.
func (e *Engine) ListPendingMatches(ctx context.Context, leagueID string, status domain.PendingStatus) ([]domain.PendingMatch, error) {
	list, err := e.workflow.List(ctx, leagueID, domain.PendingStatusPending)
	if err != nil {
		return nil, err
	}
	now := e.clock()
	for i := range list {
		if !list[i].Due(now) {
			continue
		}
		if _, err := e.expire(ctx, &list[i]); err != nil {
			e.expiryFailed(list[i].ID, err)
		}
	}
	return e.workflow.List(ctx, leagueID, status)
}

// ExpireDue auto-confirms every pending match whose deadline has passed and
// returns how many were committed. A failing match is logged and left for
// the next run.
func (e *Engine) ExpireDue(ctx context.Context) (int, error) {
	due, err := e.workflow.Due(ctx, e.clock())
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		ok, err := e.expire(ctx, &due[i])
		switch {
		case err != nil:
			e.expiryFailed(due[i].ID, err)
		case !ok:
			log.Debug("Pending match resolved before expiry", "pendingID", due[i].ID)
		default:
			expired++
		}
	}
	if expired > 0 {
		log.Info("Expired pending matches", "count", expired)
	}
	return expired, nil
}

// expire resolves p as expired under its league lock. It reports false when
// the match was resolved in the meantime.
func (e *Engine) expire(ctx context.Context, p *domain.PendingMatch) (bool, error) {
	unlock := e.lock(p.LeagueID)
	res, err := e.workflow.ExpireIfDue(ctx, p.ID)
	unlock()
	if err != nil {
		return false, err
	}
	if res == nil {
		return false, nil
	}
	e.publish(e.resolved(res, SourceExpired)...)
	return true, nil
}

// expiryFailed records an expiry that could not commit. The match stays
// pending and is retried on the next sweep.
func (e *Engine) expiryFailed(pendingID string, err error) {
	e.metrics.IncSweepFailures()
	log.Error("Failed to expire pending match", "pendingID", pendingID, "error", err)
}
