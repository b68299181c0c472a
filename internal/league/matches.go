package league

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/ledger"
	"github.com/mauv0809/racket-ladder/internal/pubsub"
)

// RecordMatch commits a result straight to the ledger, skipping confirmation.
func (e *Engine) RecordMatch(ctx context.Context, leagueID string, sub domain.Submission, loggedBy string) (*domain.Match, error) {
	if err := domain.ValidateSubmission(sub); err != nil {
		return nil, err
	}
	m := &domain.Match{
		LeagueID:    leagueID,
		Mode:        sub.Mode,
		Winners:     sub.Winners,
		Losers:      sub.Losers,
		ScoreWinner: sub.ScoreWinner,
		ScoreLoser:  sub.ScoreLoser,
		IsFriendly:  sub.IsFriendly,
		LoggedBy:    loggedBy,
	}

	unlock := e.lock(leagueID)
	committed, err := e.ledger.Commit(ctx, m)
	unlock()
	if err != nil {
		return nil, err
	}

	e.metrics.IncMatchesCommitted()
	log.Info("Recorded match", "leagueID", leagueID, "matchID", committed.ID, "delta", committed.RatingDelta)
	e.publish(event{topic: pubsub.EventMatchCommitted, data: pubsub.MatchEvent{Match: committed, Source: SourceDirect}})
	return committed, nil
}

// DeleteMatch removes a current-epoch match and reverses its effect.
func (e *Engine) DeleteMatch(ctx context.Context, matchID string) error {
	m, err := e.ledger.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}

	unlock := e.lock(m.LeagueID)
	deleted, err := e.ledger.Delete(ctx, matchID)
	unlock()
	if err != nil {
		return err
	}

	e.metrics.IncMatchesDeleted()
	log.Info("Deleted match", "leagueID", deleted.LeagueID, "matchID", matchID)
	e.publish(event{topic: pubsub.EventMatchDeleted, data: pubsub.MatchEvent{Match: deleted, Source: SourceDelete}})
	return nil
}

// EditMatch replaces the participants and score of a current-epoch match.
func (e *Engine) EditMatch(ctx context.Context, matchID string, edit ledger.Edit) (*domain.Match, error) {
	m, err := e.ledger.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	unlock := e.lock(m.LeagueID)
	edited, err := e.ledger.Edit(ctx, matchID, edit)
	unlock()
	if err != nil {
		return nil, err
	}

	e.metrics.IncMatchesEdited()
	log.Info("Edited match", "leagueID", edited.LeagueID, "matchID", matchID, "delta", edited.RatingDelta)
	e.publish(event{topic: pubsub.EventMatchEdited, data: pubsub.MatchEvent{Match: edited, Source: SourceEdit}})
	return edited, nil
}

// RecalculateStats rebuilds every aggregate of the league from the ledger.
func (e *Engine) RecalculateStats(ctx context.Context, leagueID string) (*domain.RecalcSummary, error) {
	if leagueID == "" {
		return nil, &domain.ValidationError{Field: "league_id", Reason: "must not be empty"}
	}
	start := time.Now()

	unlock := e.lock(leagueID)
	summary, err := e.projector.Recalculate(ctx, leagueID)
	unlock()
	if err != nil {
		return nil, err
	}

	e.metrics.IncRecalculations()
	e.metrics.ObserveRecalcDuration(time.Since(start).Seconds())
	e.publish(event{topic: pubsub.EventStatsRecalculated, data: pubsub.RecalculatedEvent{Summary: summary}})
	return summary, nil
}

func (e *Engine) GetMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return e.ledger.GetMatch(ctx, matchID)
}

// ListMatches returns the latest matches of a league, newest first.
func (e *Engine) ListMatches(ctx context.Context, leagueID string, limit int) ([]domain.Match, error) {
	return e.ledger.ListMatches(ctx, leagueID, limit)
}
