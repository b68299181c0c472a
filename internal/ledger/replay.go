package ledger

import (
	"context"
	"fmt"

	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/projector"
	"github.com/mauv0809/racket-ladder/internal/rating"
)

// Rebuild loads the current epoch of a league, hands it to fn and swaps in
// the result. Everything happens in one transaction so a failing fn leaves
// the stored aggregates untouched.
func (s *store) Rebuild(ctx context.Context, leagueID string, fn func(in projector.ReplayInput) (*projector.ReplayResult, error)) error {
	return database.InTx(ctx, s.db, func(tx database.DBTX) error {
		ep, err := currentEpoch(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		in, err := replayInput(ctx, tx, leagueID, ep)
		if err != nil {
			return err
		}
		res, err := fn(*in)
		if err != nil {
			return err
		}

		for _, agg := range res.Aggregates {
			if err := upsertAggregate(ctx, tx, agg); err != nil {
				return err
			}
		}
		for matchID, delta := range res.Deltas {
			if _, err := tx.ExecContext(ctx, `UPDATE matches SET rating_delta = ?, counts_record = ? WHERE id = ?`,
				delta, res.Counted[matchID], matchID); err != nil {
				return fmt.Errorf("failed to update delta of match %s: %w", matchID, err)
			}
		}
		during, after := ep.keys()
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM rating_history
			WHERE match_id IN (SELECT id FROM matches WHERE league_id = ? AND season_id IN (?, ?))`,
			leagueID, during, after); err != nil {
			return fmt.Errorf("failed to clear history of league %s: %w", leagueID, err)
		}
		return insertHistory(ctx, tx, res.History)
	})
}

func replayInput(ctx context.Context, tx database.DBTX, leagueID string, ep epoch) (*projector.ReplayInput, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM players WHERE league_id = ? ORDER BY id`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players of league %s: %w", leagueID, err)
	}
	in := &projector.ReplayInput{LeagueID: leagueID}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan player id: %w", err)
		}
		in.PlayerIDs = append(in.PlayerIDs, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	during, after := ep.keys()
	in.Matches, err = queryMatches(ctx, tx, `WHERE league_id = ? AND season_id IN (?, ?) ORDER BY played_at, seq`, leagueID, during, after)
	if err != nil {
		return nil, err
	}
	if err := fillParticipants(ctx, tx, in.Matches); err != nil {
		return nil, err
	}
	return in, nil
}

// ResetAggregatesTx puts every aggregate of a league back to its defaults.
func (s *store) ResetAggregatesTx(ctx context.Context, tx database.DBTX, leagueID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE player_ratings
		SET rating = ?, wins = 0, losses = 0, streak = 0, stats_approximate = 0
		WHERE player_id IN (SELECT id FROM players WHERE league_id = ?)`,
		rating.InitialRating, leagueID)
	if err != nil {
		return fmt.Errorf("failed to reset aggregates of league %s: %w", leagueID, err)
	}
	return nil
}

var _ Store = (*store)(nil)
