package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
)

// Commit appends m to the ledger and applies its effects to the aggregates
// in a single transaction. The timestamp is always the commit time.
func (s *store) Commit(ctx context.Context, m *domain.Match) (*domain.Match, error) {
	var out *domain.Match
	err := database.InTx(ctx, s.db, func(tx database.DBTX) error {
		var err error
		out, err = s.CommitTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CommitTx is Commit joined to the caller's transaction.
func (s *store) CommitTx(ctx context.Context, tx database.DBTX, m *domain.Match) (*domain.Match, error) {
	if m.LeagueID == "" {
		return nil, &domain.ValidationError{Field: "league_id", Reason: "must not be empty"}
	}
	if err := domain.ValidateSubmission(m.Submission()); err != nil {
		return nil, err
	}
	if err := checkParticipants(ctx, tx, m.LeagueID, m.Participants()); err != nil {
		return nil, err
	}
	ep, err := currentEpoch(ctx, tx, m.LeagueID)
	if err != nil {
		return nil, err
	}
	playedAt, err := s.nextTimestamp(ctx, tx, m.LeagueID)
	if err != nil {
		return nil, err
	}

	state, err := loadState(ctx, tx, m.Participants(), m.Mode)
	if err != nil {
		return nil, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.SeasonID = ep.stamp()
	m.Timestamp = playedAt
	history, err := s.policy.Apply(state, m)
	if err != nil {
		return nil, fmt.Errorf("failed to apply match %s: %w", m.ID, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO matches (id, league_id, season_id, mode, score_winner, score_loser, rating_delta, is_friendly, counts_record, played_at, logged_by, pending_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.LeagueID, m.SeasonID, m.Mode, m.ScoreWinner, m.ScoreLoser, m.RatingDelta,
		m.IsFriendly, m.CountsRecord, m.Timestamp.UnixMilli(), m.LoggedBy, nullString(m.PendingID))
	if err != nil {
		return nil, fmt.Errorf("failed to insert match %s: %w", m.ID, err)
	}
	if m.Seq, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read sequence of match %s: %w", m.ID, err)
	}
	if err := insertParticipants(ctx, tx, m); err != nil {
		return nil, err
	}
	if err := saveState(ctx, tx, state); err != nil {
		return nil, err
	}
	if err := insertHistory(ctx, tx, history); err != nil {
		return nil, err
	}

	log.Info("Committed match", "matchID", m.ID, "leagueID", m.LeagueID, "mode", m.Mode, "delta", m.RatingDelta, "friendly", m.IsFriendly)
	return m, nil
}

// Delete removes a match from the current epoch and reverses its effects.
func (s *store) Delete(ctx context.Context, matchID string) (*domain.Match, error) {
	var deleted *domain.Match
	err := database.InTx(ctx, s.db, func(tx database.DBTX) error {
		m, err := s.mutableMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		state, err := loadState(ctx, tx, m.Participants(), m.Mode)
		if err != nil {
			return err
		}
		if err := s.policy.Reverse(state, m); err != nil {
			return fmt.Errorf("failed to reverse match %s: %w", matchID, err)
		}
		if err := saveState(ctx, tx, state); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, matchID); err != nil {
			return fmt.Errorf("failed to delete match %s: %w", matchID, err)
		}
		deleted = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Deleted match", "matchID", matchID, "leagueID", deleted.LeagueID, "delta", deleted.RatingDelta)
	return deleted, nil
}

// Edit replaces the result of a match: the old effects are reversed and the
// corrected result is applied as a fresh commit at the original position.
func (s *store) Edit(ctx context.Context, matchID string, edit Edit) (*domain.Match, error) {
	var edited *domain.Match
	err := database.InTx(ctx, s.db, func(tx database.DBTX) error {
		old, err := s.mutableMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		next := *old
		next.Winners = edit.Winners
		next.Losers = edit.Losers
		next.ScoreWinner = edit.ScoreWinner
		next.ScoreLoser = edit.ScoreLoser
		next.RatingDelta = 0
		if err := domain.ValidateSubmission(next.Submission()); err != nil {
			return err
		}
		if err := checkParticipants(ctx, tx, next.LeagueID, next.Participants()); err != nil {
			return err
		}

		state, err := loadState(ctx, tx, union(old.Participants(), next.Participants()), old.Mode)
		if err != nil {
			return err
		}
		if err := s.policy.Reverse(state, old); err != nil {
			return fmt.Errorf("failed to reverse match %s: %w", matchID, err)
		}
		history, err := s.policy.Apply(state, &next)
		if err != nil {
			return fmt.Errorf("failed to apply edited match %s: %w", matchID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE matches SET score_winner = ?, score_loser = ?, rating_delta = ?, counts_record = ? WHERE id = ?`,
			next.ScoreWinner, next.ScoreLoser, next.RatingDelta, next.CountsRecord, matchID); err != nil {
			return fmt.Errorf("failed to update match %s: %w", matchID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM match_participants WHERE match_id = ?`, matchID); err != nil {
			return fmt.Errorf("failed to clear participants of match %s: %w", matchID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rating_history WHERE match_id = ?`, matchID); err != nil {
			return fmt.Errorf("failed to clear history of match %s: %w", matchID, err)
		}
		if err := insertParticipants(ctx, tx, &next); err != nil {
			return err
		}
		if err := saveState(ctx, tx, state); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, history); err != nil {
			return err
		}
		edited = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Edited match", "matchID", matchID, "leagueID", edited.LeagueID, "delta", edited.RatingDelta)
	return edited, nil
}

// mutableMatch loads a match and checks that it belongs to the current epoch.
func (s *store) mutableMatch(ctx context.Context, tx database.DBTX, matchID string) (*domain.Match, error) {
	m, err := getMatch(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	ep, err := currentEpoch(ctx, tx, m.LeagueID)
	if err != nil {
		return nil, err
	}
	if !ep.covers(m.SeasonID) {
		return nil, &domain.SeasonStateError{
			LeagueID: m.LeagueID,
			Reason:   fmt.Sprintf("match %s belongs to an archived season", matchID),
		}
	}
	return m, nil
}

func (s *store) GetMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return getMatch(ctx, s.db, matchID)
}

// ListMatches returns the most recent matches of a league, newest first.
func (s *store) ListMatches(ctx context.Context, leagueID string, limit int) ([]domain.Match, error) {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	matches, err := queryMatches(ctx, s.db, `WHERE league_id = ? ORDER BY played_at DESC, seq DESC LIMIT ?`, leagueID, limit)
	if err != nil {
		return nil, err
	}
	if err := fillParticipants(ctx, s.db, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// History returns the rating trajectory of a player in one mode, oldest first.
func (s *store) History(ctx context.Context, playerID string, mode domain.Mode) ([]domain.RatingHistoryEntry, error) {
	if !mode.Valid() {
		return nil, &domain.ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}
	if _, err := s.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, rating_after, recorded_at
		FROM rating_history
		WHERE player_id = ? AND mode = ?
		ORDER BY recorded_at, id`, playerID, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to query history of %s: %w", playerID, err)
	}
	defer rows.Close()

	history := []domain.RatingHistoryEntry{}
	for rows.Next() {
		e := domain.RatingHistoryEntry{PlayerID: playerID, Mode: mode}
		var recordedAt int64
		if err := rows.Scan(&e.MatchID, &e.RatingAfter, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Timestamp = time.UnixMilli(recordedAt).UTC()
		history = append(history, e)
	}
	return history, rows.Err()
}

// CountSeasonMatchesTx counts the matches stamped with seasonID.
func (s *store) CountSeasonMatchesTx(ctx context.Context, tx database.DBTX, seasonID string) (int, error) {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE season_id = ?`, seasonID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches of season %s: %w", seasonID, err)
	}
	return n, nil
}

// checkParticipants verifies every id is an active player of the league.
func checkParticipants(ctx context.Context, q database.DBTX, leagueID string, ids []string) error {
	for _, id := range ids {
		var (
			league    string
			removedAt sql.NullInt64
		)
		err := q.QueryRowContext(ctx, `SELECT league_id, removed_at FROM players WHERE id = ?`, id).Scan(&league, &removedAt)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && (league != leagueID || removedAt.Valid)) {
			return &domain.NotFoundError{Kind: "player", ID: id}
		}
		if err != nil {
			return fmt.Errorf("failed to look up player %s: %w", id, err)
		}
	}
	return nil
}

func getMatch(ctx context.Context, q database.DBTX, matchID string) (*domain.Match, error) {
	matches, err := queryMatches(ctx, q, `WHERE id = ?`, matchID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, &domain.NotFoundError{Kind: "match", ID: matchID}
	}
	if err := fillParticipants(ctx, q, matches); err != nil {
		return nil, err
	}
	return &matches[0], nil
}

func queryMatches(ctx context.Context, q database.DBTX, clause string, args ...any) ([]domain.Match, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT seq, id, league_id, season_id, mode, score_winner, score_loser, rating_delta,
		       is_friendly, counts_record, played_at, logged_by, pending_id
		FROM matches `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []domain.Match{}
	for rows.Next() {
		var (
			m         domain.Match
			playedAt  int64
			pendingID sql.NullString
		)
		if err := rows.Scan(&m.Seq, &m.ID, &m.LeagueID, &m.SeasonID, &m.Mode, &m.ScoreWinner, &m.ScoreLoser,
			&m.RatingDelta, &m.IsFriendly, &m.CountsRecord, &playedAt, &m.LoggedBy, &pendingID); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.Timestamp = time.UnixMilli(playedAt).UTC()
		m.PendingID = pendingID.String
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// fillParticipants loads winners and losers for every match. Rows are read
// one match at a time after the match cursor is closed.
func fillParticipants(ctx context.Context, q database.DBTX, matches []domain.Match) error {
	for i := range matches {
		m := &matches[i]
		rows, err := q.QueryContext(ctx,
			`SELECT player_id, side FROM match_participants WHERE match_id = ? ORDER BY position`, m.ID)
		if err != nil {
			return fmt.Errorf("failed to query participants of match %s: %w", m.ID, err)
		}
		m.Winners, m.Losers = nil, nil
		for rows.Next() {
			var playerID, side string
			if err := rows.Scan(&playerID, &side); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan participant: %w", err)
			}
			if side == sideWinner {
				m.Winners = append(m.Winners, playerID)
			} else {
				m.Losers = append(m.Losers, playerID)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func insertParticipants(ctx context.Context, q database.DBTX, m *domain.Match) error {
	position := 0
	insert := func(side string, ids []string) error {
		for _, id := range ids {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO match_participants (match_id, player_id, side, position) VALUES (?, ?, ?, ?)`,
				m.ID, id, side, position); err != nil {
				return fmt.Errorf("failed to insert participant %s of match %s: %w", id, m.ID, err)
			}
			position++
		}
		return nil
	}
	if err := insert(sideWinner, m.Winners); err != nil {
		return err
	}
	return insert(sideLoser, m.Losers)
}

func insertHistory(ctx context.Context, q database.DBTX, history []domain.RatingHistoryEntry) error {
	for _, e := range history {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO rating_history (match_id, player_id, mode, rating_after, recorded_at)
			VALUES (?, ?, ?, ?, ?)`,
			e.MatchID, e.PlayerID, e.Mode, e.RatingAfter, e.Timestamp.UnixMilli()); err != nil {
			return fmt.Errorf("failed to append history for %s: %w", e.PlayerID, err)
		}
	}
	return nil
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, id := range append(append([]string{}, a...), b...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
