package confirmation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
)

const pendingColumns = `id, league_id, mode, winners_json, losers_json, score_winner, score_loser,
	is_friendly, logged_by, status, created_at, expires_at, resolved_at, match_id`

func insertPending(ctx context.Context, q database.DBTX, p *domain.PendingMatch) error {
	winnersJSON, err := json.Marshal(p.Winners)
	if err != nil {
		return err
	}
	losersJSON, err := json.Marshal(p.Losers)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO pending_matches (id, league_id, mode, winners_json, losers_json, score_winner, score_loser,
			is_friendly, logged_by, status, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.LeagueID, p.Mode, string(winnersJSON), string(losersJSON), p.ScoreWinner, p.ScoreLoser,
		p.IsFriendly, p.LoggedBy, p.Status, p.CreatedAt.UnixMilli(), p.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert pending match %s: %w", p.ID, err)
	}
	return nil
}

func getPending(ctx context.Context, q database.DBTX, id string) (*domain.PendingMatch, error) {
	list, err := queryPending(ctx, q, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &domain.NotFoundError{Kind: "pending match", ID: id}
	}
	return &list[0], nil
}

func queryPending(ctx context.Context, q database.DBTX, clause string, args ...any) ([]domain.PendingMatch, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+pendingColumns+` FROM pending_matches `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending matches: %w", err)
	}
	defer rows.Close()

	list := []domain.PendingMatch{}
	for rows.Next() {
		var (
			p                       domain.PendingMatch
			winnersJSON, losersJSON string
			createdAt, expiresAt    int64
			resolvedAt              sql.NullInt64
			matchID                 sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.LeagueID, &p.Mode, &winnersJSON, &losersJSON, &p.ScoreWinner, &p.ScoreLoser,
			&p.IsFriendly, &p.LoggedBy, &p.Status, &createdAt, &expiresAt, &resolvedAt, &matchID); err != nil {
			return nil, fmt.Errorf("failed to scan pending match: %w", err)
		}
		if err := json.Unmarshal([]byte(winnersJSON), &p.Winners); err != nil {
			return nil, fmt.Errorf("failed to decode winners of pending match %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(losersJSON), &p.Losers); err != nil {
			return nil, fmt.Errorf("failed to decode losers of pending match %s: %w", p.ID, err)
		}
		p.CreatedAt = time.UnixMilli(createdAt).UTC()
		p.ExpiresAt = time.UnixMilli(expiresAt).UTC()
		if resolvedAt.Valid {
			t := time.UnixMilli(resolvedAt.Int64).UTC()
			p.ResolvedAt = &t
		}
		p.MatchID = matchID.String
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range list {
		if list[i].Confirmations, err = confirmations(ctx, q, list[i].ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func confirmations(ctx context.Context, q database.DBTX, pendingID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT player_id FROM pending_confirmations WHERE pending_id = ? ORDER BY confirmed_at, player_id`, pendingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query confirmations of %s: %w", pendingID, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan confirmation: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func addConfirmation(ctx context.Context, q database.DBTX, pendingID, playerID string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO pending_confirmations (pending_id, player_id, confirmed_at) VALUES (?, ?, ?)
		ON CONFLICT(pending_id, player_id) DO NOTHING`,
		pendingID, playerID, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record confirmation of %s by %s: %w", pendingID, playerID, err)
	}
	return nil
}

// swapStatus moves a pending match from one status to another only if it is
// still in from. It reports whether the swap happened.
func swapStatus(ctx context.Context, q database.DBTX, p *domain.PendingMatch, to domain.PendingStatus, at time.Time, matchID string) (bool, error) {
	var resolvedAt sql.NullInt64
	if to.Terminal() {
		resolvedAt = sql.NullInt64{Int64: at.UnixMilli(), Valid: true}
	}
	res, err := q.ExecContext(ctx, `
		UPDATE pending_matches SET status = ?, resolved_at = ?, match_id = ?
		WHERE id = ? AND status = ?`,
		to, resolvedAt, sql.NullString{String: matchID, Valid: matchID != ""}, p.ID, p.Status)
	if err != nil {
		return false, fmt.Errorf("failed to update status of pending match %s: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
