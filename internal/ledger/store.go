package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/projector"
	"github.com/shopspring/decimal"
)

// store is the SQL implementation of Store.
type store struct {
	db     *sql.DB
	policy projector.Policy
	now    func() time.Time
}

// Option configures a store.
type Option func(*store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *store) { s.now = now }
}

// New creates a new ledger Store.
func New(db *sql.DB, policy projector.Policy, opts ...Option) Store {
	s := &store{db: db, policy: policy, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *store) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// AddPlayer registers a player with default aggregates for every mode.
// Adding a removed player again restores it under the new name.
func (s *store) AddPlayer(ctx context.Context, leagueID, playerID, name string) (*domain.Player, error) {
	if leagueID == "" {
		return nil, &domain.ValidationError{Field: "league_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(name) == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if playerID == "" {
		playerID = uuid.NewString()
	}

	err := database.InTx(ctx, s.db, func(tx database.DBTX) error {
		var (
			existingLeague string
			removedAt      sql.NullInt64
		)
		err := tx.QueryRowContext(ctx, `SELECT league_id, removed_at FROM players WHERE id = ?`, playerID).Scan(&existingLeague, &removedAt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO players (id, league_id, name, created_at) VALUES (?, ?, ?, ?)`,
				playerID, leagueID, name, s.clock().UnixMilli()); err != nil {
				return fmt.Errorf("failed to insert player: %w", err)
			}
			for _, mode := range domain.Modes {
				if err := upsertAggregate(ctx, tx, domain.NewAggregate(playerID, mode)); err != nil {
					return err
				}
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to look up player %s: %w", playerID, err)
		case existingLeague != leagueID:
			return &domain.ValidationError{Field: "id", Reason: fmt.Sprintf("player %s belongs to another league", playerID)}
		case !removedAt.Valid:
			return &domain.ValidationError{Field: "id", Reason: fmt.Sprintf("player %s already exists", playerID)}
		}
		_, err = tx.ExecContext(ctx, `UPDATE players SET removed_at = NULL, name = ? WHERE id = ?`, name, playerID)
		if err != nil {
			return fmt.Errorf("failed to restore player %s: %w", playerID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Added player", "leagueID", leagueID, "playerID", playerID, "name", name)
	return s.GetPlayer(ctx, playerID)
}

// RemovePlayer tombstones a player. Ledger rows keep referencing it.
func (s *store) RemovePlayer(ctx context.Context, playerID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE players SET removed_at = ? WHERE id = ? AND removed_at IS NULL`,
		s.clock().UnixMilli(), playerID)
	if err != nil {
		return fmt.Errorf("failed to remove player %s: %w", playerID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Kind: "player", ID: playerID}
	}
	log.Info("Removed player", "playerID", playerID)
	return nil
}

func (s *store) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	players, err := loadPlayers(ctx, s.db, `p.id = ?`, playerID)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, &domain.NotFoundError{Kind: "player", ID: playerID}
	}
	return &players[0], nil
}

// ListPlayers returns the active players of a league ordered by name.
func (s *store) ListPlayers(ctx context.Context, leagueID string) ([]domain.Player, error) {
	players, err := loadPlayers(ctx, s.db, `p.league_id = ? AND p.removed_at IS NULL`, leagueID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Name < players[j].Name
	})
	return players, nil
}

// ActivePlayersTx returns the active players of a league inside tx.
func (s *store) ActivePlayersTx(ctx context.Context, tx database.DBTX, leagueID string) ([]domain.Player, error) {
	return loadPlayers(ctx, tx, `p.league_id = ? AND p.removed_at IS NULL`, leagueID)
}

// Leaderboard ranks the active players of a league by rating in one mode.
func (s *store) Leaderboard(ctx context.Context, leagueID string, mode domain.Mode) ([]domain.LeaderboardEntry, error) {
	if !mode.Valid() {
		return nil, &domain.ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}
	players, err := s.ListPlayers(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i].Aggregate(mode), players[j].Aggregate(mode)
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return players[i].ID < players[j].ID
	})

	entries := make([]domain.LeaderboardEntry, 0, len(players))
	for i, p := range players {
		agg := p.Aggregate(mode)
		entries = append(entries, domain.LeaderboardEntry{
			Rank:                  i + 1,
			PlayerID:              p.ID,
			PlayerName:            p.Name,
			Rating:                agg.Rating,
			Wins:                  agg.Wins,
			Losses:                agg.Losses,
			Streak:                agg.Streak,
			WinPercentage:         WinPercentage(agg.Wins, agg.Losses),
			StatsMayBeApproximate: agg.StatsMayBeApproximate,
		})
	}
	return entries, nil
}

// WinPercentage returns wins over games played as a percentage with one decimal.
func WinPercentage(wins, losses int) float64 {
	played := wins + losses
	if played == 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(wins)).
		Div(decimal.NewFromInt(int64(played))).
		Mul(decimal.NewFromInt(100)).
		Round(1)
	return pct.InexactFloat64()
}

// loadPlayers reads players matching where together with their aggregates.
func loadPlayers(ctx context.Context, q database.DBTX, where string, args ...any) ([]domain.Player, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT p.id, p.league_id, p.name, p.created_at, p.removed_at,
		       r.mode, r.rating, r.wins, r.losses, r.streak, r.stats_approximate
		FROM players p
		LEFT JOIN player_ratings r ON r.player_id = p.id
		WHERE `+where+`
		ORDER BY p.id, r.mode`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	index := make(map[string]int)
	for rows.Next() {
		var (
			id, leagueID, name string
			createdAt          int64
			removedAt          sql.NullInt64
			mode               sql.NullString
			rating, wins       sql.NullInt64
			losses, streak     sql.NullInt64
			approx             sql.NullBool
		)
		if err := rows.Scan(&id, &leagueID, &name, &createdAt, &removedAt,
			&mode, &rating, &wins, &losses, &streak, &approx); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		i, ok := index[id]
		if !ok {
			players = append(players, domain.Player{
				ID:        id,
				LeagueID:  leagueID,
				Name:      name,
				CreatedAt: time.UnixMilli(createdAt).UTC(),
				Removed:   removedAt.Valid,
				Singles:   domain.NewAggregate(id, domain.ModeSingles),
				Doubles:   domain.NewAggregate(id, domain.ModeDoubles),
			})
			i = len(players) - 1
			index[id] = i
		}
		if !mode.Valid {
			continue
		}
		players[i].SetAggregate(domain.Aggregate{
			PlayerID:              id,
			Mode:                  domain.Mode(mode.String),
			Rating:                int(rating.Int64),
			Wins:                  int(wins.Int64),
			Losses:                int(losses.Int64),
			Streak:                int(streak.Int64),
			StatsMayBeApproximate: approx.Bool,
		})
	}
	return players, rows.Err()
}

// loadState reads the aggregates of ids in mode into a projector state.
func loadState(ctx context.Context, q database.DBTX, ids []string, mode domain.Mode) (projector.State, error) {
	state := projector.NewState()
	for _, id := range ids {
		agg := domain.Aggregate{PlayerID: id, Mode: mode}
		err := q.QueryRowContext(ctx, `
			SELECT rating, wins, losses, streak, stats_approximate
			FROM player_ratings WHERE player_id = ? AND mode = ?`, id, mode).
			Scan(&agg.Rating, &agg.Wins, &agg.Losses, &agg.Streak, &agg.StatsMayBeApproximate)
		if errors.Is(err, sql.ErrNoRows) {
			agg = domain.NewAggregate(id, mode)
		} else if err != nil {
			return nil, fmt.Errorf("failed to load aggregate of %s: %w", id, err)
		}
		state.Put(agg)
	}
	return state, nil
}

func upsertAggregate(ctx context.Context, q database.DBTX, a domain.Aggregate) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO player_ratings (player_id, mode, rating, wins, losses, streak, stats_approximate)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_id, mode) DO UPDATE SET
			rating = excluded.rating,
			wins = excluded.wins,
			losses = excluded.losses,
			streak = excluded.streak,
			stats_approximate = excluded.stats_approximate`,
		a.PlayerID, a.Mode, a.Rating, a.Wins, a.Losses, a.Streak, a.StatsMayBeApproximate)
	if err != nil {
		return fmt.Errorf("failed to write %s aggregate of %s: %w", a.Mode, a.PlayerID, err)
	}
	return nil
}

func saveState(ctx context.Context, q database.DBTX, state projector.State) error {
	keys := make([]projector.Key, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PlayerID != keys[j].PlayerID {
			return keys[i].PlayerID < keys[j].PlayerID
		}
		return keys[i].Mode < keys[j].Mode
	})
	for _, k := range keys {
		if err := upsertAggregate(ctx, q, *state[k]); err != nil {
			return err
		}
	}
	return nil
}

// epoch is the span of a league's ledger covered by its running
// aggregates: everything since the latest season start.
type epoch struct {
	seasonID string
	ended    bool
}

// afterSeason is the stamp of matches played after seasonID ended and
// before the next season starts.
func afterSeason(seasonID string) string {
	return "after:" + seasonID
}

// stamp is the season id a match committed now is recorded under.
func (e epoch) stamp() string {
	if e.ended {
		return afterSeason(e.seasonID)
	}
	return e.seasonID
}

// keys lists both stamps the epoch covers. Before the first season both are "".
func (e epoch) keys() (string, string) {
	if e.seasonID == "" {
		return "", ""
	}
	return e.seasonID, afterSeason(e.seasonID)
}

func (e epoch) covers(seasonID string) bool {
	during, after := e.keys()
	return seasonID == during || seasonID == after
}

// currentEpoch reads the most recently started season of a league.
func currentEpoch(ctx context.Context, q database.DBTX, leagueID string) (epoch, error) {
	var (
		id     string
		status domain.SeasonStatus
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, status FROM seasons WHERE league_id = ? ORDER BY number DESC LIMIT 1`, leagueID).Scan(&id, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return epoch{}, nil
	}
	if err != nil {
		return epoch{}, fmt.Errorf("failed to read current season of league %s: %w", leagueID, err)
	}
	return epoch{seasonID: id, ended: status != domain.SeasonStatusActive}, nil
}

// nextTimestamp is the commit time of a new match: the clock, but never
// earlier than the latest match of the league, so ledger order follows
// commit order even if the wall clock steps back.
func (s *store) nextTimestamp(ctx context.Context, q database.DBTX, leagueID string) (time.Time, error) {
	now := s.clock()
	var last sql.NullInt64
	if err := q.QueryRowContext(ctx,
		`SELECT MAX(played_at) FROM matches WHERE league_id = ?`, leagueID).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("failed to read latest match of league %s: %w", leagueID, err)
	}
	if last.Valid {
		if latest := time.UnixMilli(last.Int64).UTC(); now.Before(latest) {
			return latest, nil
		}
	}
	return now, nil
}
