package season

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
)

type controller struct {
	db     *sql.DB
	ledger Ledger
	now    func() time.Time
}

// Option configures a Controller.
type Option func(*controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *controller) { c.now = now }
}

// New creates a season Controller.
func New(db *sql.DB, ledger Ledger, opts ...Option) Controller {
	c := &controller{db: db, ledger: ledger, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *controller) clock() time.Time {
	return c.now().UTC().Truncate(time.Millisecond)
}

// Start opens a new season and resets every aggregate of the league.
func (c *controller) Start(ctx context.Context, leagueID, name string) (*domain.Season, error) {
	if leagueID == "" {
		return nil, &domain.ValidationError{Field: "league_id", Reason: "must not be empty"}
	}
	var s *domain.Season
	err := database.InTx(ctx, c.db, func(tx database.DBTX) error {
		active, err := activeSeason(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if active != nil {
			return &domain.SeasonStateError{LeagueID: leagueID, Reason: fmt.Sprintf("season %d is still active", active.Number)}
		}

		var last int
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(number), 0) FROM seasons WHERE league_id = ?`, leagueID).Scan(&last); err != nil {
			return fmt.Errorf("failed to read last season number: %w", err)
		}
		s = &domain.Season{
			ID:             uuid.NewString(),
			LeagueID:       leagueID,
			Number:         last + 1,
			Name:           strings.TrimSpace(name),
			Status:         domain.SeasonStatusActive,
			StartedAt:      c.clock(),
			FinalStandings: []domain.Standing{},
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("Season %d", s.Number)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO seasons (id, league_id, number, name, status, started_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID, s.LeagueID, s.Number, s.Name, s.Status, s.StartedAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert season: %w", err)
		}
		return c.ledger.ResetAggregatesTx(ctx, tx, leagueID)
	})
	if err != nil {
		return nil, err
	}
	log.Info("Started season", "leagueID", leagueID, "seasonID", s.ID, "number", s.Number)
	return s, nil
}

// End archives the active season with its final standings.
func (c *controller) End(ctx context.Context, leagueID string) (*domain.Season, error) {
	var s *domain.Season
	err := database.InTx(ctx, c.db, func(tx database.DBTX) error {
		var err error
		s, err = activeSeason(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if s == nil {
			return &domain.SeasonStateError{LeagueID: leagueID, Reason: "no active season"}
		}

		players, err := c.ledger.ActivePlayersTx(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if s.MatchCount, err = c.ledger.CountSeasonMatchesTx(ctx, tx, s.ID); err != nil {
			return err
		}
		s.FinalStandings = RankStandings(players)
		if len(s.FinalStandings) > 0 {
			s.ChampionID = s.FinalStandings[0].PlayerID
		}
		ended := c.clock()
		s.EndedAt = &ended
		s.Status = domain.SeasonStatusCompleted

		res, err := tx.ExecContext(ctx, `
			UPDATE seasons SET status = ?, ended_at = ?, match_count = ?, champion_id = ?
			WHERE id = ? AND status = ?`,
			s.Status, ended.UnixMilli(), s.MatchCount, sql.NullString{String: s.ChampionID, Valid: s.ChampionID != ""},
			s.ID, domain.SeasonStatusActive)
		if err != nil {
			return fmt.Errorf("failed to close season %s: %w", s.ID, err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return &domain.SeasonStateError{LeagueID: leagueID, Reason: "season was closed concurrently"}
		}
		for _, st := range s.FinalStandings {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO season_standings (season_id, player_id, rank, rating_singles, rating_doubles, wins, losses)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				s.ID, st.PlayerID, st.Rank, st.RatingSingles, st.RatingDoubles, st.Wins, st.Losses); err != nil {
				return fmt.Errorf("failed to store standing of %s: %w", st.PlayerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Ended season", "leagueID", leagueID, "seasonID", s.ID, "champion", s.ChampionID, "matches", s.MatchCount)
	return s, nil
}

func (c *controller) Get(ctx context.Context, seasonID string) (*domain.Season, error) {
	seasons, err := querySeasons(ctx, c.db, `WHERE id = ?`, seasonID)
	if err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		return nil, &domain.NotFoundError{Kind: "season", ID: seasonID}
	}
	return &seasons[0], nil
}

// List returns the seasons of a league, latest first.
func (c *controller) List(ctx context.Context, leagueID string) ([]domain.Season, error) {
	return querySeasons(ctx, c.db, `WHERE league_id = ? ORDER BY number DESC`, leagueID)
}

func (c *controller) Active(ctx context.Context, leagueID string) (*domain.Season, error) {
	s, err := activeSeason(ctx, c.db, leagueID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &domain.NotFoundError{Kind: "active season", ID: leagueID}
	}
	return s, nil
}

func activeSeason(ctx context.Context, q database.DBTX, leagueID string) (*domain.Season, error) {
	seasons, err := querySeasons(ctx, q, `WHERE league_id = ? AND status = ?`, leagueID, domain.SeasonStatusActive)
	if err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		return nil, nil
	}
	return &seasons[0], nil
}

func querySeasons(ctx context.Context, q database.DBTX, clause string, args ...any) ([]domain.Season, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, league_id, number, name, status, started_at, ended_at, match_count, champion_id
		FROM seasons `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	defer rows.Close()

	seasons := []domain.Season{}
	for rows.Next() {
		var (
			s          domain.Season
			startedAt  int64
			endedAt    sql.NullInt64
			championID sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.LeagueID, &s.Number, &s.Name, &s.Status, &startedAt, &endedAt,
			&s.MatchCount, &championID); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		s.StartedAt = time.UnixMilli(startedAt).UTC()
		if endedAt.Valid {
			t := time.UnixMilli(endedAt.Int64).UTC()
			s.EndedAt = &t
		}
		s.ChampionID = championID.String
		seasons = append(seasons, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range seasons {
		if seasons[i].FinalStandings, err = standings(ctx, q, seasons[i].ID); err != nil {
			return nil, err
		}
	}
	return seasons, nil
}

func standings(ctx context.Context, q database.DBTX, seasonID string) ([]domain.Standing, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT player_id, rank, rating_singles, rating_doubles, wins, losses
		FROM season_standings WHERE season_id = ? ORDER BY rank`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings of season %s: %w", seasonID, err)
	}
	defer rows.Close()

	out := []domain.Standing{}
	for rows.Next() {
		var st domain.Standing
		if err := rows.Scan(&st.PlayerID, &st.Rank, &st.RatingSingles, &st.RatingDoubles, &st.Wins, &st.Losses); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
