package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/ledger"
	"github.com/mauv0809/racket-ladder/internal/projector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const league = "league1"

// setupTestDB creates an in-memory database and a ledger store whose clock
// advances one second per reading.
func setupTestDB(t *testing.T) (ledger.Store, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	tick := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return ledger.New(db, projector.DefaultPolicy(), ledger.WithClock(clock)), db, teardown
}

func addPlayers(t *testing.T, store ledger.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := store.AddPlayer(context.Background(), league, id, "Player "+id)
		require.NoError(t, err)
	}
}

func setRating(t *testing.T, db *sql.DB, playerID string, mode domain.Mode, rating int) {
	t.Helper()
	_, err := db.Exec(`UPDATE player_ratings SET rating = ? WHERE player_id = ? AND mode = ?`, rating, playerID, mode)
	require.NoError(t, err)
}

func singles(winner, loser string) *domain.Match {
	return &domain.Match{
		LeagueID:    league,
		Mode:        domain.ModeSingles,
		Winners:     []string{winner},
		Losers:      []string{loser},
		ScoreWinner: 11,
		ScoreLoser:  6,
		LoggedBy:    winner,
	}
}

func aggregate(t *testing.T, store ledger.Store, playerID string, mode domain.Mode) domain.Aggregate {
	t.Helper()
	p, err := store.GetPlayer(context.Background(), playerID)
	require.NoError(t, err)
	return p.Aggregate(mode)
}

func TestAddAndRemovePlayers(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p, err := store.AddPlayer(ctx, league, "p1", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, domain.NewAggregate("p1", domain.ModeSingles), p.Singles)
	assert.Equal(t, domain.NewAggregate("p1", domain.ModeDoubles), p.Doubles)

	generated, err := store.AddPlayer(ctx, league, "", "Bo")
	require.NoError(t, err)
	assert.NotEmpty(t, generated.ID)

	_, err = store.AddPlayer(ctx, league, "p1", "Ana again")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = store.AddPlayer(ctx, league, "p9", " ")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	players, err := store.ListPlayers(ctx, league)
	require.NoError(t, err)
	assert.Len(t, players, 2)

	require.NoError(t, store.RemovePlayer(ctx, "p1"))
	assert.True(t, domain.IsNotFound(store.RemovePlayer(ctx, "p1")))
	assert.True(t, domain.IsNotFound(store.RemovePlayer(ctx, "nobody")))

	players, err = store.ListPlayers(ctx, league)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Bo", players[0].Name)

	removed, err := store.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, removed.Removed)

	restored, err := store.AddPlayer(ctx, league, "p1", "Ana B")
	require.NoError(t, err)
	assert.False(t, restored.Removed)
	assert.Equal(t, "Ana B", restored.Name)
}

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("underdog win moves 24 points", func(t *testing.T) {
		store, db, teardown := setupTestDB(t)
		defer teardown()
		addPlayers(t, store, "a", "b")
		setRating(t, db, "b", domain.ModeSingles, 1400)

		m, err := store.Commit(ctx, singles("a", "b"))
		require.NoError(t, err)
		assert.NotEmpty(t, m.ID)
		assert.Positive(t, m.Seq)
		assert.Equal(t, 24, m.RatingDelta)
		assert.Equal(t, "", m.SeasonID)

		a := aggregate(t, store, "a", domain.ModeSingles)
		b := aggregate(t, store, "b", domain.ModeSingles)
		assert.Equal(t, 1224, a.Rating)
		assert.Equal(t, 1376, b.Rating)
		assert.Equal(t, 1, a.Wins)
		assert.Equal(t, 1, a.Streak)
		assert.Equal(t, 1, b.Losses)
		assert.Equal(t, -1, b.Streak)

		stored, err := store.GetMatch(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, m.Timestamp, stored.Timestamp)
		assert.Equal(t, []string{"a"}, stored.Winners)
		assert.Equal(t, []string{"b"}, stored.Losers)
		assert.Equal(t, 24, stored.RatingDelta)

		history, err := store.History(ctx, "a", domain.ModeSingles)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, 1224, history[0].RatingAfter)
		assert.Equal(t, m.ID, history[0].MatchID)
	})

	t.Run("doubles between equal teams moves 16 points", func(t *testing.T) {
		store, db, teardown := setupTestDB(t)
		defer teardown()
		addPlayers(t, store, "a", "b", "c", "d")
		for _, id := range []string{"a", "b", "c", "d"} {
			setRating(t, db, id, domain.ModeDoubles, 1250)
		}

		m, err := store.Commit(ctx, &domain.Match{
			LeagueID: league, Mode: domain.ModeDoubles,
			Winners: []string{"a", "b"}, Losers: []string{"c", "d"},
			ScoreWinner: 12, ScoreLoser: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 16, m.RatingDelta)
		assert.Equal(t, 1266, aggregate(t, store, "b", domain.ModeDoubles).Rating)
		assert.Equal(t, 1234, aggregate(t, store, "d", domain.ModeDoubles).Rating)
		assert.Equal(t, 1200, aggregate(t, store, "a", domain.ModeSingles).Rating)
	})

	t.Run("friendly leaves aggregates alone but keeps history", func(t *testing.T) {
		store, _, teardown := setupTestDB(t)
		defer teardown()
		addPlayers(t, store, "a", "b")

		m := singles("a", "b")
		m.IsFriendly = true
		m, err := store.Commit(ctx, m)
		require.NoError(t, err)
		assert.Equal(t, 0, m.RatingDelta)
		assert.Equal(t, domain.NewAggregate("a", domain.ModeSingles), aggregate(t, store, "a", domain.ModeSingles))

		history, err := store.History(ctx, "b", domain.ModeSingles)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, 1200, history[0].RatingAfter)
	})

	t.Run("rejects invalid or unknown participants without writing", func(t *testing.T) {
		store, db, teardown := setupTestDB(t)
		defer teardown()
		addPlayers(t, store, "a", "b", "gone")
		require.NoError(t, store.RemovePlayer(ctx, "gone"))
		_, err := store.AddPlayer(ctx, "other-league", "stranger", "Stranger")
		require.NoError(t, err)

		bad := singles("a", "b")
		bad.ScoreLoser = 10
		_, err = store.Commit(ctx, bad)
		assert.True(t, errors.Is(err, domain.ErrValidation))

		for _, loser := range []string{"ghost", "gone", "stranger"} {
			_, err = store.Commit(ctx, singles("a", loser))
			assert.True(t, domain.IsNotFound(err), loser)
		}

		var count int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&count))
		assert.Zero(t, count)
		assert.Equal(t, domain.NewAggregate("a", domain.ModeSingles), aggregate(t, store, "a", domain.ModeSingles))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, db, teardown := setupTestDB(t)
	defer teardown()
	addPlayers(t, store, "a", "b")

	m1, err := store.Commit(ctx, singles("a", "b"))
	require.NoError(t, err)
	afterFirst := aggregate(t, store, "a", domain.ModeSingles)
	m2, err := store.Commit(ctx, singles("a", "b"))
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, m2.ID)
	require.NoError(t, err)
	assert.Equal(t, m2.ID, deleted.ID)

	a := aggregate(t, store, "a", domain.ModeSingles)
	b := aggregate(t, store, "b", domain.ModeSingles)
	assert.Equal(t, afterFirst.Rating, a.Rating)
	assert.Equal(t, 2400, a.Rating+b.Rating)
	assert.Equal(t, 1, a.Wins)
	assert.Equal(t, 1, b.Losses)
	assert.Equal(t, 0, a.Streak)
	assert.Equal(t, 0, b.Streak)
	assert.True(t, a.StatsMayBeApproximate)
	assert.True(t, b.StatsMayBeApproximate)

	_, err = store.GetMatch(ctx, m2.ID)
	assert.True(t, domain.IsNotFound(err))
	_, err = store.Delete(ctx, m2.ID)
	assert.True(t, domain.IsNotFound(err))

	var historyRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM rating_history WHERE match_id = ?`, m2.ID).Scan(&historyRows))
	assert.Zero(t, historyRows)

	_, err = store.Delete(ctx, m1.ID)
	require.NoError(t, err)
	a = aggregate(t, store, "a", domain.ModeSingles)
	assert.Equal(t, 1200, a.Rating)
	assert.Equal(t, 0, a.Wins)
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	store, _, teardown := setupTestDB(t)
	defer teardown()
	addPlayers(t, store, "a", "b", "c")

	m, err := store.Commit(ctx, singles("a", "b"))
	require.NoError(t, err)

	edited, err := store.Edit(ctx, m.ID, ledger.Edit{
		Winners: []string{"c"}, Losers: []string{"a"}, ScoreWinner: 11, ScoreLoser: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, m.ID, edited.ID)
	assert.Equal(t, m.Seq, edited.Seq)
	assert.Equal(t, m.Timestamp, edited.Timestamp)
	assert.Equal(t, m.LoggedBy, edited.LoggedBy)
	assert.Equal(t, 16, edited.RatingDelta)

	a := aggregate(t, store, "a", domain.ModeSingles)
	b := aggregate(t, store, "b", domain.ModeSingles)
	c := aggregate(t, store, "c", domain.ModeSingles)
	assert.Equal(t, 1184, a.Rating)
	assert.Equal(t, 0, a.Wins)
	assert.Equal(t, 1, a.Losses)
	assert.Equal(t, -1, a.Streak)
	assert.Equal(t, 1200, b.Rating)
	assert.Equal(t, 0, b.Losses)
	assert.Equal(t, 1216, c.Rating)
	assert.Equal(t, 1, c.Wins)

	stored, err := store.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, stored.Winners)
	assert.Equal(t, []string{"a"}, stored.Losers)
	assert.Equal(t, 5, stored.ScoreLoser)

	t.Run("invalid edit changes nothing", func(t *testing.T) {
		_, err := store.Edit(ctx, m.ID, ledger.Edit{Winners: []string{"c"}, Losers: []string{"c"}, ScoreWinner: 11, ScoreLoser: 5})
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Equal(t, c, aggregate(t, store, "c", domain.ModeSingles))
	})

	t.Run("unknown match", func(t *testing.T) {
		_, err := store.Edit(ctx, "nope", ledger.Edit{Winners: []string{"c"}, Losers: []string{"a"}, ScoreWinner: 11, ScoreLoser: 5})
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestRecalculate(t *testing.T) {
	ctx := context.Background()
	store, db, teardown := setupTestDB(t)
	defer teardown()
	addPlayers(t, store, "a", "b", "c")
	proj := projector.New(store, projector.DefaultPolicy())

	var ids []string
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}, {"c", "a"}, {"a", "b"}} {
		m, err := store.Commit(ctx, singles(pair[0], pair[1]))
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	incremental, err := store.ListPlayers(ctx, league)
	require.NoError(t, err)

	t.Run("replay of an untouched ledger matches incremental state", func(t *testing.T) {
		summary, err := proj.Recalculate(ctx, league)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.PlayersUpdated)
		assert.Equal(t, 5, summary.MatchesReplayed)

		replayed, err := store.ListPlayers(ctx, league)
		require.NoError(t, err)
		assert.Equal(t, incremental, replayed)
	})

	t.Run("replay after delete restores exact streaks", func(t *testing.T) {
		_, err := store.Delete(ctx, ids[3])
		require.NoError(t, err)
		assert.True(t, aggregate(t, store, "a", domain.ModeSingles).StatsMayBeApproximate)

		summary, err := proj.Recalculate(ctx, league)
		require.NoError(t, err)
		assert.Equal(t, 4, summary.MatchesReplayed)

		a := aggregate(t, store, "a", domain.ModeSingles)
		assert.False(t, a.StatsMayBeApproximate)
		assert.Equal(t, 3, a.Wins)
		assert.Equal(t, 3, a.Streak)

		first, err := store.ListPlayers(ctx, league)
		require.NoError(t, err)
		_, err = proj.Recalculate(ctx, league)
		require.NoError(t, err)
		second, err := store.ListPlayers(ctx, league)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		history, err := store.History(ctx, "a", domain.ModeSingles)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, a.Rating, history[2].RatingAfter)
	})

	t.Run("removed players are still replayed", func(t *testing.T) {
		before := aggregate(t, store, "c", domain.ModeSingles)
		require.NoError(t, store.RemovePlayer(ctx, "c"))
		_, err := proj.Recalculate(ctx, league)
		require.NoError(t, err)
		assert.Equal(t, before.Rating, aggregate(t, store, "c", domain.ModeSingles).Rating)
	})

	t.Run("malformed ledger row aborts and keeps state", func(t *testing.T) {
		before, err := store.GetPlayer(ctx, "a")
		require.NoError(t, err)

		_, err = db.Exec(`INSERT INTO matches (id, league_id, season_id, mode, score_winner, score_loser, rating_delta, is_friendly, played_at, logged_by)
			VALUES ('broken', ?, '', 'singles', 11, 10, 0, 0, 0, 'a')`, league)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO match_participants (match_id, player_id, side, position) VALUES ('broken', 'a', 'winner', 0), ('broken', 'b', 'loser', 1)`)
		require.NoError(t, err)

		_, err = proj.Recalculate(ctx, league)
		var ierr *domain.ReplayIntegrityError
		require.True(t, errors.As(err, &ierr))
		assert.Equal(t, "broken", ierr.MatchID)

		after, err := store.GetPlayer(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestArchivedMatchesAreImmutable(t *testing.T) {
	ctx := context.Background()
	store, db, teardown := setupTestDB(t)
	defer teardown()
	addPlayers(t, store, "a", "b")

	old, err := store.Commit(ctx, singles("a", "b"))
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO seasons (id, league_id, number, name, status, started_at) VALUES ('s1', ?, 1, 'Spring', 'active', 0)`, league)
	require.NoError(t, err)
	require.NoError(t, database.InTx(ctx, db, func(tx database.DBTX) error {
		return store.ResetAggregatesTx(ctx, tx, league)
	}))
	assert.Equal(t, domain.NewAggregate("a", domain.ModeSingles), aggregate(t, store, "a", domain.ModeSingles))

	_, err = store.Delete(ctx, old.ID)
	assert.True(t, errors.Is(err, domain.ErrConflictingSeasonState))
	_, err = store.Edit(ctx, old.ID, ledger.Edit{Winners: []string{"b"}, Losers: []string{"a"}, ScoreWinner: 11, ScoreLoser: 3})
	assert.True(t, errors.Is(err, domain.ErrConflictingSeasonState))

	current, err := store.Commit(ctx, singles("b", "a"))
	require.NoError(t, err)
	assert.Equal(t, "s1", current.SeasonID)
	assert.Equal(t, 16, current.RatingDelta)

	require.NoError(t, database.InTx(ctx, db, func(tx database.DBTX) error {
		n, err := store.CountSeasonMatchesTx(ctx, tx, "s1")
		assert.Equal(t, 1, n)
		return err
	}))

	summary, err := projector.New(store, projector.DefaultPolicy()).Recalculate(ctx, league)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchesReplayed)
	assert.Equal(t, 1216, aggregate(t, store, "b", domain.ModeSingles).Rating)
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	store, _, teardown := setupTestDB(t)
	defer teardown()
	addPlayers(t, store, "a", "b", "c")

	for _, pair := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "a"}} {
		_, err := store.Commit(ctx, singles(pair[0], pair[1]))
		require.NoError(t, err)
	}

	board, err := store.Leaderboard(ctx, league, domain.ModeSingles)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "a", board[0].PlayerID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 66.7, board[0].WinPercentage)
	assert.Equal(t, "c", board[2].PlayerID)
	assert.Equal(t, float64(0), board[2].WinPercentage)

	_, err = store.Leaderboard(ctx, league, "squash")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestWinPercentage(t *testing.T) {
	assert.Equal(t, float64(0), ledger.WinPercentage(0, 0))
	assert.Equal(t, float64(50), ledger.WinPercentage(3, 3))
	assert.Equal(t, 33.3, ledger.WinPercentage(1, 2))
	assert.Equal(t, float64(100), ledger.WinPercentage(4, 0))
}

func TestMatchesBetweenSeasons(t *testing.T) {
	ctx := context.Background()
	store, db, teardown := setupTestDB(t)
	defer teardown()
	addPlayers(t, store, "a", "b")

	_, err := db.Exec(`INSERT INTO seasons (id, league_id, number, name, status, started_at) VALUES ('s1', ?, 1, 'Spring', 'active', 0)`, league)
	require.NoError(t, err)
	during, err := store.Commit(ctx, singles("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "s1", during.SeasonID)

	_, err = db.Exec(`UPDATE seasons SET status = 'completed', ended_at = 1 WHERE id = 's1'`)
	require.NoError(t, err)
	after, err := store.Commit(ctx, singles("b", "a"))
	require.NoError(t, err)
	assert.Equal(t, "after:s1", after.SeasonID)

	require.NoError(t, database.InTx(ctx, db, func(tx database.DBTX) error {
		n, err := store.CountSeasonMatchesTx(ctx, tx, "s1")
		assert.Equal(t, 1, n)
		return err
	}))

	summary, err := projector.New(store, projector.DefaultPolicy()).Recalculate(ctx, league)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.MatchesReplayed, "running totals still cover the ended season")

	_, err = store.Edit(ctx, after.ID, ledger.Edit{Winners: []string{"b"}, Losers: []string{"a"}, ScoreWinner: 11, ScoreLoser: 2})
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO seasons (id, league_id, number, name, status, started_at) VALUES ('s2', ?, 2, 'Summer', 'active', 2)`, league)
	require.NoError(t, err)
	require.NoError(t, database.InTx(ctx, db, func(tx database.DBTX) error {
		return store.ResetAggregatesTx(ctx, tx, league)
	}))
	_, err = store.Delete(ctx, after.ID)
	assert.True(t, errors.Is(err, domain.ErrConflictingSeasonState))

	next, err := store.Commit(ctx, singles("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "s2", next.SeasonID)
}

func TestDeleteFriendlyAfterPolicyChange(t *testing.T) {
	ctx := context.Background()
	_, db, teardown := setupTestDB(t)
	defer teardown()
	counting := ledger.New(db, projector.Policy{FriendlyCountsRecord: true})
	plain := ledger.New(db, projector.DefaultPolicy())
	addPlayers(t, plain, "a", "b")

	t.Run("counted friendly is fully reversed", func(t *testing.T) {
		m := singles("a", "b")
		m.IsFriendly = true
		m, err := counting.Commit(ctx, m)
		require.NoError(t, err)
		assert.True(t, m.CountsRecord)
		assert.Equal(t, 1, aggregate(t, plain, "a", domain.ModeSingles).Wins)

		_, err = plain.Delete(ctx, m.ID)
		require.NoError(t, err)
		a := aggregate(t, plain, "a", domain.ModeSingles)
		assert.Equal(t, 0, a.Wins)
		assert.Equal(t, 0, aggregate(t, plain, "b", domain.ModeSingles).Losses)
	})

	t.Run("uncounted friendly leaves the record alone", func(t *testing.T) {
		_, err := plain.Commit(ctx, singles("a", "b"))
		require.NoError(t, err)
		m := singles("b", "a")
		m.IsFriendly = true
		m, err = plain.Commit(ctx, m)
		require.NoError(t, err)
		assert.False(t, m.CountsRecord)

		_, err = counting.Delete(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, aggregate(t, plain, "a", domain.ModeSingles).Wins)
		assert.Equal(t, 0, aggregate(t, plain, "b", domain.ModeSingles).Wins)
		assert.Equal(t, 1, aggregate(t, plain, "b", domain.ModeSingles).Losses)
	})
}

func TestCommitOrderSurvivesClockStepBack(t *testing.T) {
	ctx := context.Background()
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := ledger.New(db, projector.DefaultPolicy(), ledger.WithClock(func() time.Time { return now }))
	addPlayers(t, store, "a", "b", "c")

	first, err := store.Commit(ctx, singles("a", "b"))
	require.NoError(t, err)
	now = now.Add(-time.Hour)
	second, err := store.Commit(ctx, singles("c", "a"))
	require.NoError(t, err)

	assert.Equal(t, first.Timestamp, second.Timestamp)
	assert.Greater(t, second.Seq, first.Seq)

	before := map[string]domain.Aggregate{}
	for _, id := range []string{"a", "b", "c"} {
		before[id] = aggregate(t, store, id, domain.ModeSingles)
	}
	_, err = projector.New(store, projector.DefaultPolicy()).Recalculate(ctx, league)
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, before[id], aggregate(t, store, id, domain.ModeSingles), id)
	}
}
