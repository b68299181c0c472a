package season_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/ledger"
	"github.com/mauv0809/racket-ladder/internal/projector"
	"github.com/mauv0809/racket-ladder/internal/season"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const league = "league1"

func setup(t *testing.T) (season.Controller, ledger.Store, func()) {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	tick := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	store := ledger.New(db, projector.DefaultPolicy(), ledger.WithClock(clock))
	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := store.AddPlayer(context.Background(), league, id, "Player "+id)
		require.NoError(t, err)
	}
	return season.New(db, store, season.WithClock(clock)), store, teardown
}

func commit(t *testing.T, store ledger.Store, winner, loser string) *domain.Match {
	t.Helper()
	m, err := store.Commit(context.Background(), &domain.Match{
		LeagueID: league, Mode: domain.ModeSingles,
		Winners: []string{winner}, Losers: []string{loser},
		ScoreWinner: 11, ScoreLoser: 9,
	})
	require.NoError(t, err)
	return m
}

func TestSeasonLifecycle(t *testing.T) {
	ctrl, store, teardown := setup(t)
	defer teardown()
	ctx := context.Background()

	preseason := commit(t, store, "a", "b")

	_, err := ctrl.End(ctx, league)
	assert.True(t, errors.Is(err, domain.ErrConflictingSeasonState), "nothing to end yet")
	_, err = ctrl.Active(ctx, league)
	assert.True(t, domain.IsNotFound(err))

	first, err := ctrl.Start(ctx, league, "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "Season 1", first.Name)
	assert.Equal(t, domain.SeasonStatusActive, first.Status)

	a, err := store.GetPlayer(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.NewAggregate("a", domain.ModeSingles), a.Singles, "start resets aggregates")

	_, err = ctrl.Start(ctx, league, "again")
	assert.True(t, errors.Is(err, domain.ErrConflictingSeasonState))

	_, err = store.Delete(ctx, preseason.ID)
	assert.True(t, errors.Is(err, domain.ErrConflictingSeasonState), "pre-season matches are archived")

	commit(t, store, "c", "a")
	commit(t, store, "c", "b")
	commit(t, store, "a", "d")

	ended, err := ctrl.End(ctx, league)
	require.NoError(t, err)
	assert.Equal(t, domain.SeasonStatusCompleted, ended.Status)
	assert.Equal(t, 3, ended.MatchCount)
	assert.Equal(t, "c", ended.ChampionID)
	require.NotNil(t, ended.EndedAt)
	require.Len(t, ended.FinalStandings, 4)
	assert.Equal(t, domain.Standing{PlayerID: "c", Rank: 1, RatingSingles: 1231, RatingDoubles: 1200, Wins: 2, Losses: 0}, ended.FinalStandings[0])
	assert.Equal(t, "d", ended.FinalStandings[3].PlayerID)

	stored, err := ctrl.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, ended.FinalStandings, stored.FinalStandings)
	assert.Equal(t, ended.EndedAt, stored.EndedAt)

	_, err = ctrl.End(ctx, league)
	assert.True(t, errors.Is(err, domain.ErrConflictingSeasonState))

	second, err := ctrl.Start(ctx, league, "Autumn")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, "Autumn", second.Name)

	active, err := ctrl.Active(ctx, league)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	list, err := ctrl.List(ctx, league)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = ctrl.Get(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestEndSeason_ExcludesRemovedPlayers(t *testing.T) {
	ctrl, store, teardown := setup(t)
	defer teardown()
	ctx := context.Background()

	_, err := ctrl.Start(ctx, league, "Winter")
	require.NoError(t, err)
	commit(t, store, "d", "a")
	require.NoError(t, store.RemovePlayer(ctx, "d"))

	ended, err := ctrl.End(ctx, league)
	require.NoError(t, err)
	require.Len(t, ended.FinalStandings, 3)
	for _, st := range ended.FinalStandings {
		assert.NotEqual(t, "d", st.PlayerID)
	}
	assert.Equal(t, 1, ended.MatchCount)
}

func TestRankStandings(t *testing.T) {
	players := []domain.Player{
		{ID: "z", Singles: domain.Aggregate{Rating: 1250, Wins: 3, Losses: 1}, Doubles: domain.Aggregate{Rating: 1200, Wins: 1}},
		{ID: "y", Singles: domain.Aggregate{Rating: 1250}, Doubles: domain.Aggregate{Rating: 1300}},
		{ID: "b", Singles: domain.Aggregate{Rating: 1180}, Doubles: domain.Aggregate{Rating: 1200}},
		{ID: "a", Singles: domain.Aggregate{Rating: 1180}, Doubles: domain.Aggregate{Rating: 1200, Losses: 2}},
	}

	got := season.RankStandings(players)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"y", "z", "a", "b"}, []string{got[0].PlayerID, got[1].PlayerID, got[2].PlayerID, got[3].PlayerID})
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, 4, got[1].Wins)
	assert.Equal(t, 1, got[1].Losses)
	assert.Equal(t, 2, got[2].Losses)
	assert.Empty(t, season.RankStandings(nil))
}
