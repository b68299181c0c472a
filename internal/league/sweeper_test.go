package league_test

import (
	"context"
	"testing"
	"time"

	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_ExpiresDueMatches(t *testing.T) {
	f := setup(t, "a", "b")
	ctx := context.Background()

	p, err := f.engine.SubmitMatch(ctx, leagueID, singles("a", "b"), "a")
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	sweeper := league.NewSweeper(f.engine, 10*time.Millisecond)
	sweeper.Start()
	sweeper.Start()
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		return f.metrics.MatchesCommitted() == 1
	}, 2*time.Second, 10*time.Millisecond)

	sweeper.Stop()
	got, err := f.engine.GetPendingMatch(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PendingStatusExpired, got.Status)
}

func TestSweeper_Disabled(t *testing.T) {
	f := setup(t)
	sweeper := league.NewSweeper(f.engine, 0)
	sweeper.Start()
	sweeper.Stop()
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	f := setup(t)
	sweeper := league.NewSweeper(f.engine, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
