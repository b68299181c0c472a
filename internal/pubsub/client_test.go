package pubsub

import (
	"testing"
	"time"

	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopClient_DecodesPushedEvents(t *testing.T) {
	ts := time.Date(2026, 6, 1, 19, 30, 0, 0, time.UTC)
	event := MatchEvent{
		Source: "confirmed",
		Match: &domain.Match{
			ID: "m1", LeagueID: "l1", Mode: domain.ModeDoubles,
			Winners: []string{"a", "b"}, Losers: []string{"c", "d"},
			ScoreWinner: 11, ScoreLoser: 7, RatingDelta: 16, Timestamp: ts,
		},
	}
	data, err := Encode(event)
	require.NoError(t, err)

	c := NewNoop()
	require.NoError(t, c.SendMessage(EventMatchCommitted, event))

	var got MatchEvent
	require.NoError(t, c.ProcessMessage(data, &got))
	assert.Equal(t, "confirmed", got.Source)
	assert.Equal(t, []string{"c", "d"}, got.Match.Losers)
	assert.True(t, ts.Equal(got.Match.Timestamp))
}

func TestMock_RecordsTopics(t *testing.T) {
	m := NewMock("")
	require.NoError(t, m.SendMessage(EventSeasonEnded, SeasonEvent{}))
	require.NoError(t, m.SendMessage(EventMatchDeleted, MatchEvent{}))
	assert.Equal(t, []string{"season-ended", "match-deleted"}, m.Topics())

	m.Reset()
	assert.Empty(t, m.Calls())
}
