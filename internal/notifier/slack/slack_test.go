package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/metrics"
	"github.com/mauv0809/racket-ladder/internal/notifier"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

var names = notifier.Names{"a": "Alice", "b": "Bob", "c": "Carol", "d": "Dave"}

func newTestNotifier() *Notifier {
	return NewNotifierWithAPI(nil, "C123", metrics.NewMock())
}

func sectionText(t *testing.T, block slackapi.Block) string {
	t.Helper()
	section, ok := block.(*slackapi.SectionBlock)
	require.True(t, ok, "expected a section block, got %T", block)
	return section.Text.Text
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, true)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.SlackNotifSent())
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	message := slackapi.NewBlockMessage(slackapi.NewSectionBlock(slackapi.NewTextBlockObject("plain_text", "hello", false, false), nil, nil))
	_, _, err := notifier.sendMessage(message, false)

	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.SlackNotifSent())
	assert.Equal(t, 0, metrics.SlackNotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	_, _, err := notifier.sendMessage(slackapi.NewBlockMessage(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, metrics.SlackNotifSent())
	assert.Equal(t, 1, metrics.SlackNotifFailed())
}

func TestSendMatchResult_CallsSender(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			return "C123", "ts123", nil
		},
	}
	notifier := NewNotifierWithAPI(api, "C123", metrics.NewMock())

	err := notifier.SendMatchResult(&domain.Match{Mode: domain.ModeSingles, Winners: []string{"a"}, Losers: []string{"b"}}, names, false)
	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called via SendMatchResult")
}

func TestFormatConfirmationRequest(t *testing.T) {
	p := &domain.PendingMatch{
		ID:          "p1",
		Mode:        domain.ModeDoubles,
		Winners:     []string{"a", "b"},
		Losers:      []string{"c", "d"},
		ScoreWinner: 21,
		ScoreLoser:  17,
		LoggedBy:    "a",
		ExpiresAt:   time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC),
	}
	msg := newTestNotifier().formatConfirmationRequest(p, names)
	require.Len(t, msg.Blocks.BlockSet, 4)

	header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok)
	assert.Contains(t, header.Text.Text, "please confirm")

	assert.Equal(t, "*Alice & Bob* beat *Carol & Dave* 21-17 (doubles)\nReported by Alice", sectionText(t, msg.Blocks.BlockSet[1]))
	assert.Equal(t, "Waiting for:\n• Bob\n• Carol\n• Dave", sectionText(t, msg.Blocks.BlockSet[2]))

	ctxBlock, ok := msg.Blocks.BlockSet[3].(*slackapi.ContextBlock)
	require.True(t, ok)
	require.Len(t, ctxBlock.ContextElements.Elements, 1)
	text := ctxBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject).Text
	assert.Contains(t, text, "/ladder confirm p1")
	assert.Contains(t, text, "Saturday 02 May, 20:00")
}

func TestFormatMatchResult(t *testing.T) {
	n := newTestNotifier()

	t.Run("rated", func(t *testing.T) {
		m := &domain.Match{Mode: domain.ModeSingles, Winners: []string{"a"}, Losers: []string{"b"}, ScoreWinner: 11, ScoreLoser: 7, RatingDelta: 24}
		msg := n.formatMatchResult(m, names)
		require.Len(t, msg.Blocks.BlockSet, 3)
		assert.Equal(t, "Alice won 11-7 against Bob 🏆", sectionText(t, msg.Blocks.BlockSet[1]))
		ctxBlock := msg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
		assert.Equal(t, "singles rating: +24 / -24", ctxBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject).Text)
	})

	t.Run("friendly", func(t *testing.T) {
		m := &domain.Match{Mode: domain.ModeSingles, Winners: []string{"a"}, Losers: []string{"x"}, IsFriendly: true}
		msg := n.formatMatchResult(m, names)
		assert.Equal(t, "Alice won 0-0 against x 🏆", sectionText(t, msg.Blocks.BlockSet[1]), "unknown ids fall back to the id")
		ctxBlock := msg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
		assert.Equal(t, "Friendly match, ratings unchanged.", ctxBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject).Text)
	})
}

func TestFormatSeasonSummary(t *testing.T) {
	n := newTestNotifier()
	season := &domain.Season{
		Name:       "Season 1",
		ChampionID: "c",
		MatchCount: 3,
		FinalStandings: []domain.Standing{
			{PlayerID: "c", Rank: 1, RatingSingles: 1231, RatingDoubles: 1200, Wins: 2},
			{PlayerID: "a", Rank: 2, RatingSingles: 1200, RatingDoubles: 1200, Wins: 1, Losses: 1},
		},
	}
	msg := n.formatSeasonSummary(season, names)
	require.Len(t, msg.Blocks.BlockSet, 3)
	assert.Equal(t, "Champion: Carol 👑\nMatches played: 3", sectionText(t, msg.Blocks.BlockSet[1]))
	assert.Equal(t,
		"1. 🥇 Carol  singles 1231 | doubles 1200 | 2W-0L\n2. 🥈 Alice  singles 1200 | doubles 1200 | 1W-1L",
		sectionText(t, msg.Blocks.BlockSet[2]))

	empty := n.formatSeasonSummary(&domain.Season{Name: "Season 2"}, names)
	require.Len(t, empty.Blocks.BlockSet, 2)
	assert.Equal(t, "No players took part this season.", sectionText(t, empty.Blocks.BlockSet[1]))
}

func TestFormatLeaderboard(t *testing.T) {
	n := newTestNotifier()

	t.Run("empty", func(t *testing.T) {
		msg := n.formatLeaderboard(domain.ModeSingles, nil)
		require.Len(t, msg.Blocks.BlockSet, 2)
		header := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		assert.Equal(t, "🏆 Singles Ladder 🏆", header.Text.Text)
	})

	t.Run("entries", func(t *testing.T) {
		entries := []domain.LeaderboardEntry{
			{Rank: 1, PlayerName: "Alice", Rating: 1224, Wins: 2, Losses: 1, Streak: 1, WinPercentage: 66.7},
			{Rank: 2, PlayerName: "Bob", Rating: 1176, Losses: 1, Streak: -1, StatsMayBeApproximate: true},
		}
		msg := n.formatLeaderboard(domain.ModeDoubles, entries)
		require.Len(t, msg.Blocks.BlockSet, 4)
		assert.Equal(t, "1. 🥇 Alice\n> Rating: 1224 | Win %: 66.7% (2-1) | Streak: 1", sectionText(t, msg.Blocks.BlockSet[1]))
		assert.Contains(t, sectionText(t, msg.Blocks.BlockSet[2]), "Streak: -1 *")
		_, ok := msg.Blocks.BlockSet[3].(*slackapi.ContextBlock)
		assert.True(t, ok)
	})
}

func TestFormatPlayerStats(t *testing.T) {
	p := &domain.Player{
		Name:    "Alice",
		Singles: domain.Aggregate{Mode: domain.ModeSingles, Rating: 1224, Wins: 1},
		Doubles: domain.Aggregate{Mode: domain.ModeDoubles, Rating: 1184, Losses: 1, Streak: -1},
	}
	msg := newTestNotifier().formatPlayerStats(p)
	require.Len(t, msg.Blocks.BlockSet, 2)
	assert.Equal(t,
		"> *singles*: 1224 (1W-0L, streak 0)\n> *doubles*: 1184 (0W-1L, streak -1)",
		sectionText(t, msg.Blocks.BlockSet[1]))
}

func TestFormatPlayerNotFound(t *testing.T) {
	resp, err := newTestNotifier().FormatPlayerNotFoundResponse("zed")
	require.NoError(t, err)
	msg, ok := resp.(slackapi.Message)
	require.True(t, ok)
	assert.Contains(t, sectionText(t, msg.Blocks.BlockSet[0]), "*zed*")
}
