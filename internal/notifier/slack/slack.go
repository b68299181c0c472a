package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/metrics"
	"github.com/mauv0809/racket-ladder/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	location  *time.Location
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		loc = time.UTC
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
		location:  loc,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-channel", "dry-run-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) SendConfirmationRequest(pending *domain.PendingMatch, names notifier.Names, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatConfirmationRequest(pending, names), dryRun)
	return err
}

func (s *Notifier) SendMatchResult(match *domain.Match, names notifier.Names, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatMatchResult(match, names), dryRun)
	return err
}

func (s *Notifier) SendSeasonSummary(season *domain.Season, names notifier.Names, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatSeasonSummary(season, names), dryRun)
	return err
}

// FormatLeaderboardResponse formats a leaderboard message for a slash command response.
func (s *Notifier) FormatLeaderboardResponse(mode domain.Mode, entries []domain.LeaderboardEntry) (any, error) {
	return s.formatLeaderboard(mode, entries), nil
}

// FormatPlayerStatsResponse formats a player stats message for a slash command response.
func (s *Notifier) FormatPlayerStatsResponse(player *domain.Player) (any, error) {
	return s.formatPlayerStats(player), nil
}

// FormatPlayerNotFoundResponse formats a player not found message for a slash command response.
func (s *Notifier) FormatPlayerNotFoundResponse(query string) (any, error) {
	return s.formatPlayerNotFound(query), nil
}

func team(ids []string, names notifier.Names) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, names.Of(id))
	}
	return strings.Join(out, " & ")
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("plain_text", text, true, false)
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return ""
}

// formatConfirmationRequest asks the other participants to confirm a reported result.
func (s *Notifier) formatConfirmationRequest(p *domain.PendingMatch, names notifier.Names) slack.Message {
	blocks := make([]slack.Block, 0)

	blocks = append(blocks, slack.NewHeaderBlock(plain("🎾 Result reported, please confirm 🎾")))

	kind := string(p.Mode)
	if p.IsFriendly {
		kind += ", friendly"
	}
	resultText := fmt.Sprintf("*%s* beat *%s* %d-%d (%s)\nReported by %s",
		team(p.Winners, names), team(p.Losers, names), p.ScoreWinner, p.ScoreLoser, kind, names.Of(p.LoggedBy))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", resultText, false, false), nil, nil))

	var waiting []string
	for _, id := range p.RequiredConfirmers() {
		waiting = append(waiting, fmt.Sprintf("• %s", names.Of(id)))
	}
	if len(waiting) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(plain("Waiting for:\n"+strings.Join(waiting, "\n")), nil, nil))
	}

	deadline := p.ExpiresAt.In(s.location).Format("Monday 02 Jan, 15:04")
	contextText := fmt.Sprintf("/ladder confirm %s or /ladder dispute %s. Auto-confirms %s.", p.ID, p.ID, deadline)
	blocks = append(blocks, slack.NewContextBlock("", plain(contextText)))

	return slack.NewBlockMessage(blocks...)
}

// formatMatchResult announces a committed match and its rating change.
func (s *Notifier) formatMatchResult(m *domain.Match, names notifier.Names) slack.Message {
	blocks := make([]slack.Block, 0)

	blocks = append(blocks, slack.NewHeaderBlock(plain("🎾 Match recorded! 🎾")))

	resultText := fmt.Sprintf("%s won %d-%d against %s 🏆",
		team(m.Winners, names), m.ScoreWinner, m.ScoreLoser, team(m.Losers, names))
	blocks = append(blocks, slack.NewSectionBlock(plain(resultText), nil, nil))

	var ratingText string
	if m.IsFriendly {
		ratingText = "Friendly match, ratings unchanged."
	} else {
		ratingText = fmt.Sprintf("%s rating: +%d / -%d", m.Mode, m.RatingDelta, m.RatingDelta)
	}
	playedAt := m.Timestamp.In(s.location).Format("Monday 02 Jan, 15:04")
	blocks = append(blocks, slack.NewContextBlock("", plain(ratingText), plain(playedAt)))

	return slack.NewBlockMessage(blocks...)
}

// formatSeasonSummary posts the final table of an archived season.
func (s *Notifier) formatSeasonSummary(season *domain.Season, names notifier.Names) slack.Message {
	blocks := make([]slack.Block, 0)

	blocks = append(blocks, slack.NewHeaderBlock(plain(fmt.Sprintf("🏆 %s is over! 🏆", season.Name))))

	if season.ChampionID == "" {
		blocks = append(blocks, slack.NewSectionBlock(plain("No players took part this season."), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	championText := fmt.Sprintf("Champion: %s 👑\nMatches played: %d", names.Of(season.ChampionID), season.MatchCount)
	blocks = append(blocks, slack.NewSectionBlock(plain(championText), nil, nil))

	var lines []string
	for _, st := range season.FinalStandings {
		lines = append(lines, fmt.Sprintf("%d. %s %s  singles %d | doubles %d | %dW-%dL",
			st.Rank, medal(st.Rank), names.Of(st.PlayerID), st.RatingSingles, st.RatingDoubles, st.Wins, st.Losses))
	}
	blocks = append(blocks, slack.NewSectionBlock(plain(strings.Join(lines, "\n")), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates a Slack message to display the ladder for one mode.
func (s *Notifier) formatLeaderboard(mode domain.Mode, entries []domain.LeaderboardEntry) slack.Message {
	blocks := make([]slack.Block, 0)

	title := "Ladder"
	if mode != "" {
		title = strings.ToUpper(string(mode[:1])) + string(mode[1:]) + " Ladder"
	}
	blocks = append(blocks, slack.NewHeaderBlock(plain(fmt.Sprintf("🏆 %s 🏆", title))))

	if len(entries) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(plain("No players yet. Go play some matches!"), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for _, e := range entries {
		playerText := fmt.Sprintf("%d. %s %s\n> Rating: %d | Win %%: %.1f%% (%d-%d) | Streak: %d",
			e.Rank, medal(e.Rank), e.PlayerName, e.Rating, e.WinPercentage, e.Wins, e.Losses, e.Streak)
		if e.StatsMayBeApproximate {
			playerText += " *"
		}
		blocks = append(blocks, slack.NewSectionBlock(plain(playerText), nil, nil))
	}

	for _, e := range entries {
		if e.StatsMayBeApproximate {
			blocks = append(blocks, slack.NewContextBlock("", plain("* streak may be approximate until the next recalculation")))
			break
		}
	}

	return slack.NewBlockMessage(blocks...)
}

// formatPlayerStats shows both aggregates of one player.
func (s *Notifier) formatPlayerStats(p *domain.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	blocks = append(blocks, slack.NewHeaderBlock(plain(fmt.Sprintf("🏆 Stats for %s 🏆", p.Name))))

	var lines []string
	for _, mode := range domain.Modes {
		a := p.Aggregate(mode)
		lines = append(lines, fmt.Sprintf("> *%s*: %d (%dW-%dL, streak %d)", mode, a.Rating, a.Wins, a.Losses, a.Streak))
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", strings.Join(lines, "\n"), false, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatPlayerNotFound creates a Slack message for when a player can't be found.
func (s *Notifier) formatPlayerNotFound(query string) slack.Message {
	text := fmt.Sprintf("Sorry, I couldn't find a player matching *%s*. Try a different name.", query)
	return slack.NewBlockMessage(
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil),
	)
}
