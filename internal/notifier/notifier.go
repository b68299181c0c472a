package notifier

import "github.com/mauv0809/racket-ladder/internal/domain"

// Names maps player ids to display names. Missing ids are shown as the id.
type Names map[string]string

// Of returns the display name of id.
func (n Names) Of(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return id
}

// Notifier defines a high-level interface for sending notifications about ladder events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For results awaiting confirmation
	SendConfirmationRequest(pending *domain.PendingMatch, names Names, dryRun bool) error
	// For committed matches
	SendMatchResult(match *domain.Match, names Names, dryRun bool) error
	// For archived seasons
	SendSeasonSummary(season *domain.Season, names Names, dryRun bool) error

	// For formatting responses for slash commands
	FormatLeaderboardResponse(mode domain.Mode, entries []domain.LeaderboardEntry) (any, error)
	FormatPlayerStatsResponse(player *domain.Player) (any, error)
	FormatPlayerNotFoundResponse(query string) (any, error)
}
