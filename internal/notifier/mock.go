package notifier

import (
	"sync"

	"github.com/mauv0809/racket-ladder/internal/domain"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for send functions
	SendConfirmationRequestFunc func(pending *domain.PendingMatch, names Names, dryRun bool) error
	SendMatchResultFunc         func(match *domain.Match, names Names, dryRun bool) error
	SendSeasonSummaryFunc       func(season *domain.Season, names Names, dryRun bool) error

	// Call records
	SendConfirmationRequestCalls []*domain.PendingMatch
	SendMatchResultCalls         []*domain.Match
	SendSeasonSummaryCalls       []*domain.Season
	LastNames                    Names

	// Spies for format functions
	FormatLeaderboardResponseFunc    func(mode domain.Mode, entries []domain.LeaderboardEntry) (any, error)
	FormatPlayerStatsResponseFunc    func(player *domain.Player) (any, error)
	FormatPlayerNotFoundResponseFunc func(query string) (any, error)

	// Call records for format functions
	LastLeaderboardEntries     []domain.LeaderboardEntry
	LastPlayerStatsPlayer      *domain.Player
	LastPlayerNotFoundResponse any
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendConfirmationRequestCalls = nil
	m.SendMatchResultCalls = nil
	m.SendSeasonSummaryCalls = nil
	m.LastNames = nil
	m.LastLeaderboardEntries = nil
	m.LastPlayerStatsPlayer = nil
	m.LastPlayerNotFoundResponse = nil
}

func (m *Mock) SendConfirmationRequest(pending *domain.PendingMatch, names Names, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendConfirmationRequestCalls = append(m.SendConfirmationRequestCalls, pending)
	m.LastNames = names
	if m.SendConfirmationRequestFunc != nil {
		return m.SendConfirmationRequestFunc(pending, names, dryRun)
	}
	return nil
}

func (m *Mock) SendMatchResult(match *domain.Match, names Names, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, match)
	m.LastNames = names
	if m.SendMatchResultFunc != nil {
		return m.SendMatchResultFunc(match, names, dryRun)
	}
	return nil
}

func (m *Mock) SendSeasonSummary(season *domain.Season, names Names, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendSeasonSummaryCalls = append(m.SendSeasonSummaryCalls, season)
	m.LastNames = names
	if m.SendSeasonSummaryFunc != nil {
		return m.SendSeasonSummaryFunc(season, names, dryRun)
	}
	return nil
}

func (m *Mock) FormatLeaderboardResponse(mode domain.Mode, entries []domain.LeaderboardEntry) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastLeaderboardEntries = entries
	if m.FormatLeaderboardResponseFunc != nil {
		return m.FormatLeaderboardResponseFunc(mode, entries)
	}
	return "formatted_leaderboard", nil
}

func (m *Mock) FormatPlayerStatsResponse(player *domain.Player) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastPlayerStatsPlayer = player
	if m.FormatPlayerStatsResponseFunc != nil {
		return m.FormatPlayerStatsResponseFunc(player)
	}
	return "formatted_player_stats", nil
}

func (m *Mock) FormatPlayerNotFoundResponse(query string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatPlayerNotFoundResponseFunc != nil {
		resp, err := m.FormatPlayerNotFoundResponseFunc(query)
		m.LastPlayerNotFoundResponse = resp
		return resp, err
	}
	return "formatted_player_not_found", nil
}

// MatchResultCount returns the number of SendMatchResult calls.
func (m *Mock) MatchResultCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendMatchResultCalls)
}
