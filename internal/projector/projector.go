package projector

import (
	"fmt"

	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/rating"
)

// Policy holds the knobs of the aggregate computation.
type Policy struct {
	KFactor int
	// FriendlyCountsRecord makes friendly matches update wins, losses and
	// streak. Friendly matches never move ratings.
	FriendlyCountsRecord bool
}

// DefaultPolicy uses the fixed K-factor and leaves friendlies out of the record.
func DefaultPolicy() Policy {
	return Policy{KFactor: rating.KFactor}
}

// Key identifies one aggregate.
type Key struct {
	PlayerID string
	Mode     domain.Mode
}

// State is a mutable working set of aggregates.
type State map[Key]*domain.Aggregate

// NewState builds a state from the given aggregates.
func NewState(aggs ...domain.Aggregate) State {
	s := make(State, len(aggs))
	for _, a := range aggs {
		s.Put(a)
	}
	return s
}

// Put stores a copy of a.
func (s State) Put(a domain.Aggregate) {
	cp := a
	s[Key{PlayerID: a.PlayerID, Mode: a.Mode}] = &cp
}

// Get returns a copy of the aggregate for playerID in mode.
func (s State) Get(playerID string, mode domain.Mode) (domain.Aggregate, bool) {
	a, ok := s[Key{PlayerID: playerID, Mode: mode}]
	if !ok {
		return domain.Aggregate{}, false
	}
	return *a, true
}

func (s State) lookup(ids []string, mode domain.Mode) ([]*domain.Aggregate, error) {
	out := make([]*domain.Aggregate, 0, len(ids))
	for _, id := range ids {
		a, ok := s[Key{PlayerID: id, Mode: mode}]
		if !ok {
			return nil, &MissingAggregateError{PlayerID: id, Mode: mode}
		}
		out = append(out, a)
	}
	return out, nil
}

// MissingAggregateError is returned when a match names a player the state does not hold.
type MissingAggregateError struct {
	PlayerID string
	Mode     domain.Mode
}

func (e *MissingAggregateError) Error() string {
	return fmt.Sprintf("no %s aggregate for player %s", e.Mode, e.PlayerID)
}

// NextStreak returns the streak after a win (won) or a loss.
func NextStreak(prior int, won bool) int {
	if won {
		if prior >= 0 {
			return prior + 1
		}
		return 1
	}
	if prior <= 0 {
		return prior - 1
	}
	return -1
}

func (p Policy) countsRecord(m *domain.Match) bool {
	return !m.IsFriendly || p.FriendlyCountsRecord
}

func (p Policy) kFactor() int {
	if p.KFactor == 0 {
		return rating.KFactor
	}
	return p.KFactor
}

// Delta computes the rating delta of m from the current state without mutating it.
func (p Policy) Delta(s State, m *domain.Match) (int, error) {
	winners, err := s.lookup(m.Winners, m.Mode)
	if err != nil {
		return 0, err
	}
	losers, err := s.lookup(m.Losers, m.Mode)
	if err != nil {
		return 0, err
	}
	if m.IsFriendly {
		return 0, nil
	}
	return rating.Delta(teamRating(winners), teamRating(losers), p.kFactor()), nil
}

// Apply applies the commit effects of m to s, sets m.RatingDelta and
// returns one history entry per participant. s is left untouched on error.
func (p Policy) Apply(s State, m *domain.Match) ([]domain.RatingHistoryEntry, error) {
	delta, err := p.Delta(s, m)
	if err != nil {
		return nil, err
	}
	winners, _ := s.lookup(m.Winners, m.Mode)
	losers, _ := s.lookup(m.Losers, m.Mode)

	m.RatingDelta = delta
	m.CountsRecord = p.countsRecord(m)
	counts := m.CountsRecord

	for _, a := range winners {
		a.Rating += delta
		if counts {
			a.Wins++
			a.Streak = NextStreak(a.Streak, true)
		}
	}
	for _, a := range losers {
		a.Rating -= delta
		if counts {
			a.Losses++
			a.Streak = NextStreak(a.Streak, false)
		}
	}

	history := make([]domain.RatingHistoryEntry, 0, len(winners)+len(losers))
	for _, a := range append(winners, losers...) {
		history = append(history, domain.RatingHistoryEntry{
			PlayerID:    a.PlayerID,
			Mode:        m.Mode,
			MatchID:     m.ID,
			RatingAfter: a.Rating,
			Timestamp:   m.Timestamp,
		})
	}
	return history, nil
}

// Reverse undoes the rating and record effects of m using its stored delta
// and CountsRecord, so a policy change since the commit does not matter.
// Streaks cannot be rebuilt without a replay, so every participant's streak
// is reset to 0 and flagged as approximate. s is left untouched on error.
func (p Policy) Reverse(s State, m *domain.Match) error {
	winners, err := s.lookup(m.Winners, m.Mode)
	if err != nil {
		return err
	}
	losers, err := s.lookup(m.Losers, m.Mode)
	if err != nil {
		return err
	}
	if !m.CountsRecord {
		// The match never touched the record; only a (zero) rating delta to undo.
		return nil
	}

	for _, a := range winners {
		if a.Wins == 0 {
			return fmt.Errorf("cannot reverse match %s: player %s has no %s wins", m.ID, a.PlayerID, m.Mode)
		}
	}
	for _, a := range losers {
		if a.Losses == 0 {
			return fmt.Errorf("cannot reverse match %s: player %s has no %s losses", m.ID, a.PlayerID, m.Mode)
		}
	}

	for _, a := range winners {
		a.Rating -= m.RatingDelta
		a.Wins--
		a.Streak = 0
		a.StatsMayBeApproximate = true
	}
	for _, a := range losers {
		a.Rating += m.RatingDelta
		a.Losses--
		a.Streak = 0
		a.StatsMayBeApproximate = true
	}
	return nil
}

func teamRating(team []*domain.Aggregate) int {
	ratings := make([]int, len(team))
	for i, a := range team {
		ratings[i] = a.Rating
	}
	return rating.TeamRating(ratings...)
}
