package domain

import "fmt"

const (
	// MinWinningScore is the lowest score that can win a game.
	MinWinningScore = 11
	// MinWinningMargin is the smallest allowed gap between the two scores.
	MinWinningMargin = 2
)

// ValidateSubmission checks the scoring and roster rules every ledger entry must satisfy.
func ValidateSubmission(s Submission) error {
	if !s.Mode.Valid() {
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s.Mode)}
	}
	if s.ScoreWinner < 0 || s.ScoreLoser < 0 {
		return &ValidationError{Field: "score", Reason: "scores must be non-negative"}
	}
	if s.ScoreWinner == s.ScoreLoser {
		return &ValidationError{Field: "score", Reason: "ties are not allowed"}
	}
	if s.ScoreWinner < s.ScoreLoser {
		return &ValidationError{Field: "score", Reason: "winning score must be higher than losing score"}
	}
	if s.ScoreWinner-s.ScoreLoser < MinWinningMargin {
		return &ValidationError{Field: "score", Reason: fmt.Sprintf("winning margin must be at least %d", MinWinningMargin)}
	}
	if s.ScoreWinner < MinWinningScore {
		return &ValidationError{Field: "score", Reason: fmt.Sprintf("winning score must be at least %d", MinWinningScore)}
	}

	size := s.Mode.TeamSize()
	if len(s.Winners) != size || len(s.Losers) != size {
		return &ValidationError{
			Field:  "teams",
			Reason: fmt.Sprintf("%s requires %d player(s) per side, got %d v %d", s.Mode, size, len(s.Winners), len(s.Losers)),
		}
	}

	seen := make(map[string]bool, 2*size)
	for _, id := range s.Participants() {
		if id == "" {
			return &ValidationError{Field: "teams", Reason: "player id must not be empty"}
		}
		if seen[id] {
			return &ValidationError{Field: "teams", Reason: fmt.Sprintf("player %s appears more than once", id)}
		}
		seen[id] = true
	}
	return nil
}

// ValidateMatch checks a committed row, including the friendly-delta invariant.
func ValidateMatch(m *Match) error {
	if err := ValidateSubmission(m.Submission()); err != nil {
		return err
	}
	if m.IsFriendly && m.RatingDelta != 0 {
		return &ValidationError{Field: "rating_delta", Reason: "friendly matches carry no rating delta"}
	}
	if m.RatingDelta < 0 {
		return &ValidationError{Field: "rating_delta", Reason: "rating delta must be non-negative"}
	}
	return nil
}
