package domain

import (
	"time"

	"github.com/mauv0809/racket-ladder/internal/rating"
)

// Mode is the game mode a rating applies to.
type Mode string

const (
	ModeSingles Mode = "singles"
	ModeDoubles Mode = "doubles"
)

// Modes lists every mode a player carries an aggregate for.
var Modes = []Mode{ModeSingles, ModeDoubles}

// TeamSize returns the number of players per side, or 0 for an unknown mode.
func (m Mode) TeamSize() int {
	switch m {
	case ModeSingles:
		return 1
	case ModeDoubles:
		return 2
	default:
		return 0
	}
}

func (m Mode) Valid() bool {
	return m.TeamSize() > 0
}

// Aggregate is the derived per-mode state of a player.
type Aggregate struct {
	PlayerID              string `json:"player_id"`
	Mode                  Mode   `json:"mode"`
	Rating                int    `json:"rating"`
	Wins                  int    `json:"wins"`
	Losses                int    `json:"losses"`
	Streak                int    `json:"streak"`
	StatsMayBeApproximate bool   `json:"stats_may_be_approximate"`
}

// NewAggregate returns the default aggregate a player starts a season with.
func NewAggregate(playerID string, mode Mode) Aggregate {
	return Aggregate{PlayerID: playerID, Mode: mode, Rating: rating.InitialRating}
}

// Player is a league member together with one aggregate per mode.
type Player struct {
	ID        string    `json:"id"`
	LeagueID  string    `json:"league_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Removed   bool      `json:"removed"`
	Singles   Aggregate `json:"singles"`
	Doubles   Aggregate `json:"doubles"`
}

// Aggregate returns the player's aggregate for the given mode.
func (p *Player) Aggregate(mode Mode) Aggregate {
	if mode == ModeDoubles {
		return p.Doubles
	}
	return p.Singles
}

// SetAggregate replaces the player's aggregate for a.Mode.
func (p *Player) SetAggregate(a Aggregate) {
	if a.Mode == ModeDoubles {
		p.Doubles = a
		return
	}
	p.Singles = a
}

// Submission is a raw reported result before it enters the ledger.
type Submission struct {
	Mode        Mode     `json:"mode"`
	Winners     []string `json:"winners"`
	Losers      []string `json:"losers"`
	ScoreWinner int      `json:"score_winner"`
	ScoreLoser  int      `json:"score_loser"`
	IsFriendly  bool     `json:"is_friendly"`
}

// Participants returns winners followed by losers.
func (s Submission) Participants() []string {
	out := make([]string, 0, len(s.Winners)+len(s.Losers))
	out = append(out, s.Winners...)
	return append(out, s.Losers...)
}

// Match is a committed, authoritative ledger row.
type Match struct {
	ID       string `json:"id"`
	LeagueID string `json:"league_id"`
	// SeasonID is the active season at commit time, or "after:<id>" for a
	// match played between the end of one season and the start of the next.
	SeasonID     string    `json:"season_id,omitempty"`
	Seq          int64     `json:"seq"`
	Mode         Mode      `json:"mode"`
	Winners      []string  `json:"winners"`
	Losers       []string  `json:"losers"`
	ScoreWinner  int       `json:"score_winner"`
	ScoreLoser   int       `json:"score_loser"`
	RatingDelta  int       `json:"rating_delta"`
	IsFriendly   bool      `json:"is_friendly"`
	CountsRecord bool      `json:"counts_record"`
	Timestamp    time.Time `json:"timestamp"`
	LoggedBy     string    `json:"logged_by"`
	PendingID    string    `json:"pending_id,omitempty"`
}

// Submission returns the reported part of the match.
func (m *Match) Submission() Submission {
	return Submission{
		Mode:        m.Mode,
		Winners:     m.Winners,
		Losers:      m.Losers,
		ScoreWinner: m.ScoreWinner,
		ScoreLoser:  m.ScoreLoser,
		IsFriendly:  m.IsFriendly,
	}
}

// Participants returns winners followed by losers.
func (m *Match) Participants() []string {
	return m.Submission().Participants()
}

// Before reports whether m sorts before o in ledger order.
func (m *Match) Before(o *Match) bool {
	if !m.Timestamp.Equal(o.Timestamp) {
		return m.Timestamp.Before(o.Timestamp)
	}
	return m.Seq < o.Seq
}

// RatingHistoryEntry records a player's rating right after a committed match.
type RatingHistoryEntry struct {
	PlayerID    string    `json:"player_id"`
	Mode        Mode      `json:"mode"`
	MatchID     string    `json:"match_id"`
	RatingAfter int       `json:"rating_after"`
	Timestamp   time.Time `json:"timestamp"`
}

// PendingStatus is the state of a pending match.
type PendingStatus string

const (
	PendingStatusPending   PendingStatus = "pending"
	PendingStatusConfirmed PendingStatus = "confirmed"
	PendingStatusDisputed  PendingStatus = "disputed"
	PendingStatusExpired   PendingStatus = "expired"
	PendingStatusRejected  PendingStatus = "rejected"
)

// Terminal reports whether no further transition is possible.
func (s PendingStatus) Terminal() bool {
	switch s {
	case PendingStatusConfirmed, PendingStatusExpired, PendingStatusRejected:
		return true
	}
	return false
}

// PendingMatch is a submitted result awaiting confirmation.
type PendingMatch struct {
	ID            string        `json:"id"`
	LeagueID      string        `json:"league_id"`
	Mode          Mode          `json:"mode"`
	Winners       []string      `json:"winners"`
	Losers        []string      `json:"losers"`
	ScoreWinner   int           `json:"score_winner"`
	ScoreLoser    int           `json:"score_loser"`
	IsFriendly    bool          `json:"is_friendly"`
	LoggedBy      string        `json:"logged_by"`
	Status        PendingStatus `json:"status"`
	Confirmations []string      `json:"confirmations"`
	CreatedAt     time.Time     `json:"created_at"`
	ExpiresAt     time.Time     `json:"expires_at"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty"`
	MatchID       string        `json:"match_id,omitempty"`
}

// Submission returns the reported result.
func (p *PendingMatch) Submission() Submission {
	return Submission{
		Mode:        p.Mode,
		Winners:     p.Winners,
		Losers:      p.Losers,
		ScoreWinner: p.ScoreWinner,
		ScoreLoser:  p.ScoreLoser,
		IsFriendly:  p.IsFriendly,
	}
}

// IsParticipant reports whether playerID plays in the match.
func (p *PendingMatch) IsParticipant(playerID string) bool {
	for _, id := range p.Submission().Participants() {
		if id == playerID {
			return true
		}
	}
	return false
}

// RequiredConfirmers is every participant except the submitter.
func (p *PendingMatch) RequiredConfirmers() []string {
	var out []string
	for _, id := range p.Submission().Participants() {
		if id != p.LoggedBy {
			out = append(out, id)
		}
	}
	return out
}

// FullyConfirmed reports whether every required confirmer has confirmed.
func (p *PendingMatch) FullyConfirmed() bool {
	have := make(map[string]bool, len(p.Confirmations))
	for _, id := range p.Confirmations {
		have[id] = true
	}
	for _, id := range p.RequiredConfirmers() {
		if !have[id] {
			return false
		}
	}
	return true
}

// Due reports whether an unresolved pending match has passed its deadline.
func (p *PendingMatch) Due(now time.Time) bool {
	return p.Status == PendingStatusPending && !now.Before(p.ExpiresAt)
}

// SeasonStatus is the state of a season.
type SeasonStatus string

const (
	SeasonStatusActive    SeasonStatus = "active"
	SeasonStatusCompleted SeasonStatus = "completed"
)

// Standing is one row of a season's final table.
type Standing struct {
	PlayerID      string `json:"player_id"`
	Rank          int    `json:"rank"`
	RatingSingles int    `json:"rating_singles"`
	RatingDoubles int    `json:"rating_doubles"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
}

// Season is an archive of a bounded period of play.
type Season struct {
	ID             string       `json:"id"`
	LeagueID       string       `json:"league_id"`
	Number         int          `json:"number"`
	Name           string       `json:"name"`
	Status         SeasonStatus `json:"status"`
	StartedAt      time.Time    `json:"started_at"`
	EndedAt        *time.Time   `json:"ended_at,omitempty"`
	FinalStandings []Standing   `json:"final_standings"`
	MatchCount     int          `json:"match_count"`
	ChampionID     string       `json:"champion_id,omitempty"`
}

// LeaderboardEntry is a ranked view of one player's aggregate in one mode.
type LeaderboardEntry struct {
	Rank                  int     `json:"rank"`
	PlayerID              string  `json:"player_id"`
	PlayerName            string  `json:"player_name"`
	Rating                int     `json:"rating"`
	Wins                  int     `json:"wins"`
	Losses                int     `json:"losses"`
	Streak                int     `json:"streak"`
	WinPercentage         float64 `json:"win_percentage"`
	StatsMayBeApproximate bool    `json:"stats_may_be_approximate"`
}

// RecalcSummary reports the outcome of a full replay.
type RecalcSummary struct {
	LeagueID        string `json:"league_id"`
	PlayersUpdated  int    `json:"players_updated"`
	MatchesReplayed int    `json:"matches_replayed"`
}
