package projector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/racket-ladder/internal/domain"
)

// ReplayInput is everything a full rebuild of one league needs.
type ReplayInput struct {
	LeagueID string
	// PlayerIDs lists every league player, removed ones included.
	PlayerIDs []string
	// Matches holds the current-epoch ledger in any order.
	Matches []domain.Match
}

// ReplayResult is the recomputed derived state of a league.
type ReplayResult struct {
	LeagueID   string
	Aggregates []domain.Aggregate
	History    []domain.RatingHistoryEntry
	// Deltas maps match id to the delta recomputed during the replay.
	Deltas map[string]int
	// Counted maps match id to whether the replay counted its record.
	Counted         map[string]bool
	MatchesReplayed int
	PlayersUpdated  int
}

// Replay rebuilds every aggregate from defaults by applying the matches in
// ledger order. Approximate-stats flags are cleared.
func (p Policy) Replay(in ReplayInput) (*ReplayResult, error) {
	state := make(State, 2*len(in.PlayerIDs))
	for _, id := range in.PlayerIDs {
		for _, mode := range domain.Modes {
			state.Put(domain.NewAggregate(id, mode))
		}
	}

	matches := make([]domain.Match, len(in.Matches))
	copy(matches, in.Matches)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Before(&matches[j])
	})

	res := &ReplayResult{
		LeagueID: in.LeagueID,
		Deltas:   make(map[string]int, len(matches)),
		Counted:  make(map[string]bool, len(matches)),
	}
	for i := range matches {
		m := &matches[i]
		if err := domain.ValidateMatch(m); err != nil {
			return nil, &domain.ReplayIntegrityError{MatchID: m.ID, Reason: err.Error()}
		}
		history, err := p.Apply(state, m)
		if err != nil {
			var missing *MissingAggregateError
			if errors.As(err, &missing) {
				return nil, &domain.ReplayIntegrityError{MatchID: m.ID, Reason: err.Error()}
			}
			return nil, fmt.Errorf("failed to apply match %s: %w", m.ID, err)
		}
		res.History = append(res.History, history...)
		res.Deltas[m.ID] = m.RatingDelta
		res.Counted[m.ID] = m.CountsRecord
		res.MatchesReplayed++
	}

	res.Aggregates = make([]domain.Aggregate, 0, len(state))
	for _, a := range state {
		res.Aggregates = append(res.Aggregates, *a)
	}
	sort.Slice(res.Aggregates, func(i, j int) bool {
		if res.Aggregates[i].PlayerID != res.Aggregates[j].PlayerID {
			return res.Aggregates[i].PlayerID < res.Aggregates[j].PlayerID
		}
		return res.Aggregates[i].Mode < res.Aggregates[j].Mode
	})
	res.PlayersUpdated = len(in.PlayerIDs)
	return res, nil
}

// Source loads replay input and persists a replay result. Both calls of one
// Recalculate run inside the same transaction the Source opens in Rebuild.
type Source interface {
	Rebuild(ctx context.Context, leagueID string, fn func(in ReplayInput) (*ReplayResult, error)) error
}

// Projector recomputes derived state from the ledger.
type Projector struct {
	source Source
	policy Policy
}

// New creates a Projector over source.
func New(source Source, policy Policy) *Projector {
	return &Projector{source: source, policy: policy}
}

// Policy returns the policy the projector applies.
func (p *Projector) Policy() Policy {
	return p.policy
}

// Recalculate rebuilds every aggregate of leagueID from the ledger. On any
// error the previous derived state is left in place.
func (p *Projector) Recalculate(ctx context.Context, leagueID string) (*domain.RecalcSummary, error) {
	start := time.Now()
	var summary *domain.RecalcSummary
	err := p.source.Rebuild(ctx, leagueID, func(in ReplayInput) (*ReplayResult, error) {
		res, err := p.policy.Replay(in)
		if err != nil {
			return nil, err
		}
		summary = &domain.RecalcSummary{
			LeagueID:        leagueID,
			PlayersUpdated:  res.PlayersUpdated,
			MatchesReplayed: res.MatchesReplayed,
		}
		return res, nil
	})
	if err != nil {
		log.Error("Recalculation failed", "leagueID", leagueID, "error", err)
		return nil, err
	}
	log.Info("Recalculated league", "leagueID", leagueID, "players", summary.PlayersUpdated, "matches", summary.MatchesReplayed, "duration", time.Since(start))
	return summary, nil
}
