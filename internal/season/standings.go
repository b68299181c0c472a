package season

import (
	"sort"

	"github.com/mauv0809/racket-ladder/internal/domain"
)

// RankStandings orders players by singles rating, then doubles rating, then
// id. Wins and losses are totals over both modes.
func RankStandings(players []domain.Player) []domain.Standing {
	standings := make([]domain.Standing, 0, len(players))
	for _, p := range players {
		standings = append(standings, domain.Standing{
			PlayerID:      p.ID,
			RatingSingles: p.Singles.Rating,
			RatingDoubles: p.Doubles.Rating,
			Wins:          p.Singles.Wins + p.Doubles.Wins,
			Losses:        p.Singles.Losses + p.Doubles.Losses,
		})
	}
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.RatingSingles != b.RatingSingles {
			return a.RatingSingles > b.RatingSingles
		}
		if a.RatingDoubles != b.RatingDoubles {
			return a.RatingDoubles > b.RatingDoubles
		}
		return a.PlayerID < b.PlayerID
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
