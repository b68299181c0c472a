package rating

import "math"

const (
	// KFactor is the fixed sensitivity of every rated match.
	KFactor = 32
	// InitialRating is the rating every player starts a season with.
	InitialRating = 1200

	deviation = 400
)

// ExpectedScore returns the probability that a player rated a beats a player rated b.
func ExpectedScore(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/deviation))
}

// Delta returns the rating points the winner gains and the loser gives up.
// The result is never negative.
func Delta(winnerRating, loserRating, kFactor int) int {
	d := int(math.Round(float64(kFactor) * (1 - ExpectedScore(winnerRating, loserRating))))
	if d < 0 {
		return 0
	}
	return d
}

// TeamRating is the arithmetic mean of the given ratings, rounded down.
func TeamRating(ratings ...int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return int(math.Floor(float64(sum) / float64(len(ratings))))
}
