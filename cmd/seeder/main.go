package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/racket-ladder/internal/config"
	"github.com/mauv0809/racket-ladder/internal/database"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/league"
	"github.com/mauv0809/racket-ladder/internal/metrics"
	"github.com/mauv0809/racket-ladder/internal/pubsub"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	numPlayers := flag.Int("players", 8, "number of players to create")
	numMatches := flag.Int("matches", 500, "number of matches to record")
	leagueID := flag.String("league", "", "league to seed, defaults to DEFAULT_LEAGUE_ID")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	if *leagueID == "" {
		*leagueID = config.Optional("DEFAULT_LEAGUE_ID", "default")
	}

	log.Info("Starting database seeder...")
	db, teardown, err := database.InitDB(
		config.Optional("DB_NAME", "ladder.db"),
		config.Optional("TURSO_PRIMARY_URL", ""),
		config.Optional("TURSO_AUTH_TOKEN", ""),
	)
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer teardown()

	// Seeding must not page the Slack channel, so nothing is published.
	engine := league.New(db, league.DefaultConfig(), pubsub.NewNoop(), metrics.NewService(prometheus.NewRegistry()))
	ctx := context.Background()

	ids := make([]string, 0, *numPlayers)
	for i := 1; i <= *numPlayers; i++ {
		id := fmt.Sprintf("seed-player-%d", i)
		if _, err := engine.AddPlayer(ctx, *leagueID, id, fmt.Sprintf("Seeder Player %d", i)); err != nil {
			log.Warn("Skipping player", "id", id, "error", err)
		}
		ids = append(ids, id)
	}
	if len(ids) < 4 {
		log.Fatalf("Need at least 4 players to seed doubles matches, got %d", len(ids))
	}
	log.Info("Ensured seed players exist.", "count", len(ids))

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	startTime := time.Now()
	for i := 0; i < *numMatches; i++ {
		sub := randomSubmission(rng, ids)
		if _, err := engine.RecordMatch(ctx, *leagueID, sub, sub.Winners[0]); err != nil {
			log.Fatalf("Failed to record match %d: %s", i, err)
		}
		if (i+1)%100 == 0 {
			log.Info("Recorded batch", "completed", i+1, "total", *numMatches)
		}
	}
	log.Info("Successfully recorded all seed matches.", "duration", time.Since(startTime))
}

// randomSubmission draws a valid result between distinct players.
func randomSubmission(rng *rand.Rand, ids []string) domain.Submission {
	mode := domain.ModeSingles
	if rng.Intn(2) == 0 {
		mode = domain.ModeDoubles
	}
	size := mode.TeamSize()
	picked := rng.Perm(len(ids))[:2*size]

	sub := domain.Submission{
		Mode:        mode,
		ScoreWinner: domain.MinWinningScore + rng.Intn(3),
		IsFriendly:  rng.Intn(10) == 0,
	}
	sub.ScoreLoser = rng.Intn(sub.ScoreWinner - domain.MinWinningMargin + 1)
	for i, idx := range picked {
		if i < size {
			sub.Winners = append(sub.Winners, ids[idx])
		} else {
			sub.Losers = append(sub.Losers, ids[idx])
		}
	}
	return sub
}
