// Command seed populates a leaderboard database with sample players and
// score submissions, running each submission through the real pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/leaderforge/leaderforge/internal/adapters/registry"
	"github.com/leaderforge/leaderforge/internal/adapters/repository"
	service "github.com/leaderforge/leaderforge/internal/app"
	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/pkg/logger"
)

// Default seeding configuration constants.
const (
	defaultPlayers     = 50
	defaultSubmissions = 10
	defaultMaxScore    = 10000
	defaultTimeout     = 5 * time.Minute
)

var gameModes = []string{"solo", "duo", "squad", "ranked"}

func main() {
	var (
		dsn         = flag.String("dsn", "file:leaderforge.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", "SQLite DSN to seed")
		players     = flag.Int("players", defaultPlayers, "Number of players to register")
		submissions = flag.Int("submissions", defaultSubmissions, "Score submissions per player")
		maxScore    = flag.Int64("max-score", defaultMaxScore, "Upper bound for a single score delta")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if *maxScore < 1 || *maxScore > model.MaxScoreDelta {
		os.Stderr.WriteString(fmt.Sprintf("max-score must be in [1, %d]\n", model.MaxScoreDelta))
		return
	}

	store, err := repository.NewSQLiteStore(ctx, *dsn)
	if err != nil {
		os.Stderr.WriteString("failed to open store: " + err.Error() + "\n")
		return
	}
	reg := registry.NewSQLRegistry(store.DB())

	svc := service.New(
		service.WithLogger(log),
		service.WithStore(store),
		service.WithRegistry(reg),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	rng := rand.New(rand.NewSource(*seed))

	log.Info(ctx, "seeding leaderboard",
		logger.Int("players", *players),
		logger.Int("submissionsPerPlayer", *submissions),
	)

	var accepted int
	for i := 0; i < *players; i++ {
		username := fmt.Sprintf("player_%04d", i+1)
		id, err := reg.CreatePlayer(ctx, username, username+"@example.com")
		if err != nil {
			log.Warn(ctx, "skipping player", logger.String("username", username), logger.Error(err))
			continue
		}

		for j := 0; j < *submissions; j++ {
			delta := rng.Int63n(*maxScore + 1)
			mode := gameModes[rng.Intn(len(gameModes))]
			if _, err := svc.SubmitScore(ctx, id, delta, mode); err != nil {
				log.Warn(ctx, "submission failed",
					logger.String("playerID", id),
					logger.Error(err),
				)
				continue
			}
			accepted++
		}
	}

	board, err := svc.GetTop(ctx, 10)
	if err != nil {
		log.Error(ctx, "reading seeded board failed", logger.Error(err))
		return
	}

	log.Info(ctx, "seeding complete",
		logger.Int("acceptedSubmissions", accepted),
		logger.Int("totalPlayers", board.TotalPlayers),
	)
	for _, entry := range board.Entries {
		log.Info(ctx, "top entry",
			logger.Int("rank", entry.Rank),
			logger.String("username", entry.Username),
			logger.Int64("totalScore", entry.TotalScore),
		)
	}
}
