package nba

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fortuna/augur/internal/store"
	"github.com/fortuna/augur/internal/store/repository"
)

// Ingester pulls games and box scores from the upstream stats API into the
// database. Upstream fetch failures for individual games are logged and
// skipped; persistence failures propagate.
type Ingester struct {
	client    *Client
	gameRepo  *repository.GameRepository
	statsRepo *repository.StatsRepository
}

// NewIngester creates an ingester using the default API base
func NewIngester(db *store.Database) *Ingester {
	return NewIngesterWithBaseURL(db, "")
}

// NewIngesterWithBaseURL creates an ingester overriding the API base URL
func NewIngesterWithBaseURL(db *store.Database, baseURL string) *Ingester {
	var client *Client
	if strings.TrimSpace(baseURL) != "" {
		client = New(baseURL)
	} else {
		client = NewClient()
	}

	return &Ingester{
		client:    client,
		gameRepo:  repository.NewGameRepository(db),
		statsRepo: repository.NewStatsRepository(db),
	}
}

// IngestDate fetches and stores the games and box scores for one date.
// Returns the number of games and player stat lines written.
func (i *Ingester) IngestDate(ctx context.Context, date time.Time) (int, int, error) {
	log.Printf("[ingest] Fetching scoreboard for %s", date.Format("2006-01-02"))

	scoreboard, err := i.client.FetchScoreboard(ctx, date)
	if err != nil {
		return 0, 0, err
	}

	games, err := ParseScoreboard(scoreboard)
	if err != nil {
		return 0, 0, fmt.Errorf("parse scoreboard: %w", err)
	}

	if len(games) == 0 {
		log.Printf("[ingest] No games found for %s", date.Format("2006-01-02"))
		return 0, 0, nil
	}

	gamesWritten := 0
	statsWritten := 0
	for _, game := range games {
		if err := i.gameRepo.Upsert(ctx, game); err != nil {
			return gamesWritten, statsWritten, err
		}
		gamesWritten++

		n, err := i.ingestBoxScore(ctx, game.GameID)
		if err != nil {
			log.Printf("[ingest] ⚠️  Box score for game %s: %v", game.GameID, err)
			continue
		}
		statsWritten += n
	}

	log.Printf("[ingest] ✓ Processed %d games, %d player lines for %s",
		gamesWritten, statsWritten, date.Format("2006-01-02"))
	return gamesWritten, statsWritten, nil
}

// IngestRange fetches every date in [start, end], inclusive. Used for
// backfills that give players enough history for the rolling windows.
func (i *Ingester) IngestRange(ctx context.Context, start, end time.Time) (int, int, error) {
	if end.Before(start) {
		start, end = end, start
	}

	totalGames := 0
	totalStats := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return totalGames, totalStats, err
		}

		games, stats, err := i.IngestDate(ctx, d)
		totalGames += games
		totalStats += stats
		if err != nil {
			return totalGames, totalStats, err
		}
	}

	return totalGames, totalStats, nil
}

func (i *Ingester) ingestBoxScore(ctx context.Context, gameID string) (int, error) {
	boxScore, err := i.client.FetchBoxScore(ctx, gameID)
	if err != nil {
		return 0, err
	}

	stats := ParseBoxScore(boxScore)
	if len(stats) == 0 {
		log.Printf("[ingest] ⚠️  Empty box score for game %s", gameID)
		return 0, nil
	}

	written := 0
	for _, stat := range stats {
		if err := i.statsRepo.Upsert(ctx, stat); err != nil {
			return written, err
		}
		written++
	}

	return written, nil
}
