package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fortuna/augur/internal/cache"
	"github.com/fortuna/augur/internal/features"
	"github.com/fortuna/augur/internal/ingest/nba"
	"github.com/fortuna/augur/internal/model"
	"github.com/fortuna/augur/internal/publisher"
	"github.com/fortuna/augur/internal/scoring"
	"github.com/fortuna/augur/internal/store"
	"github.com/fortuna/augur/internal/store/repository"
)

// Runner executes the daily pipeline: ingest yesterday's box scores, derive
// features as of today, score them with the loaded artifact. Each stage's
// writes are transactional; a failed stage aborts the run and leaves the
// previous committed state untouched.
type Runner struct {
	ingester    *nba.Ingester
	features    *features.Engine
	scoring     *scoring.Engine
	artifact    *model.Artifact
	predictions *repository.PredictionRepository

	// Optional serving-side effects; nil disables them.
	cache  *cache.RedisCache
	stream *publisher.RedisStreamPublisher
}

// NewRunner wires a pipeline over the given database and artifact
func NewRunner(db *store.Database, artifact *model.Artifact, ingester *nba.Ingester, scoringConfig scoring.Config) *Runner {
	return &Runner{
		ingester:    ingester,
		features:    features.NewEngine(db),
		scoring:     scoring.NewEngine(db, scoringConfig),
		artifact:    artifact,
		predictions: repository.NewPredictionRepository(db),
	}
}

// WithCache enables caching of each run's predictions
func (r *Runner) WithCache(c *cache.RedisCache) *Runner {
	r.cache = c
	return r
}

// WithPublisher enables run-complete announcements on a Redis stream
func (r *Runner) WithPublisher(p *publisher.RedisStreamPublisher) *Runner {
	r.stream = p
	return r
}

// RunDaily executes the full pipeline for today's as-of date
func (r *Runner) RunDaily(ctx context.Context) error {
	started := time.Now()
	asOf := today()

	log.Println("═══ Daily pipeline starting ═══")

	yesterday := asOf.AddDate(0, 0, -1)
	games, stats, err := r.ingester.IngestDate(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", yesterday.Format("2006-01-02"), err)
	}
	log.Printf("✓ Ingested %d games, %d player lines", games, stats)

	featureCount, err := r.RunFeatures(ctx, asOf)
	if err != nil {
		return err
	}

	scoredCount, err := r.RunScore(ctx)
	if err != nil {
		return err
	}

	log.Printf("═══ Daily pipeline complete in %v (%d features, %d predictions) ═══",
		time.Since(started).Round(time.Second), featureCount, scoredCount)
	return nil
}

// RunFeatures derives and upserts feature rows for the as-of date
func (r *Runner) RunFeatures(ctx context.Context, asOf time.Time) (int, error) {
	count, err := r.features.Run(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("build features: %w", err)
	}
	log.Printf("✓ Upserted %d feature rows into player_features_daily", count)
	return count, nil
}

// RunScore scores the latest features and upserts predictions, then caches
// and publishes the result when serving-side effects are configured. Cache
// and stream are keyed by the scored rows' as_of_date, the feature
// snapshot's date, not the run's wall clock.
func (r *Runner) RunScore(ctx context.Context) (int, error) {
	rows, err := r.scoring.Run(ctx, r.artifact)
	if err != nil {
		return 0, fmt.Errorf("score features: %w", err)
	}
	log.Printf("✓ Upserted %d rows into predictions_daily (model %s)", len(rows), r.artifact.Version)

	if snapshot, ok := snapshotDate(rows); ok {
		r.refreshCache(ctx, snapshot)
		r.announceRun(ctx, snapshot, len(rows))
	}

	return len(rows), nil
}

// RunBackfill ingests a date range to give players enough rolling-window
// history, then rebuilds features once at the end.
func (r *Runner) RunBackfill(ctx context.Context, start, end time.Time) error {
	games, stats, err := r.ingester.IngestRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("backfill %s..%s: %w", start.Format("2006-01-02"), end.Format("2006-01-02"), err)
	}
	log.Printf("✓ Backfilled %d games, %d player lines", games, stats)

	if _, err := r.RunFeatures(ctx, today()); err != nil {
		return err
	}
	return nil
}

// refreshCache caches the snapshot's predictions for the read API. Cache
// failures are logged, not fatal: the database remains the source of truth.
func (r *Runner) refreshCache(ctx context.Context, asOf time.Time) {
	if r.cache == nil {
		return
	}

	key := PredictionCacheKey(asOf)
	rows, err := r.predictions.GetByDate(ctx, asOf.Format("2006-01-02"))
	if err != nil {
		log.Printf("⚠️  Cache refresh read failed: %v", err)
		return
	}
	if len(rows) == 0 {
		// Never cache an empty list; clear any stale entry instead.
		if err := r.cache.Delete(ctx, key); err != nil {
			log.Printf("⚠️  Cache invalidation failed: %v", err)
		}
		return
	}

	data, err := json.Marshal(rows)
	if err != nil {
		log.Printf("⚠️  Cache refresh marshal failed: %v", err)
		return
	}

	if err := r.cache.Set(ctx, key, data, 24*time.Hour); err != nil {
		log.Printf("⚠️  Cache refresh write failed: %v", err)
		return
	}
	log.Printf("✓ Cached %d predictions at %s", len(rows), key)
}

func (r *Runner) announceRun(ctx context.Context, asOf time.Time, count int) {
	if r.stream == nil {
		return
	}

	summary := publisher.RunSummary{
		AsOfDate:     asOf.Format("2006-01-02"),
		ModelVersion: r.artifact.Version,
		RowsScored:   count,
	}
	if err := r.stream.PublishRunComplete(ctx, summary); err != nil {
		log.Printf("⚠️  Stream publish failed: %v", err)
		return
	}
	log.Printf("✓ Published run summary to %s", publisher.PredictionStream)
}

// PredictionCacheKey is the cache key for a day's prediction list
func PredictionCacheKey(asOf time.Time) string {
	return "augur:predictions:" + asOf.Format("2006-01-02")
}

// snapshotDate returns the as-of date a scored batch carries. ok is false
// for an empty batch.
func snapshotDate(rows []store.PredictionRow) (time.Time, bool) {
	if len(rows) == 0 {
		return time.Time{}, false
	}
	return rows[0].AsOfDate, true
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
