package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PredictionStream carries one entry per completed scoring run
	PredictionStream = "predictions.daily.basketball_nba"

	// maxStreamLength caps stream growth; old runs are trimmed
	maxStreamLength = 500
)

// RedisStreamPublisher announces completed scoring runs on a Redis stream so
// downstream consumers can react without polling the predictions table.
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a publisher from an existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// RunSummary describes one completed scoring run
type RunSummary struct {
	AsOfDate     string `json:"as_of_date"`
	ModelVersion string `json:"model_version"`
	RowsScored   int    `json:"rows_scored"`
	CompletedAt  string `json:"completed_at"`
}

// PublishRunComplete publishes a scoring-run summary to the stream
func (p *RedisStreamPublisher) PublishRunComplete(ctx context.Context, summary RunSummary) error {
	if summary.CompletedAt == "" {
		summary.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: PredictionStream,
		MaxLen: maxStreamLength,
		Approx: true,
		Values: map[string]interface{}{
			"type": "scoring_run_complete",
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", PredictionStream, err)
	}

	return nil
}
