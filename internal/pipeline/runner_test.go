package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/augur/internal/store"
)

func TestPredictionCacheKey(t *testing.T) {
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "augur:predictions:2026-03-15", PredictionCacheKey(asOf))
}

func TestSnapshotDateUsesScoredRows(t *testing.T) {
	// Scoring against a stale feature snapshot: the rows carry the
	// snapshot's date, and that date must drive the cache key, not the
	// run's wall clock.
	snapshot := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	rows := []store.PredictionRow{
		{AsOfDate: snapshot, GameID: "g1", PlayerID: 1},
		{AsOfDate: snapshot, GameID: "g1", PlayerID: 2},
	}

	got, ok := snapshotDate(rows)
	require.True(t, ok)
	assert.Equal(t, snapshot, got)
	assert.Equal(t, "augur:predictions:2026-03-14", PredictionCacheKey(got))
}

func TestSnapshotDateEmptyBatch(t *testing.T) {
	_, ok := snapshotDate(nil)
	assert.False(t, ok)
}
