package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/augur/internal/ingest/nba"
	"github.com/fortuna/augur/internal/pipeline"
	"github.com/fortuna/augur/internal/scoring"
)

// newFailFastScheduler builds a scheduler whose pipeline runs fail
// immediately at the ingest step, so run-state bookkeeping can be exercised
// without a database or upstream.
func newFailFastScheduler(t *testing.T) *Scheduler {
	t.Helper()

	ingester := nba.NewIngesterWithBaseURL(nil, "http://127.0.0.1:0")
	runner := pipeline.NewRunner(nil, nil, ingester, scoring.DefaultConfig())

	s, err := New(runner, DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestNewRejectsInvalidSchedule(t *testing.T) {
	ingester := nba.NewIngesterWithBaseURL(nil, "http://127.0.0.1:0")
	runner := pipeline.NewRunner(nil, nil, ingester, scoring.DefaultConfig())

	_, err := New(runner, &Config{DailySchedule: "not a cron expr"})
	assert.Error(t, err)
}

func TestStatusBeforeAnyRun(t *testing.T) {
	s := newFailFastScheduler(t)

	status := s.Status()
	assert.Equal(t, false, status["running"])
	assert.Equal(t, "0 7 * * *", status["daily_schedule"])
	assert.NotContains(t, status, "last_run")
}

func TestTriggerNowRecordsFailedRun(t *testing.T) {
	s := newFailFastScheduler(t)

	err := s.TriggerNow(context.Background())
	require.Error(t, err)

	status := s.Status()
	assert.Contains(t, status, "last_run")
	assert.Equal(t, false, status["last_run_ok"])
	assert.Contains(t, status, "last_run_error")
}

// Exercises manual triggers and status polls from separate goroutines, the
// same overlap the HTTP handlers produce in normal operation. Run with the
// race detector enabled to verify the run-state fields stay guarded.
func TestConcurrentTriggerAndStatus(t *testing.T) {
	s := newFailFastScheduler(t)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			_ = s.TriggerNow(context.Background())
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.Status()
		}
	}()

	wg.Wait()

	status := s.Status()
	assert.Equal(t, false, status["last_run_ok"])
}

func TestStartStopIdempotentStop(t *testing.T) {
	s := newFailFastScheduler(t)

	s.Start()
	assert.Equal(t, true, s.Status()["running"])

	s.Stop()
	assert.Equal(t, false, s.Status()["running"])

	// A second Stop is a no-op.
	s.Stop()
}
