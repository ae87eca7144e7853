package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fortuna/augur/internal/pipeline"
)

// Config holds scheduler configuration
type Config struct {
	// DailySchedule is a cron expression for the daily pipeline run.
	// Default runs at 07:00 UTC, after the previous night's games are final.
	DailySchedule string
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		DailySchedule: "0 7 * * *",
	}
}

// Scheduler triggers the daily pipeline on a cron schedule. A run that
// fails leaves the previous day's committed state untouched; the next
// scheduled run (or a manual trigger) retries it safely thanks to upsert
// idempotence.
type Scheduler struct {
	cron   *cron.Cron
	runner *pipeline.Runner
	config *Config

	// mu guards the run-state fields below, which the cron goroutine and
	// HTTP handler goroutines touch concurrently.
	mu      sync.Mutex
	running bool
	lastRun time.Time
	lastErr error
}

// New creates a scheduler around the pipeline runner
func New(runner *pipeline.Runner, config *Config) (*Scheduler, error) {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.VerbosePrintfLogger(log.Default()))),
		runner: runner,
		config: config,
	}

	if _, err := s.cron.AddFunc(config.DailySchedule, s.runDaily); err != nil {
		return nil, fmt.Errorf("invalid daily schedule %q: %w", config.DailySchedule, err)
	}

	return s, nil
}

// Start begins the cron schedule
func (s *Scheduler) Start() {
	log.Printf("→ Scheduler started (daily pipeline: %q)", s.config.DailySchedule)
	s.cron.Start()

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
}

// Stop stops the schedule, waiting for an in-flight run to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	// Released before waiting: a finishing run needs the lock to record
	// its result.
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("✓ Scheduler stopped")
}

// TriggerNow runs the daily pipeline immediately, outside the schedule
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	log.Println("Manual pipeline trigger")
	err := s.runner.RunDaily(ctx)
	s.recordRun(err)
	return err
}

// Status reports the scheduler's current state
func (s *Scheduler) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":        s.running,
		"daily_schedule": s.config.DailySchedule,
	}
	if !s.lastRun.IsZero() {
		status["last_run"] = s.lastRun.UTC().Format(time.RFC3339)
		status["last_run_ok"] = s.lastErr == nil
		if s.lastErr != nil {
			status["last_run_error"] = s.lastErr.Error()
		}
	}
	return status
}

func (s *Scheduler) recordRun(err error) {
	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	err := s.runner.RunDaily(ctx)
	s.recordRun(err)
	if err != nil {
		log.Printf("❌ Daily pipeline failed: %v", err)
	}
}
