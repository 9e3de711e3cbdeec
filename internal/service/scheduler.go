package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tasktracker/internal/metrics"
)

// Ticker runs one recurrence pass.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (int, error)
}

type SchedulerOptions struct {
	Interval time.Duration
	Now      func() time.Time // defaults to time.Now
	Logger   *log.Logger
	Metrics  *metrics.Metrics
}

// Scheduler fires the recurrence engine on a fixed interval. Ticks never
// overlap: a firing that finds a tick in progress is skipped.
type Scheduler struct {
	ticker   Ticker
	interval time.Duration
	now      func() time.Time
	logger   *log.Logger
	metrics  *metrics.Metrics

	cron    *cron.Cron
	running sync.Mutex

	mu      sync.Mutex
	started bool
	entry   cron.EntryID
}

func NewScheduler(ticker Ticker, opts SchedulerOptions) *Scheduler {
	s := &Scheduler{
		ticker:   ticker,
		interval: opts.Interval,
		now:      opts.Now,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if s.interval <= 0 {
		s.interval = 15 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.New(os.Stdout, "recurrence: ", log.LstdFlags)
	}

	cronLogger := cron.PrintfLogger(s.logger)
	s.cron = cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	return s
}

// Start registers the periodic job once and starts the cron loop. It returns
// ErrSchedulerStarted if the scheduler is already running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrSchedulerStarted
	}
	if s.entry == 0 {
		spec := fmt.Sprintf("@every %s", s.interval)
		id, err := s.cron.AddFunc(spec, s.fire)
		if err != nil {
			return fmt.Errorf("schedule recurrence: %w", err)
		}
		s.entry = id
	}
	s.cron.Start()
	s.started = true
	s.logger.Printf("⏰ Recurrence scheduler started, every %s", s.interval)
	return nil
}

// Stop halts future firings and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Println("🛑 Recurrence scheduler stopped")
}

// Entries lists the registered cron jobs with their next firing time.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// RunOnce runs a single tick now. It returns ErrTickInProgress instead of
// waiting when another tick is running.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if !s.running.TryLock() {
		s.metrics.ObserveTick(metrics.TickSkipped, 0)
		return 0, ErrTickInProgress
	}
	defer s.running.Unlock()

	started := time.Now()
	spawned, err := s.ticker.Tick(ctx, s.now())
	if err != nil {
		s.metrics.ObserveTick(metrics.TickError, time.Since(started))
		return spawned, err
	}
	s.metrics.ObserveTick(metrics.TickOK, time.Since(started))
	return spawned, nil
}

func (s *Scheduler) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	spawned, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrTickInProgress):
		s.logger.Println("⏭️  Previous tick still running, skipping")
	case err != nil:
		s.logger.Printf("❌ Recurrence tick failed after %d occurrence(s): %v", spawned, err)
	case spawned > 0:
		s.logger.Printf("✅ Spawned %d recurring task occurrence(s)", spawned)
	}
}
