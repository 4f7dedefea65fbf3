package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// CycleRunner is the unit of work the scheduler drives
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// Service triggers monitoring cycles on a cron schedule. Cycles never
// overlap: a trigger that fires while the previous cycle is still
// running is skipped, not queued.
type Service struct {
	runner   CycleRunner
	cron     *cron.Cron
	schedule string
	logger   arbor.ILogger

	mu           sync.Mutex
	isProcessing bool
	running      bool
	ctx          context.Context
	cancel       context.CancelFunc
	lastRun      *time.Time
	lastError    string
}

// NewService creates a scheduler for the given cron schedule
func NewService(runner CycleRunner, schedule string, logger arbor.ILogger) *Service {
	return &Service{
		runner:   runner,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the cycle with cron and begins triggering. When
// runOnStart is set, one cycle runs immediately in the background.
func (s *Service) Start(runOnStart bool) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.schedule, s.runCycle); err != nil {
		s.mu.Lock()
		s.running = false
		s.cancel()
		s.mu.Unlock()
		return fmt.Errorf("failed to register schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.schedule).
		Msg("Scheduler started")

	if runOnStart {
		s.logger.Info().Msg("Running startup cycle")
		go s.runCycle()
	}

	return nil
}

// Stop halts triggering, cancels the in-flight cycle's context, and
// waits for it to wind down.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	// Stop returns a context that completes when running jobs are done
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(60 * time.Second):
		s.logger.Warn().Msg("Cycle did not finish within shutdown timeout")
	}

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TriggerNow runs one cycle outside the schedule. Skipped if a cycle is
// already in flight.
func (s *Service) TriggerNow() {
	s.logger.Info().Msg("Manual cycle trigger requested")
	go s.runCycle()
}

// runCycle executes one cycle with overlap protection and panic recovery
func (s *Service) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Panic recovered in monitoring cycle")

			s.mu.Lock()
			s.isProcessing = false
			s.lastError = fmt.Sprintf("panic: %v", r)
			s.mu.Unlock()
		}
	}()

	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Debug().Msg("Previous cycle still running, trigger skipped")
		return
	}
	s.isProcessing = true
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	started := time.Now()
	s.logger.Info().Msg("Monitoring cycle started")

	err := s.runner.RunCycle(ctx)

	completed := time.Now()
	s.mu.Lock()
	s.lastRun = &completed
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("Monitoring cycle failed")
		return
	}

	s.logger.Info().
		Dur("duration", time.Since(started)).
		Msg("Monitoring cycle completed")
}

// LastRun returns the completion time of the most recent cycle and its
// error, if any.
func (s *Service) LastRun() (*time.Time, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastError
}
