package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	appledger "github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"go.uber.org/zap"
)

// Sweeper runs one stale-debt sweep
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (*appledger.NotificationBatch, error)
}

// StaleDebtSchedulerConfig holds configuration for the stale-debt scheduler
type StaleDebtSchedulerConfig struct {
	// Interval between two sweeps
	Interval time.Duration

	// RunOnStart sweeps once right after Start instead of waiting a full interval
	RunOnStart bool

	// SweepTimeout bounds a single sweep
	SweepTimeout time.Duration
}

// DefaultStaleDebtSchedulerConfig returns default scheduler configuration
func DefaultStaleDebtSchedulerConfig() StaleDebtSchedulerConfig {
	return StaleDebtSchedulerConfig{
		Interval:     time.Hour,
		RunOnStart:   true,
		SweepTimeout: 2 * time.Minute,
	}
}

// Validate checks the configuration
func (c StaleDebtSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.SweepTimeout < 0 {
		return fmt.Errorf("%w: sweep timeout cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// StaleDebtScheduler triggers stale-debt sweeps on a fixed interval
type StaleDebtScheduler struct {
	config  StaleDebtSchedulerConfig
	sweeper Sweeper
	logger  *zap.Logger
	clock   func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  atomic.Bool
}

// NewStaleDebtScheduler creates a new stale-debt scheduler
func NewStaleDebtScheduler(
	config StaleDebtSchedulerConfig,
	sweeper Sweeper,
	logger *zap.Logger,
) (*StaleDebtScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaleDebtScheduler{
		config:  config,
		sweeper: sweeper,
		logger:  logger,
		clock:   time.Now,
	}, nil
}

// Start starts the sweep loop
func (s *StaleDebtScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Stale-debt scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)
	return nil
}

// Stop stops the sweep loop and waits for an in-flight sweep to finish
func (s *StaleDebtScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Stale-debt scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *StaleDebtScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunOnce performs a sweep immediately. Overlapping sweeps in this process are
// refused with ErrSweepInProgress; sweeps from other instances are fenced by
// the sweep history claim.
func (s *StaleDebtScheduler) RunOnce(ctx context.Context) (*appledger.NotificationBatch, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.sweeping.Store(false)

	if s.config.SweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SweepTimeout)
		defer cancel()
	}

	start := s.clock()
	batch, err := s.sweeper.Sweep(ctx, start)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Stale-debt sweep finished",
		zap.Int("stale_sales", batch.StaleSales),
		zap.Int("emitted", batch.Emitted),
		zap.Int("failed_sales", len(batch.FailedSales)),
		zap.Bool("suppressed", batch.Suppressed),
		zap.Duration("elapsed", s.clock().Sub(start)),
	)
	return batch, nil
}

func (s *StaleDebtScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *StaleDebtScheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Stale-debt sweep failed", zap.Error(err))
	}
}
