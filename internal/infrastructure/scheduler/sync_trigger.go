package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DailySyncRunner executes one full synchronization run
type DailySyncRunner interface {
	RunDaily(ctx context.Context) error
}

// SyncTriggerConfig holds configuration for the daily sync trigger
type SyncTriggerConfig struct {
	// DailySyncHour and DailySyncMinute give the local time of day the
	// sync runs (24h format)
	DailySyncHour   int
	DailySyncMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// RunTimeout bounds one synchronization run
	RunTimeout time.Duration
}

// DefaultSyncTriggerConfig returns default sync trigger configuration
func DefaultSyncTriggerConfig() SyncTriggerConfig {
	return SyncTriggerConfig{
		DailySyncHour:   2, // 2am
		DailySyncMinute: 0,
		CheckInterval:   time.Minute,
		RunTimeout:      30 * time.Minute,
	}
}

// SyncTrigger runs the reference and entity synchronization once a day. A
// run that is still executing when the next tick arrives is never doubled
// up; failed runs are logged and retried at the next scheduled time.
type SyncTrigger struct {
	config SyncTriggerConfig
	runner DailySyncRunner
	logger *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	inProgress  bool
	lastRunDate string
}

// NewSyncTrigger creates a new sync trigger
func NewSyncTrigger(config SyncTriggerConfig, runner DailySyncRunner, logger *zap.Logger) *SyncTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncTrigger{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Start starts the sync trigger
func (t *SyncTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Sync trigger started",
		zap.Int("daily_hour", t.config.DailySyncHour),
		zap.Int("daily_minute", t.config.DailySyncMinute),
		zap.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop gracefully stops the sync trigger
func (t *SyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sync trigger stopped")
		return nil
	case <-ctx.Done():
		t.logger.Warn("Sync trigger stop timed out")
		return ctx.Err()
	}
}

// TriggerNow runs one synchronization immediately, outside the daily
// schedule. Used by the manual sync endpoint.
func (t *SyncTrigger) TriggerNow(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return ErrTriggerNotRunning
	}
	if t.inProgress {
		t.mu.Unlock()
		return ErrSyncAlreadyInProgress
	}
	t.inProgress = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.inProgress = false
		t.mu.Unlock()
	}()

	return t.runOnce(ctx)
}

func (t *SyncTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndRun(ctx)
		}
	}
}

func (t *SyncTrigger) checkAndRun(ctx context.Context) {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	t.mu.Lock()
	if t.lastRunDate == currentDate || t.inProgress {
		t.mu.Unlock()
		return
	}
	if now.Hour() != t.config.DailySyncHour || now.Minute() != t.config.DailySyncMinute {
		t.mu.Unlock()
		return
	}
	t.lastRunDate = currentDate
	t.inProgress = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.inProgress = false
		t.mu.Unlock()
	}()

	t.logger.Info("Triggering daily synchronization")
	if err := t.runOnce(ctx); err != nil {
		t.logger.Error("Daily synchronization failed", zap.Error(err))
	}
}

func (t *SyncTrigger) runOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, t.config.RunTimeout)
	defer cancel()

	started := time.Now()
	if err := t.runner.RunDaily(runCtx); err != nil {
		return err
	}
	t.logger.Info("Daily synchronization finished",
		zap.Duration("elapsed", time.Since(started)))
	return nil
}
