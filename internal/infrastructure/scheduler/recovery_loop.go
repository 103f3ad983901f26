package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/integration"
)

// ContingencyRecoverer attempts to close the open contingency window of one
// point of sale. Recovery is a no-op when the flag was already cleared.
type ContingencyRecoverer interface {
	Recover(ctx context.Context, pointOfSaleID uuid.UUID) error
}

// RecoveryLoopConfig holds configuration for the contingency recovery loop
type RecoveryLoopConfig struct {
	// CheckInterval is how often the loop scans for recoverable windows
	CheckInterval time.Duration

	// RecoveryDelay is how long a contingency window must have been open
	// before the loop tries to close it
	RecoveryDelay time.Duration

	// AttemptTimeout bounds one recovery attempt
	AttemptTimeout time.Duration
}

// DefaultRecoveryLoopConfig returns default recovery loop configuration
func DefaultRecoveryLoopConfig() RecoveryLoopConfig {
	return RecoveryLoopConfig{
		CheckInterval:  time.Minute,
		RecoveryDelay:  2 * time.Hour,
		AttemptTimeout: 5 * time.Minute,
	}
}

// RecoveryLoop periodically scans points of sale stuck in contingency mode
// and tries to close their windows once the recovery delay has elapsed. The
// scan is driven off the persisted open event, so windows survive process
// restarts. A window closed manually before the loop gets to it is skipped.
type RecoveryLoop struct {
	config    RecoveryLoopConfig
	posRepo   billing.PointOfSaleRepository
	eventRepo integration.ContingencyEventRepository
	recoverer ContingencyRecoverer
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewRecoveryLoop creates a new recovery loop
func NewRecoveryLoop(
	config RecoveryLoopConfig,
	posRepo billing.PointOfSaleRepository,
	eventRepo integration.ContingencyEventRepository,
	recoverer ContingencyRecoverer,
	logger *zap.Logger,
) *RecoveryLoop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecoveryLoop{
		config:    config,
		posRepo:   posRepo,
		eventRepo: eventRepo,
		recoverer: recoverer,
		logger:    logger,
	}
}

// Start starts the recovery loop
func (l *RecoveryLoop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.isRunning {
		l.mu.Unlock()
		return nil
	}
	l.isRunning = true
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.wg.Add(1)
	go l.runLoop(ctx)

	l.logger.Info("Contingency recovery loop started",
		zap.Duration("check_interval", l.config.CheckInterval),
		zap.Duration("recovery_delay", l.config.RecoveryDelay),
	)
	return nil
}

// Stop gracefully stops the recovery loop
func (l *RecoveryLoop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.isRunning {
		l.mu.Unlock()
		return nil
	}
	l.isRunning = false
	l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("Contingency recovery loop stopped")
		return nil
	case <-ctx.Done():
		l.logger.Warn("Contingency recovery loop stop timed out")
		return ctx.Err()
	}
}

func (l *RecoveryLoop) runLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.scan(ctx)
		}
	}
}

// scan walks every point of sale in contingency mode and attempts recovery
// for windows older than the configured delay. One failed attempt never
// stops the walk.
func (l *RecoveryLoop) scan(ctx context.Context) {
	stuck, err := l.posRepo.FindInContingency(ctx)
	if err != nil {
		l.logger.Error("Contingency scan failed", zap.Error(err))
		return
	}

	now := time.Now()
	for i := range stuck {
		pos := &stuck[i]
		event, err := l.eventRepo.FindOpenByPointOfSale(ctx, pos.ID)
		if err != nil {
			// Closed manually between the flag read and here
			l.logger.Debug("No open contingency event for point of sale",
				zap.String("point_of_sale_id", pos.ID.String()))
			continue
		}
		if now.Sub(event.StartedAt) < l.config.RecoveryDelay {
			continue
		}

		l.attempt(ctx, pos.ID, event.StartedAt)
	}
}

func (l *RecoveryLoop) attempt(ctx context.Context, pointOfSaleID uuid.UUID, openedAt time.Time) {
	attemptCtx, cancel := context.WithTimeout(ctx, l.config.AttemptTimeout)
	defer cancel()

	if err := l.recoverer.Recover(attemptCtx, pointOfSaleID); err != nil {
		l.logger.Warn("Contingency recovery attempt failed",
			zap.String("point_of_sale_id", pointOfSaleID.String()),
			zap.Time("opened_at", openedAt),
			zap.Error(err))
		return
	}

	l.logger.Info("Contingency recovery attempt finished",
		zap.String("point_of_sale_id", pointOfSaleID.String()),
		zap.Duration("window_age", time.Since(openedAt)))
}
