package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/infrastructure/telemetry"
)

// Runner chains all synchronizers into the daily run: reference catalogs
// first, then customers and products, then the authorization codes. The
// first failure aborts the run; everything synced before it stays synced.
type Runner struct {
	references  *ReferenceSync
	customers   *CustomerSync
	products    *ProductSync
	fiscalCodes *FiscalCodeSync
	logger      *zap.Logger
	metrics     *telemetry.BridgeMetrics
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithRunnerMetrics sets the bridge metrics recorder
func WithRunnerMetrics(metrics *telemetry.BridgeMetrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = metrics
	}
}

// NewRunner creates a new Runner
func NewRunner(
	references *ReferenceSync,
	customers *CustomerSync,
	products *ProductSync,
	fiscalCodes *FiscalCodeSync,
	logger *zap.Logger,
	opts ...RunnerOption,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		references:  references,
		customers:   customers,
		products:    products,
		fiscalCodes: fiscalCodes,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunDaily executes the full synchronization sequence
func (r *Runner) RunDaily(ctx context.Context) error {
	start := time.Now()
	r.logger.Info("daily sync started")

	created, err := r.references.SyncAll(ctx)
	for kind, n := range created {
		if r.metrics != nil && n > 0 {
			r.metrics.RecordSyncedEntries(ctx, kind.String(), int64(n))
		}
	}
	if err != nil {
		return fmt.Errorf("reference sync: %w", err)
	}

	customersCreated, customersUpdated, err := r.customers.Sync(ctx)
	if err != nil {
		return fmt.Errorf("customer sync: %w", err)
	}
	if r.metrics != nil && customersCreated > 0 {
		r.metrics.RecordSyncedEntries(ctx, "customers", int64(customersCreated))
	}

	productsCreated, _, err := r.products.Sync(ctx)
	if err != nil {
		return fmt.Errorf("product sync: %w", err)
	}
	if r.metrics != nil && productsCreated > 0 {
		r.metrics.RecordSyncedEntries(ctx, "products", int64(productsCreated))
	}

	if _, err := r.fiscalCodes.SyncDailyCodes(ctx); err != nil {
		return fmt.Errorf("daily code sync: %w", err)
	}
	if _, err := r.fiscalCodes.SyncSystemCodes(ctx); err != nil {
		return fmt.Errorf("system code sync: %w", err)
	}

	r.logger.Info("daily sync finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("customers_created", customersCreated),
		zap.Int("customers_updated", customersUpdated),
		zap.Int("products_created", productsCreated))
	return nil
}
