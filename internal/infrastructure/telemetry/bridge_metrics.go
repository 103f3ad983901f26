package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BridgeMetrics tracks invoicing activity against the tax service: how many
// documents were emitted and voided, contingency event churn, and how many
// invoices sit queued waiting for a contingency to close.
type BridgeMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	invoiceEmittedTotal *Counter
	invoiceVoidedTotal  *Counter
	contingencyTotal    *Counter
	remoteCallDuration  *Histogram
	queuedInvoicesGauge *Gauge
	syncedEntriesTotal  *Counter

	stopChan chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once

	queueProvider QueueDepthProvider
}

// QueueDepthProvider reports how many invoices are queued per point of sale.
// The interface keeps the telemetry layer off the billing repositories.
type QueueDepthProvider interface {
	QueuedInvoiceCounts(ctx context.Context) (map[uuid.UUID]int64, error)
}

// BridgeMetricsConfig holds configuration for bridge metrics.
type BridgeMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 1 minute
	QueueProvider   QueueDepthProvider
}

// NewBridgeMetrics creates a new BridgeMetrics instance.
func NewBridgeMetrics(cfg BridgeMetricsConfig) (*BridgeMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BridgeMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		queueProvider: cfg.QueueProvider,
	}

	var err error

	bm.invoiceEmittedTotal, err = NewCounter(
		cfg.Meter,
		"siat_invoice_emitted_total",
		"Total number of invoices emitted",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	bm.invoiceVoidedTotal, err = NewCounter(
		cfg.Meter,
		"siat_invoice_voided_total",
		"Total number of invoice cancellations and reversals",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	bm.contingencyTotal, err = NewCounter(
		cfg.Meter,
		"siat_contingency_events_total",
		"Total number of contingency events opened",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	bm.remoteCallDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "siat_remote_call_duration_seconds",
		Description: "Duration of calls to the tax service",
		Unit:        "s",
		Boundaries:  RemoteDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.queuedInvoicesGauge, err = NewGauge(
		cfg.Meter,
		"siat_queued_invoices",
		"Invoices queued behind an open contingency event",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	bm.syncedEntriesTotal, err = NewCounter(
		cfg.Meter,
		"siat_synced_entries_total",
		"Total number of reference entries pulled from the tax service",
		"{entries}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// InvoiceMode labels how an invoice reached the tax service.
type InvoiceMode string

const (
	InvoiceModeOnline  InvoiceMode = "online"
	InvoiceModeOffline InvoiceMode = "offline"
)

// RecordInvoiceEmitted records an invoice emission
func (bm *BridgeMetrics) RecordInvoiceEmitted(ctx context.Context, pointOfSaleID uuid.UUID, mode InvoiceMode) {
	bm.invoiceEmittedTotal.Inc(ctx,
		AttrPointOfSaleID.String(pointOfSaleID.String()),
		AttrInvoiceMode.String(string(mode)),
	)
}

// RecordInvoiceVoided records a cancellation or a cancellation reversal
func (bm *BridgeMetrics) RecordInvoiceVoided(ctx context.Context, kind string) {
	bm.invoiceVoidedTotal.Inc(ctx, AttrVoidKind.String(kind))
}

// RecordContingencyOpened records a contingency event opening
func (bm *BridgeMetrics) RecordContingencyOpened(ctx context.Context, pointOfSaleID uuid.UUID, reason int) {
	bm.contingencyTotal.Inc(ctx,
		AttrPointOfSaleID.String(pointOfSaleID.String()),
		AttrEventReason.Int(reason),
	)
}

// RecordRemoteCall records the duration and outcome of a tax service call
func (bm *BridgeMetrics) RecordRemoteCall(ctx context.Context, op string, d time.Duration, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	bm.remoteCallDuration.RecordDuration(ctx, d,
		AttrRemoteOp.String(op),
		AttrOutcome.String(outcome),
	)
}

// RecordSyncedEntries records how many catalog entries a sync pass stored
func (bm *BridgeMetrics) RecordSyncedEntries(ctx context.Context, kind string, count int64) {
	bm.syncedEntriesTotal.Add(ctx, count, AttrCatalogKind.String(kind))
}

// StartPeriodicCollection starts the queue depth gauge collector.
// Non-blocking; use Stop() to stop collection.
func (bm *BridgeMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.runOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BridgeMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectQueueDepth(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("stopping bridge metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.collectQueueDepth(ctx)
		}
	}
}

func (bm *BridgeMetrics) collectQueueDepth(ctx context.Context) {
	if bm.queueProvider == nil {
		return
	}

	counts, err := bm.queueProvider.QueuedInvoiceCounts(ctx)
	if err != nil {
		bm.logger.Warn("failed to collect queued invoice counts", zap.Error(err))
		return
	}

	for posID, count := range counts {
		bm.queuedInvoicesGauge.Record(ctx, count,
			AttrPointOfSaleID.String(posID.String()),
		)
	}
}

// Stop stops the periodic collection.
func (bm *BridgeMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBridgeMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
