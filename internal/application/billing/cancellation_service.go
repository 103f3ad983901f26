package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
	"github.com/siatbridge/backend/internal/infrastructure/telemetry"
)

// CancellationService voids emitted invoices and reverses voids. Both
// operations are one-shot: the local record changes only after the tax
// service confirms, and a rejected call leaves everything untouched.
type CancellationService struct {
	invoiceRepo billing.InvoiceRepository
	endpoints   EndpointResolver
	taxService  integration.TaxAuthorityService
	logger      *zap.Logger
	metrics     *telemetry.BridgeMetrics
}

// CancellationOption configures a CancellationService
type CancellationOption func(*CancellationService)

// WithCancellationLogger sets the logger
func WithCancellationLogger(logger *zap.Logger) CancellationOption {
	return func(s *CancellationService) {
		s.logger = logger
	}
}

// WithCancellationMetrics sets the bridge metrics recorder
func WithCancellationMetrics(metrics *telemetry.BridgeMetrics) CancellationOption {
	return func(s *CancellationService) {
		s.metrics = metrics
	}
}

// NewCancellationService creates a new CancellationService
func NewCancellationService(
	invoiceRepo billing.InvoiceRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	opts ...CancellationOption,
) *CancellationService {
	s := &CancellationService{
		invoiceRepo: invoiceRepo,
		endpoints:   endpoints,
		taxService:  taxService,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cancel voids an emitted invoice with the given cancellation reason
func (s *CancellationService) Cancel(ctx context.Context, invoiceID uuid.UUID, reasonCode int) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != billing.InvoiceStatusEmitted {
		return nil, shared.ErrInvoiceNotCancellable
	}
	if invoice.RemoteID == nil {
		return nil, shared.ErrDocumentNotAvailable
	}

	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	req := &integration.VoidRequest{InvoiceRemoteID: *invoice.RemoteID, ReasonCode: reasonCode}
	start := time.Now()
	err = s.taxService.VoidInvoice(ctx, endpoint, req)
	s.recordRemoteCall(ctx, "void-invoice", time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}

	if err := invoice.MarkCancelled(stateCancelled); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordInvoiceVoided(ctx, "cancel")
	}
	s.logger.Info("invoice cancelled",
		zap.String("invoice_id", invoice.ID.String()),
		zap.Int("reason_code", reasonCode))
	return ToInvoiceResponse(invoice), nil
}

// Revert undoes a confirmed cancellation, putting the invoice back in
// circulation
func (s *CancellationService) Revert(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != billing.InvoiceStatusCancelled {
		return nil, shared.ErrInvoiceNotReversible
	}
	if invoice.RemoteID == nil {
		return nil, shared.ErrDocumentNotAvailable
	}

	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	req := &integration.VoidRequest{InvoiceRemoteID: *invoice.RemoteID}
	start := time.Now()
	err = s.taxService.ReverseVoid(ctx, endpoint, req)
	s.recordRemoteCall(ctx, "reverse-void", time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}

	if err := invoice.MarkReversed(stateReversed); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordInvoiceVoided(ctx, "revert")
	}
	s.logger.Info("invoice cancellation reversed", zap.String("invoice_id", invoice.ID.String()))
	return ToInvoiceResponse(invoice), nil
}

func (s *CancellationService) recordRemoteCall(ctx context.Context, op string, d time.Duration, success bool) {
	if s.metrics != nil {
		s.metrics.RecordRemoteCall(ctx, op, d, success)
	}
}

// Tax authority state codes confirming each outcome
const (
	stateCancelled = "905"
	stateReversed  = "907"
)
