package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/catalog"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/partner"
	"github.com/siatbridge/backend/internal/domain/shared"
	"github.com/siatbridge/backend/internal/infrastructure/telemetry"
)

// EndpointResolver yields the single active tax service endpoint
type EndpointResolver interface {
	Resolve(ctx context.Context) (*integration.ServiceEndpoint, error)
}

// IssuanceService drives the invoice lifecycle from draft to emission.
// Emission is serialized per point of sale through the locker so the fiscal
// numbering the tax service assigns never interleaves.
type IssuanceService struct {
	invoiceRepo  billing.InvoiceRepository
	customerRepo partner.CustomerRepository
	productRepo  catalog.ProductRepository
	posRepo      billing.PointOfSaleRepository
	endpoints    EndpointResolver
	taxService   integration.TaxAuthorityService
	locker       shared.Locker
	lockTTL      time.Duration
	fiscalZone   *time.Location
	logger       *zap.Logger
	metrics      *telemetry.BridgeMetrics
	now          func() time.Time
}

// IssuanceOption configures an IssuanceService
type IssuanceOption func(*IssuanceService)

// WithIssuanceLogger sets the logger
func WithIssuanceLogger(logger *zap.Logger) IssuanceOption {
	return func(s *IssuanceService) {
		s.logger = logger
	}
}

// WithIssuanceMetrics sets the bridge metrics recorder
func WithIssuanceMetrics(metrics *telemetry.BridgeMetrics) IssuanceOption {
	return func(s *IssuanceService) {
		s.metrics = metrics
	}
}

// WithIssuanceClock sets the time source, used by tests
func WithIssuanceClock(now func() time.Time) IssuanceOption {
	return func(s *IssuanceService) {
		s.now = now
	}
}

// NewIssuanceService creates a new IssuanceService
func NewIssuanceService(
	invoiceRepo billing.InvoiceRepository,
	customerRepo partner.CustomerRepository,
	productRepo catalog.ProductRepository,
	posRepo billing.PointOfSaleRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	locker shared.Locker,
	lockTTL time.Duration,
	fiscalZone *time.Location,
	opts ...IssuanceOption,
) *IssuanceService {
	s := &IssuanceService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		posRepo:      posRepo,
		endpoints:    endpoints,
		taxService:   taxService,
		locker:       locker,
		lockTTL:      lockTTL,
		fiscalZone:   fiscalZone,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDraft builds and stores a draft invoice. Line amounts are computed
// here; the discount is a percentage of the unit price.
func (s *IssuanceService) CreateDraft(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	if _, err := s.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	if _, err := s.posRepo.FindByID(ctx, req.PointOfSaleID); err != nil {
		return nil, err
	}

	invoice, err := billing.NewInvoice(req.CustomerID, req.PointOfSaleID, req.PaymentMethodCode, s.now())
	if err != nil {
		return nil, err
	}
	invoice.CardNumber = req.CardNumber

	for _, line := range req.Lines {
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		unitPrice := product.UnitPrice
		if line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		}
		if err := invoice.AddLine(line.ProductID, line.Quantity, unitPrice, discountAmount(unitPrice, line.DiscountPct)); err != nil {
			return nil, err
		}
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}
	return ToInvoiceResponse(invoice), nil
}

// Issue emits a draft invoice through the tax service. When the point of
// sale is not in contingency the service is probed first; a failed probe
// does not emit and instead asks the caller to open a contingency event.
func (s *IssuanceService) Issue(ctx context.Context, invoiceID uuid.UUID) (*IssueResult, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != billing.InvoiceStatusDraft {
		return nil, shared.ErrInvalidState
	}
	if !billing.SameFiscalDay(invoice.Date, s.now(), s.fiscalZone) {
		return nil, shared.ErrInvoiceDateOutOfRange
	}

	pos, err := s.posRepo.FindByID(ctx, invoice.PointOfSaleID)
	if err != nil {
		return nil, err
	}
	if !pos.IsRegistered() {
		return nil, shared.ErrPointOfSaleUnregistered
	}

	customer, lines, err := s.validateForEmission(ctx, invoice)
	if err != nil {
		return nil, err
	}

	lockKey := issuanceLockKey(pos.ID)
	acquired, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, shared.ErrIssuanceInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.Warn("failed to release issuance lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	if !pos.Contingency {
		if err := s.taxService.VerifyCommunication(ctx, endpoint); err != nil {
			s.logger.Warn("connectivity probe failed before emission",
				zap.String("point_of_sale_id", pos.ID.String()),
				zap.Error(err))
			return &IssueResult{ContingencyPrompt: true}, nil
		}
	}

	emitReq := &integration.EmitRequest{
		PointOfSaleRemoteID: *pos.RemoteID,
		CustomerRemoteID:    *customer.RemoteID,
		PaymentMethodCode:   invoice.PaymentMethodCode,
		CardNumber:          invoice.CardNumber,
		Lines:               lines,
		Online:              !pos.Contingency,
	}

	start := s.now()
	result, err := s.taxService.EmitInvoice(ctx, endpoint, emitReq)
	s.recordRemoteCall(ctx, "emit-invoice", s.now().Sub(start), err == nil)
	if err != nil {
		return nil, err
	}

	if pos.Contingency {
		if pos.OpenEventID == nil {
			return nil, shared.ErrContingencyNotOpen
		}
		if err := invoice.MarkQueued(*pos.OpenEventID, result.StateCode, result.UniqueCode, result.Number); err != nil {
			return nil, err
		}
	} else {
		if err := invoice.MarkEmitted(result.StateCode, result.UniqueCode, result.Number, result.ViewURL); err != nil {
			return nil, err
		}
	}
	// The fiscal number doubles as the invoice identity on the tax service side
	invoice.RemoteID = &result.Number

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	mode := telemetry.InvoiceModeOnline
	if pos.Contingency {
		mode = telemetry.InvoiceModeOffline
	}
	if s.metrics != nil {
		s.metrics.RecordInvoiceEmitted(ctx, pos.ID, mode)
	}
	s.logger.Info("invoice emitted",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("point_of_sale_id", pos.ID.String()),
		zap.String("mode", string(mode)),
		zap.String("unique_code", invoice.UniqueCode))

	return &IssueResult{Issued: true, Invoice: ToInvoiceResponse(invoice)}, nil
}

// GetByID returns one invoice
func (s *IssuanceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(invoice), nil
}

// List returns invoices with pagination
func (s *IssuanceService) List(ctx context.Context, filter InvoiceListFilter) (*shared.Paginated[InvoiceResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.PointOfSaleID != nil {
		f.Filters["point_of_sale_id"] = *filter.PointOfSaleID
	}
	if filter.CustomerID != nil {
		f.Filters["customer_id"] = *filter.CustomerID
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToInvoiceResponses(invoices), total, f.Page, f.PageSize)
	return &result, nil
}

// validateForEmission checks everything the tax service will reject late:
// the customer and every product must already be mirrored, and every
// product must carry its homologation data. Failures enumerate the
// offending records so the operator can fix them in one pass.
func (s *IssuanceService) validateForEmission(ctx context.Context, invoice *billing.Invoice) (*partner.Customer, []integration.EmitLine, error) {
	customer, err := s.customerRepo.FindByID(ctx, invoice.CustomerID)
	if err != nil {
		return nil, nil, err
	}

	var missing []string
	if !customer.IsMirrored() {
		missing = append(missing, fmt.Sprintf("customer %s has no remote registration", customer.Name))
	}

	lines := make([]integration.EmitLine, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if !product.IsHomologated() {
			missing = append(missing, fmt.Sprintf("product %s is not homologated", product.Code))
			continue
		}
		if !product.IsMirrored() {
			missing = append(missing, fmt.Sprintf("product %s has no remote registration", product.Code))
			continue
		}
		lines = append(lines, integration.EmitLine{
			ItemRemoteID: *product.RemoteID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Discount:     line.Discount,
		})
	}

	if len(missing) > 0 {
		return nil, nil, shared.NewDomainError("VALIDATION_FAILED", strings.Join(missing, "; "))
	}
	return customer, lines, nil
}

func (s *IssuanceService) recordRemoteCall(ctx context.Context, op string, d time.Duration, success bool) {
	if s.metrics != nil {
		s.metrics.RecordRemoteCall(ctx, op, d, success)
	}
}

// discountAmount is the absolute discount derived from the unit price and a
// percentage
func discountAmount(unitPrice, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return decimal.Zero
	}
	return unitPrice.Mul(pct).Div(decimal.NewFromInt(100))
}

func issuanceLockKey(pointOfSaleID uuid.UUID) string {
	return pointOfSaleID.String()
}
