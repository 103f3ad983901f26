package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
)

const documentContentType = "application/pdf"

// DocumentService fetches rendered invoice documents from the tax service
// and keeps a copy in the archive. Once archived, later requests answer
// with a download URL instead of hitting the tax service again.
type DocumentService struct {
	invoiceRepo   billing.InvoiceRepository
	dailyCodeRepo billing.DailyCodeRepository
	endpoints     EndpointResolver
	taxService    integration.TaxAuthorityService
	archive       billing.DocumentArchive
	urlExpiry     time.Duration
	logger        *zap.Logger
}

// DocumentOption configures a DocumentService
type DocumentOption func(*DocumentService)

// WithDocumentLogger sets the logger
func WithDocumentLogger(logger *zap.Logger) DocumentOption {
	return func(s *DocumentService) {
		s.logger = logger
	}
}

// WithDocumentURLExpiry sets how long archive download URLs stay valid
func WithDocumentURLExpiry(d time.Duration) DocumentOption {
	return func(s *DocumentService) {
		s.urlExpiry = d
	}
}

// NewDocumentService creates a new DocumentService. The archive may be nil,
// in which case every request goes to the tax service.
func NewDocumentService(
	invoiceRepo billing.InvoiceRepository,
	dailyCodeRepo billing.DailyCodeRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	archive billing.DocumentArchive,
	opts ...DocumentOption,
) *DocumentService {
	s := &DocumentService{
		invoiceRepo:   invoiceRepo,
		dailyCodeRepo: dailyCodeRepo,
		endpoints:     endpoints,
		taxService:    taxService,
		archive:       archive,
		urlExpiry:     15 * time.Minute,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns the rendered PDF for an emitted invoice. Inline requests
// are previews; non-inline requests are downloads. The caller decides the
// Content-Disposition from the Inline flag.
func (s *DocumentService) Fetch(ctx context.Context, invoiceID uuid.UUID, inline bool) (*DocumentResult, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Number == nil || invoice.Status == billing.InvoiceStatusDraft {
		return nil, shared.ErrDocumentNotAvailable
	}

	result := &DocumentResult{
		ContentType: documentContentType,
		FileName:    fmt.Sprintf("invoice-%d.pdf", *invoice.Number),
		Inline:      inline,
	}
	key := documentKey(invoice)

	if s.archive != nil {
		exists, err := s.archive.Exists(ctx, key)
		if err != nil {
			s.logger.Warn("document archive lookup failed", zap.String("key", key), zap.Error(err))
		} else if exists {
			url, _, err := s.archive.DownloadURL(ctx, key, s.urlExpiry)
			if err == nil {
				result.ArchiveURL = url
				return result, nil
			}
			s.logger.Warn("document archive URL failed", zap.String("key", key), zap.Error(err))
		}
	}

	code, err := s.dailyCodeRepo.FindCurrentByPointOfSale(ctx, invoice.PointOfSaleID)
	if err != nil {
		return nil, err
	}
	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	content, err := s.taxService.DownloadDocument(ctx, endpoint, code.Code, *invoice.Number)
	if err != nil {
		return nil, err
	}
	result.Content = content

	if s.archive != nil {
		if err := s.archive.Store(ctx, key, content, documentContentType); err != nil {
			// The document was fetched; archiving is best effort
			s.logger.Warn("document archive store failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

func documentKey(invoice *billing.Invoice) string {
	return fmt.Sprintf("invoices/%s/%d.pdf", invoice.PointOfSaleID, *invoice.Number)
}
