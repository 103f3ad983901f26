package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/integration/integrationtest"
	"github.com/siatbridge/backend/internal/domain/shared"
	"github.com/siatbridge/backend/internal/infrastructure/storage"
)

func archivableInvoice(t *testing.T) *billing.Invoice {
	t.Helper()
	invoice, err := billing.NewInvoice(uuid.New(), uuid.New(), 1, time.Now())
	require.NoError(t, err)
	require.NoError(t, invoice.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(50), decimal.Zero))
	require.NoError(t, invoice.MarkEmitted("908", "CUF-DOC", 23, ""))
	return invoice
}

func currentDailyCode(pointOfSaleID uuid.UUID) *billing.DailyCode {
	return &billing.DailyCode{
		BaseEntity:    shared.NewBaseEntity(),
		PointOfSaleID: pointOfSaleID,
		Code:          "CUFD-XYZ",
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidTo:       time.Now().Add(23 * time.Hour),
		Current:       true,
	}
}

func TestDocumentService_Fetch(t *testing.T) {
	ctx := context.Background()
	pdf := []byte("%PDF-1.4 test")

	t.Run("fetches from the tax service and archives", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		dailyCodeRepo := new(MockDailyCodeRepository)
		taxService := new(integrationtest.MockTaxAuthorityService)
		archive := storage.NewMemoryArchive()
		svc := NewDocumentService(invoiceRepo, dailyCodeRepo, &stubResolver{endpoint: activeEndpoint()}, taxService, archive)

		invoice := archivableInvoice(t)
		invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		dailyCodeRepo.On("FindCurrentByPointOfSale", ctx, invoice.PointOfSaleID).
			Return(currentDailyCode(invoice.PointOfSaleID), nil)
		taxService.On("DownloadDocument", ctx, mock.Anything, "CUFD-XYZ", int64(23)).Return(pdf, nil)

		result, err := svc.Fetch(ctx, invoice.ID, true)

		require.NoError(t, err)
		assert.Equal(t, pdf, result.Content)
		assert.Equal(t, "application/pdf", result.ContentType)
		assert.Equal(t, "invoice-23.pdf", result.FileName)
		assert.True(t, result.Inline)

		key := fmt.Sprintf("invoices/%s/23.pdf", invoice.PointOfSaleID)
		stored, ok := archive.Get(key)
		require.True(t, ok)
		assert.Equal(t, pdf, stored)
	})

	t.Run("answers from the archive on later requests", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		dailyCodeRepo := new(MockDailyCodeRepository)
		taxService := new(integrationtest.MockTaxAuthorityService)
		archive := storage.NewMemoryArchive()
		svc := NewDocumentService(invoiceRepo, dailyCodeRepo, &stubResolver{endpoint: activeEndpoint()}, taxService, archive)

		invoice := archivableInvoice(t)
		key := fmt.Sprintf("invoices/%s/23.pdf", invoice.PointOfSaleID)
		require.NoError(t, archive.Store(ctx, key, pdf, "application/pdf"))

		invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

		result, err := svc.Fetch(ctx, invoice.ID, false)

		require.NoError(t, err)
		assert.Empty(t, result.Content)
		assert.Contains(t, result.ArchiveURL, key)
		assert.False(t, result.Inline)
		taxService.AssertNotCalled(t, "DownloadDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("works without an archive", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		dailyCodeRepo := new(MockDailyCodeRepository)
		taxService := new(integrationtest.MockTaxAuthorityService)
		svc := NewDocumentService(invoiceRepo, dailyCodeRepo, &stubResolver{endpoint: activeEndpoint()}, taxService, nil)

		invoice := archivableInvoice(t)
		invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		dailyCodeRepo.On("FindCurrentByPointOfSale", ctx, invoice.PointOfSaleID).
			Return(currentDailyCode(invoice.PointOfSaleID), nil)
		taxService.On("DownloadDocument", ctx, mock.Anything, "CUFD-XYZ", int64(23)).Return(pdf, nil)

		result, err := svc.Fetch(ctx, invoice.ID, true)
		require.NoError(t, err)
		assert.Equal(t, pdf, result.Content)
	})

	t.Run("drafts have no document", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		svc := NewDocumentService(invoiceRepo, new(MockDailyCodeRepository), &stubResolver{endpoint: activeEndpoint()}, new(integrationtest.MockTaxAuthorityService), nil)

		invoice, err := billing.NewInvoice(uuid.New(), uuid.New(), 1, time.Now())
		require.NoError(t, err)
		invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

		_, err = svc.Fetch(ctx, invoice.ID, true)
		assert.ErrorIs(t, err, shared.ErrDocumentNotAvailable)
	})

	t.Run("missing daily code surfaces", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		dailyCodeRepo := new(MockDailyCodeRepository)
		svc := NewDocumentService(invoiceRepo, dailyCodeRepo, &stubResolver{endpoint: activeEndpoint()}, new(integrationtest.MockTaxAuthorityService), nil)

		invoice := archivableInvoice(t)
		invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		dailyCodeRepo.On("FindCurrentByPointOfSale", ctx, invoice.PointOfSaleID).
			Return(nil, shared.ErrDailyCodeMissing)

		_, err := svc.Fetch(ctx, invoice.ID, true)
		assert.ErrorIs(t, err, shared.ErrDailyCodeMissing)
	})
}
