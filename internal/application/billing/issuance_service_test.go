package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/catalog"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/integration/integrationtest"
	"github.com/siatbridge/backend/internal/domain/partner"
	"github.com/siatbridge/backend/internal/domain/shared"
	"github.com/siatbridge/backend/internal/infrastructure/lock"
)

type issuanceFixture struct {
	invoiceRepo  *MockInvoiceRepository
	customerRepo *MockCustomerRepository
	productRepo  *MockProductRepository
	posRepo      *MockPointOfSaleRepository
	taxService   *integrationtest.MockTaxAuthorityService
	locker       *lock.MemoryLocker
	service      *IssuanceService
}

func newIssuanceFixture(t *testing.T) *issuanceFixture {
	t.Helper()
	f := &issuanceFixture{
		invoiceRepo:  new(MockInvoiceRepository),
		customerRepo: new(MockCustomerRepository),
		productRepo:  new(MockProductRepository),
		posRepo:      new(MockPointOfSaleRepository),
		taxService:   new(integrationtest.MockTaxAuthorityService),
		locker:       lock.NewMemoryLocker(),
	}
	f.service = NewIssuanceService(
		f.invoiceRepo, f.customerRepo, f.productRepo, f.posRepo,
		&stubResolver{endpoint: activeEndpoint()},
		f.taxService, f.locker, time.Minute, time.UTC,
	)
	return f
}

func mirroredCustomer() *partner.Customer {
	customer, _ := partner.NewCustomer("Maria Quispe", "4455667")
	remoteID := int64(301)
	customer.RemoteID = &remoteID
	return customer
}

func emittableProduct(code string) *catalog.Product {
	product, _ := catalog.NewProduct(code, "Canned coffee", decimal.NewFromInt(20))
	_ = product.Homologate(uuid.New(), uuid.New(), "471190")
	remoteID := int64(501)
	product.RemoteID = &remoteID
	return product
}

func registeredPOS() *billing.PointOfSale {
	remoteID := int64(7)
	return &billing.PointOfSale{
		BaseEntity: shared.NewBaseEntity(),
		Name:       "front desk",
		Code:       1,
		BranchID:   uuid.New(),
		RemoteID:   &remoteID,
	}
}

func draftInvoice(t *testing.T, customer *partner.Customer, pos *billing.PointOfSale, product *catalog.Product) *billing.Invoice {
	t.Helper()
	invoice, err := billing.NewInvoice(customer.ID, pos.ID, 1, time.Now())
	require.NoError(t, err)
	require.NoError(t, invoice.AddLine(product.ID, decimal.NewFromInt(2), product.UnitPrice, decimal.Zero))
	return invoice
}

func TestIssuanceService_CreateDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("creates draft with discounted lines", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		product := emittableProduct("COF-1")

		f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)

		resp, err := f.service.CreateDraft(ctx, CreateInvoiceRequest{
			CustomerID:        customer.ID,
			PointOfSaleID:     pos.ID,
			PaymentMethodCode: 1,
			Lines: []InvoiceLineRequest{{
				ProductID:   product.ID,
				Quantity:    decimal.NewFromInt(3),
				DiscountPct: decimal.NewFromInt(10),
			}},
		})

		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusDraft.String(), resp.Status)
		require.Len(t, resp.Lines, 1)
		// discount is 10% of the unit price of 20
		assert.True(t, resp.Lines[0].Discount.Equal(decimal.NewFromInt(2)))
		// 3 * 20 - 2
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(58)))
	})

	t.Run("fails when a product does not exist", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		missing := uuid.New()

		f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.productRepo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)

		_, err := f.service.CreateDraft(ctx, CreateInvoiceRequest{
			CustomerID:        customer.ID,
			PointOfSaleID:     pos.ID,
			PaymentMethodCode: 1,
			Lines:             []InvoiceLineRequest{{ProductID: missing, Quantity: decimal.NewFromInt(1)}},
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestIssuanceService_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("emits online and records the remote answer", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		product := emittableProduct("COF-1")
		invoice := draftInvoice(t, customer, pos, product)

		f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		f.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		f.taxService.On("VerifyCommunication", ctx, mock.Anything).Return(nil)
		f.taxService.On("EmitInvoice", ctx, mock.Anything, mock.MatchedBy(func(req *integration.EmitRequest) bool {
			return req.Online && req.PointOfSaleRemoteID == 7 && req.CustomerRemoteID == 301
		})).Return(&integration.EmitResult{
			StateCode:  "908",
			UniqueCode: "CUF-ABC",
			Number:     41,
			ViewURL:    "https://siat.example.com/ver/CUF-ABC",
		}, nil)
		f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)

		result, err := f.service.Issue(ctx, invoice.ID)

		require.NoError(t, err)
		assert.True(t, result.Issued)
		assert.False(t, result.ContingencyPrompt)
		assert.Equal(t, billing.InvoiceStatusEmitted.String(), result.Invoice.Status)
		assert.Equal(t, "CUF-ABC", result.Invoice.UniqueCode)
		require.NotNil(t, result.Invoice.Number)
		assert.Equal(t, int64(41), *result.Invoice.Number)
		f.taxService.AssertExpectations(t)
	})

	t.Run("failed probe prompts for contingency without emitting", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		product := emittableProduct("COF-1")
		invoice := draftInvoice(t, customer, pos, product)

		f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		f.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		f.taxService.On("VerifyCommunication", ctx, mock.Anything).Return(integration.ErrServiceUnavailable)

		result, err := f.service.Issue(ctx, invoice.ID)

		require.NoError(t, err)
		assert.False(t, result.Issued)
		assert.True(t, result.ContingencyPrompt)
		f.taxService.AssertNotCalled(t, "EmitInvoice", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, billing.InvoiceStatusDraft, invoice.Status)
	})

	t.Run("queues the invoice while in contingency", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		product := emittableProduct("COF-1")
		invoice := draftInvoice(t, customer, pos, product)

		eventID := uuid.New()
		require.NoError(t, pos.EnterContingency(eventID))

		f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		f.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		f.taxService.On("EmitInvoice", ctx, mock.Anything, mock.MatchedBy(func(req *integration.EmitRequest) bool {
			return !req.Online
		})).Return(&integration.EmitResult{StateCode: "902", UniqueCode: "CUF-OFF", Number: 42}, nil)
		f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)

		result, err := f.service.Issue(ctx, invoice.ID)

		require.NoError(t, err)
		assert.True(t, result.Issued)
		assert.Equal(t, billing.InvoiceStatusQueued.String(), result.Invoice.Status)
		assert.True(t, result.Invoice.Offline)
		// contingency emissions skip the probe
		f.taxService.AssertNotCalled(t, "VerifyCommunication", mock.Anything, mock.Anything)
	})

	t.Run("rejects concurrent issuance on the same point of sale", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		product := emittableProduct("COF-1")
		invoice := draftInvoice(t, customer, pos, product)

		held, err := f.locker.Acquire(ctx, issuanceLockKey(pos.ID), time.Minute)
		require.NoError(t, err)
		require.True(t, held)

		f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		f.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)

		_, err = f.service.Issue(ctx, invoice.ID)
		assert.ErrorIs(t, err, shared.ErrIssuanceInProgress)
	})

	t.Run("enumerates unhomologated products", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		product, _ := catalog.NewProduct("RAW-1", "Unprepared item", decimal.NewFromInt(5))
		invoice := draftInvoice(t, customer, pos, product)

		f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		f.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)

		_, err := f.service.Issue(ctx, invoice.ID)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
		assert.Contains(t, domainErr.Message, "RAW-1")
	})

	t.Run("rejects non-draft invoices", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		product := emittableProduct("COF-1")
		invoice := draftInvoice(t, customer, pos, product)
		require.NoError(t, invoice.MarkEmitted("908", "CUF-X", 9, ""))

		f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

		_, err := f.service.Issue(ctx, invoice.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("rejects invoices dated outside the fiscal day", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		product := emittableProduct("COF-1")
		invoice := draftInvoice(t, customer, pos, product)
		invoice.Date = time.Now().Add(-48 * time.Hour)

		f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

		_, err := f.service.Issue(ctx, invoice.ID)
		assert.ErrorIs(t, err, shared.ErrInvoiceDateOutOfRange)
	})

	t.Run("rejects unregistered points of sale", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		pos.RemoteID = nil
		product := emittableProduct("COF-1")
		invoice := draftInvoice(t, customer, pos, product)

		f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)

		_, err := f.service.Issue(ctx, invoice.ID)
		assert.ErrorIs(t, err, shared.ErrPointOfSaleUnregistered)
	})

	t.Run("remote rejection leaves the draft untouched", func(t *testing.T) {
		f := newIssuanceFixture(t)
		customer := mirroredCustomer()
		pos := registeredPOS()
		product := emittableProduct("COF-1")
		invoice := draftInvoice(t, customer, pos, product)

		f.invoiceRepo.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.customerRepo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		f.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		f.taxService.On("VerifyCommunication", ctx, mock.Anything).Return(nil)
		f.taxService.On("EmitInvoice", ctx, mock.Anything, mock.Anything).
			Return(nil, shared.ErrRemoteRejected)

		_, err := f.service.Issue(ctx, invoice.ID)

		assert.ErrorIs(t, err, shared.ErrRemoteRejected)
		assert.Equal(t, billing.InvoiceStatusDraft, invoice.Status)
		f.invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
