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
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/integration/integrationtest"
	"github.com/siatbridge/backend/internal/domain/shared"
)

type contingencyFixture struct {
	posRepo     *MockPointOfSaleRepository
	branchRepo  *MockBranchRepository
	eventRepo   *MockEventRepository
	invoiceRepo *MockInvoiceRepository
	taxService  *integrationtest.MockTaxAuthorityService
	service     *ContingencyService
}

func newContingencyFixture(t *testing.T) *contingencyFixture {
	t.Helper()
	f := &contingencyFixture{
		posRepo:     new(MockPointOfSaleRepository),
		branchRepo:  new(MockBranchRepository),
		eventRepo:   new(MockEventRepository),
		invoiceRepo: new(MockInvoiceRepository),
		taxService:  new(integrationtest.MockTaxAuthorityService),
	}
	f.service = NewContingencyService(
		f.posRepo, f.branchRepo, f.eventRepo, f.invoiceRepo,
		&stubResolver{endpoint: activeEndpoint()},
		f.taxService, passTx{},
	)
	return f
}

func contingencyPOS() (*billing.PointOfSale, *billing.Branch) {
	branchRemote := int64(99)
	branch := &billing.Branch{
		BaseEntity: shared.NewBaseEntity(),
		Name:       "central",
		Code:       0,
		RemoteID:   &branchRemote,
	}
	posRemote := int64(7)
	pos := &billing.PointOfSale{
		BaseEntity: shared.NewBaseEntity(),
		Name:       "front desk",
		Code:       1,
		BranchID:   branch.ID,
		RemoteID:   &posRemote,
	}
	return pos, branch
}

func openEventFor(pos *billing.PointOfSale) *integration.ContingencyEvent {
	remoteEventID := int64(5001)
	return &integration.ContingencyEvent{
		BaseEntity:    shared.NewBaseEntity(),
		PointOfSaleID: pos.ID,
		Reason:        integration.ReasonInternetOutage,
		RemoteEventID: &remoteEventID,
		Status:        integration.EventStatusOpen,
		StartedAt:     time.Now().Add(-time.Hour),
	}
}

func queuedInvoice(t *testing.T, pos *billing.PointOfSale, event *integration.ContingencyEvent, number int64) billing.Invoice {
	t.Helper()
	invoice, err := billing.NewInvoice(uuid.New(), pos.ID, 1, time.Now())
	require.NoError(t, err)
	require.NoError(t, invoice.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(10), decimal.Zero))
	require.NoError(t, invoice.MarkQueued(event.ID, "902", "CUF-Q", number))
	return *invoice
}

func TestContingencyService_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("registers remotely then flips the flag", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, _ := contingencyPOS()

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.taxService.On("OpenEvent", ctx, mock.Anything, mock.MatchedBy(func(req *integration.OpenEventRequest) bool {
			return req.Reason == integration.ReasonInternetOutage && req.PointOfSaleRemoteID == 7
		})).Return(int64(5001), nil)

		var savedEvent *integration.ContingencyEvent
		f.eventRepo.On("Save", ctx, mock.AnythingOfType("*integration.ContingencyEvent")).
			Run(func(args mock.Arguments) {
				savedEvent = args.Get(1).(*integration.ContingencyEvent)
				// the flag must still be down when the event lands on disk
				assert.False(t, pos.Contingency)
			}).Return(nil)
		f.posRepo.On("Save", ctx, mock.AnythingOfType("*billing.PointOfSale")).Return(nil)

		resp, err := f.service.Open(ctx, pos.ID, OpenContingencyRequest{Reason: 1, Description: "fiber cut"})

		require.NoError(t, err)
		require.NotNil(t, savedEvent)
		require.NotNil(t, savedEvent.RemoteEventID)
		assert.Equal(t, int64(5001), *savedEvent.RemoteEventID)
		assert.True(t, pos.Contingency)
		require.NotNil(t, pos.OpenEventID)
		assert.Equal(t, savedEvent.ID, *pos.OpenEventID)
		assert.Equal(t, integration.EventStatusOpen.String(), resp.Status)
	})

	t.Run("bounded reasons use the closed-event registration", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, _ := contingencyPOS()
		started := time.Now().Add(-2 * time.Hour)
		ended := time.Now().Add(-time.Hour)

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.taxService.On("OpenClosedEvent", ctx, mock.Anything, mock.MatchedBy(func(req *integration.OpenEventRequest) bool {
			return req.Reason == integration.ReasonPowerOutage && req.EndedAt != nil
		})).Return(int64(5002), nil)
		f.eventRepo.On("Save", ctx, mock.AnythingOfType("*integration.ContingencyEvent")).Return(nil)
		f.posRepo.On("Save", ctx, mock.AnythingOfType("*billing.PointOfSale")).Return(nil)

		_, err := f.service.Open(ctx, pos.ID, OpenContingencyRequest{
			Reason:    7,
			StartedAt: &started,
			EndedAt:   &ended,
		})

		require.NoError(t, err)
		f.taxService.AssertNotCalled(t, "OpenEvent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a second open", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, _ := contingencyPOS()
		require.NoError(t, pos.EnterContingency(uuid.New()))

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)

		_, err := f.service.Open(ctx, pos.ID, OpenContingencyRequest{Reason: 1})
		assert.ErrorIs(t, err, shared.ErrContingencyAlreadyOpen)
	})

	t.Run("bounded reason without a time range is rejected", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, _ := contingencyPOS()

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)

		_, err := f.service.Open(ctx, pos.ID, OpenContingencyRequest{Reason: 5})
		assert.ErrorIs(t, err, integration.ErrEventTimeRangeMissing)
	})

	t.Run("remote failure leaves everything untouched", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, _ := contingencyPOS()

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.taxService.On("OpenEvent", ctx, mock.Anything, mock.Anything).
			Return(int64(0), shared.ErrRemoteRejected)

		_, err := f.service.Open(ctx, pos.ID, OpenContingencyRequest{Reason: 2})

		assert.ErrorIs(t, err, shared.ErrRemoteRejected)
		assert.False(t, pos.Contingency)
		f.eventRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.posRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("event and flag land in one transaction", func(t *testing.T) {
		f := newContingencyFixture(t)
		tx := &countingTx{}
		f.service = NewContingencyService(
			f.posRepo, f.branchRepo, f.eventRepo, f.invoiceRepo,
			&stubResolver{endpoint: activeEndpoint()},
			f.taxService, tx,
		)
		pos, _ := contingencyPOS()

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.taxService.On("OpenEvent", ctx, mock.Anything, mock.Anything).Return(int64(5001), nil)
		f.eventRepo.On("Save", ctx, mock.AnythingOfType("*integration.ContingencyEvent")).Return(nil)
		f.posRepo.On("Save", ctx, mock.AnythingOfType("*billing.PointOfSale")).Return(nil)

		_, err := f.service.Open(ctx, pos.ID, OpenContingencyRequest{Reason: 1})

		require.NoError(t, err)
		assert.Equal(t, 1, tx.calls)
	})

	t.Run("failed flag write rolls the event back", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, _ := contingencyPOS()

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.taxService.On("OpenEvent", ctx, mock.Anything, mock.Anything).Return(int64(5001), nil)
		f.eventRepo.On("Save", ctx, mock.AnythingOfType("*integration.ContingencyEvent")).Return(nil)
		f.posRepo.On("Save", ctx, mock.AnythingOfType("*billing.PointOfSale")).
			Return(shared.ErrConcurrencyConflict)

		_, err := f.service.Open(ctx, pos.ID, OpenContingencyRequest{Reason: 1})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestContingencyService_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("closes the event and confirms queued invoices", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, branch := contingencyPOS()
		event := openEventFor(pos)
		require.NoError(t, pos.EnterContingency(event.ID))
		queued := []billing.Invoice{
			queuedInvoice(t, pos, event, 10),
			queuedInvoice(t, pos, event, 11),
		}

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.eventRepo.On("FindOpenByPointOfSale", ctx, pos.ID).Return(event, nil)
		f.branchRepo.On("FindByID", ctx, pos.BranchID).Return(branch, nil)
		f.taxService.On("CloseEvent", ctx, mock.Anything, int64(5001)).Return(nil)
		f.invoiceRepo.On("FindQueuedByEvent", ctx, event.ID).Return(queued, nil)
		f.taxService.On("SubmitPackage", ctx, mock.Anything, mock.MatchedBy(func(req *integration.PackageRequest) bool {
			return req.EventRemoteID == 5001 && req.BranchRemoteID == 99 && req.PointOfSaleRemoteID == 7
		})).Return(&integration.PackageResult{StateCode: "908", Accepted: 2}, nil)
		f.invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)
		f.eventRepo.On("Save", mock.Anything, event).Return(nil)
		f.posRepo.On("Save", mock.Anything, pos).Return(nil)

		resp, err := f.service.Close(ctx, pos.ID)

		require.NoError(t, err)
		assert.Equal(t, integration.EventStatusClosed.String(), resp.Status)
		assert.Equal(t, 2, resp.InvoiceCount)
		assert.False(t, pos.Contingency)
		assert.Nil(t, pos.OpenEventID)
	})

	t.Run("closes with no queued invoices and skips the package", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, branch := contingencyPOS()
		event := openEventFor(pos)
		require.NoError(t, pos.EnterContingency(event.ID))

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.eventRepo.On("FindOpenByPointOfSale", ctx, pos.ID).Return(event, nil)
		f.branchRepo.On("FindByID", ctx, pos.BranchID).Return(branch, nil)
		f.taxService.On("CloseEvent", ctx, mock.Anything, int64(5001)).Return(nil)
		f.invoiceRepo.On("FindQueuedByEvent", ctx, event.ID).Return([]billing.Invoice{}, nil)
		f.eventRepo.On("Save", mock.Anything, event).Return(nil)
		f.posRepo.On("Save", mock.Anything, pos).Return(nil)

		resp, err := f.service.Close(ctx, pos.ID)

		require.NoError(t, err)
		assert.Equal(t, 0, resp.InvoiceCount)
		f.taxService.AssertNotCalled(t, "SubmitPackage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fails when no contingency is open", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, _ := contingencyPOS()

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)

		_, err := f.service.Close(ctx, pos.ID)
		assert.ErrorIs(t, err, shared.ErrContingencyNotOpen)
	})

	t.Run("remote close failure leaves state unchanged", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, branch := contingencyPOS()
		event := openEventFor(pos)
		require.NoError(t, pos.EnterContingency(event.ID))

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.eventRepo.On("FindOpenByPointOfSale", ctx, pos.ID).Return(event, nil)
		f.branchRepo.On("FindByID", ctx, pos.BranchID).Return(branch, nil)
		f.taxService.On("CloseEvent", ctx, mock.Anything, int64(5001)).Return(shared.ErrRemoteRejected)

		_, err := f.service.Close(ctx, pos.ID)

		assert.ErrorIs(t, err, shared.ErrRemoteRejected)
		assert.True(t, pos.Contingency)
		assert.True(t, event.IsOpen())
		f.posRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("fails when the event has no remote registration", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, _ := contingencyPOS()
		event := openEventFor(pos)
		event.RemoteEventID = nil
		require.NoError(t, pos.EnterContingency(event.ID))

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.eventRepo.On("FindOpenByPointOfSale", ctx, pos.ID).Return(event, nil)

		_, err := f.service.Close(ctx, pos.ID)
		assert.ErrorIs(t, err, integration.ErrEventNotRegistered)
	})
}

func TestContingencyService_Recover(t *testing.T) {
	ctx := context.Background()

	t.Run("no-op when contingency already cleared", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, _ := contingencyPOS()

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)

		err := f.service.Recover(ctx, pos.ID)

		require.NoError(t, err)
		f.taxService.AssertNotCalled(t, "VerifyCommunication", mock.Anything, mock.Anything)
	})

	t.Run("keeps waiting while the service is unreachable", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, _ := contingencyPOS()
		require.NoError(t, pos.EnterContingency(uuid.New()))

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.taxService.On("VerifyCommunication", ctx, mock.Anything).Return(integration.ErrServiceUnavailable)

		err := f.service.Recover(ctx, pos.ID)

		require.NoError(t, err)
		assert.True(t, pos.Contingency)
		f.taxService.AssertNotCalled(t, "CloseEvent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("closes the window once the service answers", func(t *testing.T) {
		f := newContingencyFixture(t)
		pos, branch := contingencyPOS()
		event := openEventFor(pos)
		require.NoError(t, pos.EnterContingency(event.ID))

		f.posRepo.On("FindByID", ctx, pos.ID).Return(pos, nil)
		f.taxService.On("VerifyCommunication", ctx, mock.Anything).Return(nil)
		f.eventRepo.On("FindOpenByPointOfSale", ctx, pos.ID).Return(event, nil)
		f.branchRepo.On("FindByID", ctx, pos.BranchID).Return(branch, nil)
		f.taxService.On("CloseEvent", ctx, mock.Anything, int64(5001)).Return(nil)
		f.invoiceRepo.On("FindQueuedByEvent", ctx, event.ID).Return([]billing.Invoice{}, nil)
		f.eventRepo.On("Save", mock.Anything, event).Return(nil)
		f.posRepo.On("Save", mock.Anything, pos).Return(nil)

		err := f.service.Recover(ctx, pos.ID)

		require.NoError(t, err)
		assert.False(t, pos.Contingency)
	})
}

func TestContingencyService_Probe(t *testing.T) {
	ctx := context.Background()

	t.Run("reachable", func(t *testing.T) {
		f := newContingencyFixture(t)
		f.taxService.On("VerifyCommunication", ctx, mock.Anything).Return(nil)

		ok, err := f.service.Probe(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unreachable is an answer, not an error", func(t *testing.T) {
		f := newContingencyFixture(t)
		f.taxService.On("VerifyCommunication", ctx, mock.Anything).Return(integration.ErrServiceUnavailable)

		ok, err := f.service.Probe(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("resolver failure surfaces", func(t *testing.T) {
		f := newContingencyFixture(t)
		f.service = NewContingencyService(
			f.posRepo, f.branchRepo, f.eventRepo, f.invoiceRepo,
			&stubResolver{err: shared.ErrEndpointNotConfigured},
			f.taxService, passTx{},
		)

		_, err := f.service.Probe(ctx)
		assert.ErrorIs(t, err, shared.ErrEndpointNotConfigured)
	})
}
