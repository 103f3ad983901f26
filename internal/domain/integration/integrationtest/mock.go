// Package integrationtest provides test doubles for the tax service port.
package integrationtest

import (
	"context"

	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/stretchr/testify/mock"
)

// MockTaxAuthorityService is a testify mock of integration.TaxAuthorityService
type MockTaxAuthorityService struct {
	mock.Mock
}

var _ integration.TaxAuthorityService = (*MockTaxAuthorityService)(nil)

func (m *MockTaxAuthorityService) VerifyCommunication(ctx context.Context, ep *integration.ServiceEndpoint) error {
	args := m.Called(ctx, ep)
	return args.Error(0)
}

func (m *MockTaxAuthorityService) EmitInvoice(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.EmitRequest) (*integration.EmitResult, error) {
	args := m.Called(ctx, ep, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.EmitResult), args.Error(1)
}

func (m *MockTaxAuthorityService) VoidInvoice(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.VoidRequest) error {
	args := m.Called(ctx, ep, req)
	return args.Error(0)
}

func (m *MockTaxAuthorityService) ReverseVoid(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.VoidRequest) error {
	args := m.Called(ctx, ep, req)
	return args.Error(0)
}

func (m *MockTaxAuthorityService) DownloadDocument(ctx context.Context, ep *integration.ServiceEndpoint, dailyCode string, number int64) ([]byte, error) {
	args := m.Called(ctx, ep, dailyCode, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTaxAuthorityService) OpenEvent(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.OpenEventRequest) (int64, error) {
	args := m.Called(ctx, ep, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaxAuthorityService) OpenClosedEvent(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.OpenEventRequest) (int64, error) {
	args := m.Called(ctx, ep, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaxAuthorityService) CloseEvent(ctx context.Context, ep *integration.ServiceEndpoint, remoteEventID int64) error {
	args := m.Called(ctx, ep, remoteEventID)
	return args.Error(0)
}

func (m *MockTaxAuthorityService) SubmitPackage(ctx context.Context, ep *integration.ServiceEndpoint, req *integration.PackageRequest) (*integration.PackageResult, error) {
	args := m.Called(ctx, ep, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.PackageResult), args.Error(1)
}

func (m *MockTaxAuthorityService) ListReference(ctx context.Context, ep *integration.ServiceEndpoint, kind string) ([]integration.ReferenceRow, error) {
	args := m.Called(ctx, ep, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ReferenceRow), args.Error(1)
}

func (m *MockTaxAuthorityService) ListClients(ctx context.Context, ep *integration.ServiceEndpoint) ([]integration.RemoteClient, error) {
	args := m.Called(ctx, ep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteClient), args.Error(1)
}

func (m *MockTaxAuthorityService) CreateClient(ctx context.Context, ep *integration.ServiceEndpoint, client *integration.RemoteClient) (int64, error) {
	args := m.Called(ctx, ep, client)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaxAuthorityService) UpdateClient(ctx context.Context, ep *integration.ServiceEndpoint, client *integration.RemoteClient) error {
	args := m.Called(ctx, ep, client)
	return args.Error(0)
}

func (m *MockTaxAuthorityService) DeleteClient(ctx context.Context, ep *integration.ServiceEndpoint, remoteID int64) error {
	args := m.Called(ctx, ep, remoteID)
	return args.Error(0)
}

func (m *MockTaxAuthorityService) ListItems(ctx context.Context, ep *integration.ServiceEndpoint) ([]integration.RemoteItem, error) {
	args := m.Called(ctx, ep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteItem), args.Error(1)
}

func (m *MockTaxAuthorityService) CreateItem(ctx context.Context, ep *integration.ServiceEndpoint, item *integration.RemoteItem) (int64, error) {
	args := m.Called(ctx, ep, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaxAuthorityService) UpdateItem(ctx context.Context, ep *integration.ServiceEndpoint, item *integration.RemoteItem) error {
	args := m.Called(ctx, ep, item)
	return args.Error(0)
}

func (m *MockTaxAuthorityService) RegisterPointOfSale(ctx context.Context, ep *integration.ServiceEndpoint, pos *integration.RemotePointOfSale) (int64, error) {
	args := m.Called(ctx, ep, pos)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaxAuthorityService) FetchDailyCode(ctx context.Context, ep *integration.ServiceEndpoint, posRemoteID, branchRemoteID int64) (*integration.RemoteDailyCode, error) {
	args := m.Called(ctx, ep, posRemoteID, branchRemoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RemoteDailyCode), args.Error(1)
}

func (m *MockTaxAuthorityService) ListSystemCodes(ctx context.Context, ep *integration.ServiceEndpoint) ([]integration.RemoteSystemCode, error) {
	args := m.Called(ctx, ep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteSystemCode), args.Error(1)
}
