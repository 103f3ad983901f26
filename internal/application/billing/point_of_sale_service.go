package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// PointOfSaleService manages branches and points of sale. Creating a point
// of sale registers it with the tax service first; the local record is only
// written once the service assigned a remote ID.
type PointOfSaleService struct {
	posRepo       billing.PointOfSaleRepository
	branchRepo    billing.BranchRepository
	dailyCodeRepo billing.DailyCodeRepository
	endpoints     EndpointResolver
	taxService    integration.TaxAuthorityService
	logger        *zap.Logger
}

// PointOfSaleOption configures a PointOfSaleService
type PointOfSaleOption func(*PointOfSaleService)

// WithPointOfSaleLogger sets the logger
func WithPointOfSaleLogger(logger *zap.Logger) PointOfSaleOption {
	return func(s *PointOfSaleService) {
		s.logger = logger
	}
}

// NewPointOfSaleService creates a new PointOfSaleService
func NewPointOfSaleService(
	posRepo billing.PointOfSaleRepository,
	branchRepo billing.BranchRepository,
	dailyCodeRepo billing.DailyCodeRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	opts ...PointOfSaleOption,
) *PointOfSaleService {
	s := &PointOfSaleService{
		posRepo:       posRepo,
		branchRepo:    branchRepo,
		dailyCodeRepo: dailyCodeRepo,
		endpoints:     endpoints,
		taxService:    taxService,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBranch stores a company branch
func (s *PointOfSaleService) CreateBranch(ctx context.Context, req CreateBranchRequest) (*BranchResponse, error) {
	if _, err := s.branchRepo.FindByCode(ctx, req.Code); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Branch with this code already exists")
	}

	branch := &billing.Branch{
		BaseEntity: shared.NewBaseEntity(),
		Name:       req.Name,
		Code:       req.Code,
		Address:    req.Address,
		Phone:      req.Phone,
		RemoteID:   req.RemoteID,
	}
	if err := s.branchRepo.Save(ctx, branch); err != nil {
		return nil, err
	}
	return ToBranchResponse(branch), nil
}

// ListBranches lists all branches
func (s *PointOfSaleService) ListBranches(ctx context.Context) ([]BranchResponse, error) {
	branches, err := s.branchRepo.FindAll(ctx, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}
	responses := make([]BranchResponse, 0, len(branches))
	for i := range branches {
		responses = append(responses, *ToBranchResponse(&branches[i]))
	}
	return responses, nil
}

// Create registers a point of sale with the tax service and stores it
// locally with the remote ID the service assigned
func (s *PointOfSaleService) Create(ctx context.Context, req CreatePointOfSaleRequest) (*PointOfSaleResponse, error) {
	branch, err := s.branchRepo.FindByID(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}
	if branch.RemoteID == nil {
		return nil, shared.NewDomainError("BRANCH_UNREGISTERED", "Branch has no remote registration")
	}

	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	remoteID, err := s.taxService.RegisterPointOfSale(ctx, endpoint, &integration.RemotePointOfSale{
		Name:           req.Name,
		TypeCode:       req.TypeCode,
		BranchRemoteID: *branch.RemoteID,
	})
	if err != nil {
		return nil, err
	}

	pos := &billing.PointOfSale{
		BaseEntity: shared.NewBaseEntity(),
		Name:       req.Name,
		Code:       req.Code,
		TypeCode:   req.TypeCode,
		BranchID:   branch.ID,
		RemoteID:   &remoteID,
	}
	if err := s.posRepo.Save(ctx, pos); err != nil {
		return nil, err
	}

	s.logger.Info("point of sale registered",
		zap.String("point_of_sale_id", pos.ID.String()),
		zap.Int64("remote_id", remoteID))
	return ToPointOfSaleResponse(pos), nil
}

// GetByID returns one point of sale
func (s *PointOfSaleService) GetByID(ctx context.Context, id uuid.UUID) (*PointOfSaleResponse, error) {
	pos, err := s.posRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToPointOfSaleResponse(pos), nil
}

// List lists all points of sale
func (s *PointOfSaleService) List(ctx context.Context) ([]PointOfSaleResponse, error) {
	list, err := s.posRepo.FindAll(ctx, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}
	return ToPointOfSaleResponses(list), nil
}

// CurrentDailyCode returns the current daily authorization code of a point
// of sale
func (s *PointOfSaleService) CurrentDailyCode(ctx context.Context, pointOfSaleID uuid.UUID) (*DailyCodeResponse, error) {
	code, err := s.dailyCodeRepo.FindCurrentByPointOfSale(ctx, pointOfSaleID)
	if err != nil {
		return nil, err
	}
	return ToDailyCodeResponse(code), nil
}

// RefreshDailyCode fetches a fresh daily authorization code from the tax
// service and retires the previous one
func (s *PointOfSaleService) RefreshDailyCode(ctx context.Context, pointOfSaleID uuid.UUID) (*DailyCodeResponse, error) {
	pos, err := s.posRepo.FindByID(ctx, pointOfSaleID)
	if err != nil {
		return nil, err
	}
	if !pos.IsRegistered() {
		return nil, shared.ErrPointOfSaleUnregistered
	}

	branch, err := s.branchRepo.FindByID(ctx, pos.BranchID)
	if err != nil {
		return nil, err
	}
	if branch.RemoteID == nil {
		return nil, shared.NewDomainError("BRANCH_UNREGISTERED", "Branch has no remote registration")
	}

	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	remote, err := s.taxService.FetchDailyCode(ctx, endpoint, *pos.RemoteID, *branch.RemoteID)
	if err != nil {
		return nil, err
	}

	code := &billing.DailyCode{
		BaseEntity:    shared.NewBaseEntity(),
		PointOfSaleID: pos.ID,
		Code:          remote.Code,
		ControlCode:   remote.ControlCode,
		Address:       remote.Address,
		ValidFrom:     remote.ValidFrom,
		ValidTo:       remote.ValidTo,
		Current:       true,
	}
	if err := s.dailyCodeRepo.ReplaceCurrent(ctx, code); err != nil {
		return nil, err
	}

	s.logger.Info("daily code refreshed",
		zap.String("point_of_sale_id", pos.ID.String()),
		zap.Time("valid_to", remote.ValidTo))
	return ToDailyCodeResponse(code), nil
}

// ExpiredDailyCode reports whether the current daily code of a point of
// sale has expired at the given time
func (s *PointOfSaleService) ExpiredDailyCode(ctx context.Context, pointOfSaleID uuid.UUID, at time.Time) (bool, error) {
	code, err := s.dailyCodeRepo.FindCurrentByPointOfSale(ctx, pointOfSaleID)
	if err != nil {
		return false, err
	}
	return code.IsExpired(at), nil
}
