package sync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// FiscalCodeSync refreshes the authorization codes the tax service hands
// out: the daily code (CUFD) per registered point of sale and the system
// codes (CUIS) per branch.
type FiscalCodeSync struct {
	posRepo        billing.PointOfSaleRepository
	branchRepo     billing.BranchRepository
	dailyCodeRepo  billing.DailyCodeRepository
	systemCodeRepo billing.SystemCodeRepository
	endpoints      EndpointResolver
	taxService     integration.TaxAuthorityService
	logger         *zap.Logger
}

// NewFiscalCodeSync creates a new FiscalCodeSync
func NewFiscalCodeSync(
	posRepo billing.PointOfSaleRepository,
	branchRepo billing.BranchRepository,
	dailyCodeRepo billing.DailyCodeRepository,
	systemCodeRepo billing.SystemCodeRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	logger *zap.Logger,
) *FiscalCodeSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FiscalCodeSync{
		posRepo:        posRepo,
		branchRepo:     branchRepo,
		dailyCodeRepo:  dailyCodeRepo,
		systemCodeRepo: systemCodeRepo,
		endpoints:      endpoints,
		taxService:     taxService,
		logger:         logger,
	}
}

// SyncDailyCodes fetches a fresh daily code for every registered point of
// sale. Unregistered points of sale are skipped; a failed fetch aborts.
func (s *FiscalCodeSync) SyncDailyCodes(ctx context.Context) (int, error) {
	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return 0, err
	}

	points, err := s.posRepo.FindAll(ctx, shared.DefaultFilter())
	if err != nil {
		return 0, err
	}

	branches, err := s.branchRepo.FindAll(ctx, shared.DefaultFilter())
	if err != nil {
		return 0, err
	}
	branchByID := make(map[uuid.UUID]*billing.Branch, len(branches))
	for i := range branches {
		branchByID[branches[i].ID] = &branches[i]
	}

	refreshed := 0
	for i := range points {
		pos := &points[i]
		if !pos.IsRegistered() {
			s.logger.Debug("skipping unregistered point of sale",
				zap.String("point_of_sale_id", pos.ID.String()))
			continue
		}
		branch, ok := branchByID[pos.BranchID]
		if !ok || branch.RemoteID == nil {
			s.logger.Warn("skipping point of sale with unregistered branch",
				zap.String("point_of_sale_id", pos.ID.String()))
			continue
		}

		remote, err := s.taxService.FetchDailyCode(ctx, endpoint, *pos.RemoteID, *branch.RemoteID)
		if err != nil {
			return refreshed, err
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
			return refreshed, err
		}
		refreshed++
	}

	s.logger.Info("daily codes synced", zap.Int("refreshed", refreshed))
	return refreshed, nil
}

// SyncSystemCodes pulls the system code registrations and stores the ones
// whose branch is known locally
func (s *FiscalCodeSync) SyncSystemCodes(ctx context.Context) (int, error) {
	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return 0, err
	}

	codes, err := s.taxService.ListSystemCodes(ctx, endpoint)
	if err != nil {
		return 0, err
	}

	branches, err := s.branchRepo.FindAll(ctx, shared.DefaultFilter())
	if err != nil {
		return 0, err
	}
	byRemote := make(map[int64]*billing.Branch, len(branches))
	for i := range branches {
		if branches[i].RemoteID != nil {
			byRemote[*branches[i].RemoteID] = &branches[i]
		}
	}

	created := 0
	for _, remote := range codes {
		branch, ok := byRemote[remote.BranchRemoteID]
		if !ok {
			s.logger.Warn("system code for unknown branch",
				zap.Int64("branch_remote_id", remote.BranchRemoteID))
			continue
		}

		existing, err := s.systemCodeRepo.FindByBranch(ctx, branch.ID)
		if err != nil {
			return created, err
		}
		known := false
		for i := range existing {
			if existing[i].Code == remote.Code {
				known = true
				break
			}
		}
		if known {
			continue
		}

		code := &billing.SystemCode{
			BaseEntity: shared.NewBaseEntity(),
			BranchID:   branch.ID,
			Code:       remote.Code,
			ValidTo:    remote.ValidTo,
		}
		if err := s.systemCodeRepo.Save(ctx, code); err != nil {
			return created, err
		}
		created++
	}

	s.logger.Info("system codes synced", zap.Int("created", created))
	return created, nil
}
