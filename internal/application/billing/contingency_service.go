package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
	"github.com/siatbridge/backend/internal/infrastructure/telemetry"
)

// ContingencyService runs the offline-operation state machine for points of
// sale. Opening declares a significant event with the tax service and only
// then flips the point of sale into contingency mode; closing ends the
// remote event, submits the package of invoices queued during the window
// and clears the flag in one transaction.
type ContingencyService struct {
	posRepo     billing.PointOfSaleRepository
	branchRepo  billing.BranchRepository
	eventRepo   integration.ContingencyEventRepository
	invoiceRepo billing.InvoiceRepository
	endpoints   EndpointResolver
	taxService  integration.TaxAuthorityService
	tx          shared.TxManager
	logger      *zap.Logger
	metrics     *telemetry.BridgeMetrics
	now         func() time.Time
}

// ContingencyOption configures a ContingencyService
type ContingencyOption func(*ContingencyService)

// WithContingencyLogger sets the logger
func WithContingencyLogger(logger *zap.Logger) ContingencyOption {
	return func(s *ContingencyService) {
		s.logger = logger
	}
}

// WithContingencyMetrics sets the bridge metrics recorder
func WithContingencyMetrics(metrics *telemetry.BridgeMetrics) ContingencyOption {
	return func(s *ContingencyService) {
		s.metrics = metrics
	}
}

// WithContingencyClock sets the time source, used by tests
func WithContingencyClock(now func() time.Time) ContingencyOption {
	return func(s *ContingencyService) {
		s.now = now
	}
}

// NewContingencyService creates a new ContingencyService
func NewContingencyService(
	posRepo billing.PointOfSaleRepository,
	branchRepo billing.BranchRepository,
	eventRepo integration.ContingencyEventRepository,
	invoiceRepo billing.InvoiceRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	tx shared.TxManager,
	opts ...ContingencyOption,
) *ContingencyService {
	s := &ContingencyService{
		posRepo:     posRepo,
		branchRepo:  branchRepo,
		eventRepo:   eventRepo,
		invoiceRepo: invoiceRepo,
		endpoints:   endpoints,
		taxService:  taxService,
		tx:          tx,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Probe reports whether the tax service is reachable through the active
// endpoint. A failed probe is a normal answer, not an error.
func (s *ContingencyService) Probe(ctx context.Context) (bool, error) {
	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return false, err
	}
	if err := s.taxService.VerifyCommunication(ctx, endpoint); err != nil {
		s.logger.Debug("connectivity probe failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

// Open declares a contingency event for a point of sale. The remote
// registration happens first; the event record and the contingency flag
// are then written in a single transaction so a registered event can
// never exist without the flag the recovery loop scans for.
func (s *ContingencyService) Open(ctx context.Context, pointOfSaleID uuid.UUID, req OpenContingencyRequest) (*ContingencyEventResponse, error) {
	pos, err := s.posRepo.FindByID(ctx, pointOfSaleID)
	if err != nil {
		return nil, err
	}
	if pos.Contingency {
		return nil, shared.ErrContingencyAlreadyOpen
	}
	if !pos.IsRegistered() {
		return nil, shared.ErrPointOfSaleUnregistered
	}

	startedAt := s.now()
	if req.StartedAt != nil {
		startedAt = *req.StartedAt
	}
	event := &integration.ContingencyEvent{
		BaseEntity:    shared.NewBaseEntity(),
		PointOfSaleID: pos.ID,
		Reason:        integration.ReasonCode(req.Reason),
		Description:   req.Description,
		Status:        integration.EventStatusOpen,
		StartedAt:     startedAt,
		EndedAt:       req.EndedAt,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	openReq := &integration.OpenEventRequest{
		PointOfSaleRemoteID: *pos.RemoteID,
		Reason:              event.Reason,
		Description:         event.Description,
		StartedAt:           event.StartedAt,
		EndedAt:             event.EndedAt,
	}
	var remoteEventID int64
	start := s.now()
	if event.Reason.RequiresTimeRange() {
		remoteEventID, err = s.taxService.OpenClosedEvent(ctx, endpoint, openReq)
	} else {
		remoteEventID, err = s.taxService.OpenEvent(ctx, endpoint, openReq)
	}
	s.recordRemoteCall(ctx, "open-event", s.now().Sub(start), err == nil)
	if err != nil {
		return nil, err
	}

	// The remote registration and the flag flip land together, so the
	// recovery loop never misses an open event it cannot see the flag for
	event.RemoteEventID = &remoteEventID
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.eventRepo.Save(txCtx, event); err != nil {
			return err
		}
		if err := pos.EnterContingency(event.ID); err != nil {
			return err
		}
		return s.posRepo.Save(txCtx, pos)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordContingencyOpened(ctx, pos.ID, int(event.Reason))
	}
	s.logger.Info("contingency event opened",
		zap.String("point_of_sale_id", pos.ID.String()),
		zap.Int("reason", int(event.Reason)),
		zap.Int64("remote_event_id", remoteEventID))

	return ToContingencyEventResponse(event), nil
}

// Close ends the open contingency event for a point of sale. The remote
// event is closed first; then the queued invoices go out as one package and
// the local event, the invoices and the point of sale flag are updated in a
// single transaction.
func (s *ContingencyService) Close(ctx context.Context, pointOfSaleID uuid.UUID) (*ContingencyEventResponse, error) {
	pos, err := s.posRepo.FindByID(ctx, pointOfSaleID)
	if err != nil {
		return nil, err
	}
	if !pos.Contingency {
		return nil, shared.ErrContingencyNotOpen
	}

	event, err := s.eventRepo.FindOpenByPointOfSale(ctx, pos.ID)
	if err != nil {
		return nil, err
	}
	if event.RemoteEventID == nil {
		return nil, integration.ErrEventNotRegistered
	}

	branch, err := s.branchRepo.FindByID(ctx, pos.BranchID)
	if err != nil {
		return nil, err
	}
	if branch.RemoteID == nil {
		return nil, shared.ErrPointOfSaleUnregistered
	}

	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	start := s.now()
	err = s.taxService.CloseEvent(ctx, endpoint, *event.RemoteEventID)
	s.recordRemoteCall(ctx, "close-event", s.now().Sub(start), err == nil)
	if err != nil {
		return nil, err
	}

	queued, err := s.invoiceRepo.FindQueuedByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	stateCode := ""
	if len(queued) > 0 {
		pkgReq := &integration.PackageRequest{
			PointOfSaleRemoteID: *pos.RemoteID,
			BranchRemoteID:      *branch.RemoteID,
			EventRemoteID:       *event.RemoteEventID,
		}
		start = s.now()
		pkg, err := s.taxService.SubmitPackage(ctx, endpoint, pkgReq)
		s.recordRemoteCall(ctx, "submit-package", s.now().Sub(start), err == nil)
		if err != nil {
			return nil, err
		}
		stateCode = pkg.StateCode
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		for i := range queued {
			if err := queued[i].ConfirmQueued(stateCode); err != nil {
				return err
			}
			if err := s.invoiceRepo.Save(txCtx, &queued[i]); err != nil {
				return err
			}
		}
		event.Close(s.now(), len(queued))
		if err := s.eventRepo.Save(txCtx, event); err != nil {
			return err
		}
		if err := pos.LeaveContingency(); err != nil {
			return err
		}
		return s.posRepo.Save(txCtx, pos)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contingency event closed",
		zap.String("point_of_sale_id", pos.ID.String()),
		zap.Int64("remote_event_id", *event.RemoteEventID),
		zap.Int("queued_invoices", len(queued)))

	return ToContingencyEventResponse(event), nil
}

// Recover probes the tax service and closes the contingency window once it
// answers. A point of sale that already left contingency is a no-op, so a
// late recovery timer never fails.
func (s *ContingencyService) Recover(ctx context.Context, pointOfSaleID uuid.UUID) error {
	pos, err := s.posRepo.FindByID(ctx, pointOfSaleID)
	if err != nil {
		return err
	}
	if !pos.Contingency {
		return nil
	}

	reachable, err := s.Probe(ctx)
	if err != nil {
		return err
	}
	if !reachable {
		s.logger.Debug("recovery probe: service still unreachable",
			zap.String("point_of_sale_id", pos.ID.String()))
		return nil
	}

	if _, err := s.Close(ctx, pos.ID); err != nil {
		// Cleared concurrently between the probe and the close
		if errors.Is(err, shared.ErrContingencyNotOpen) {
			return nil
		}
		return err
	}
	return nil
}

// OpenEvent returns the open contingency event for a point of sale, if any
func (s *ContingencyService) OpenEvent(ctx context.Context, pointOfSaleID uuid.UUID) (*ContingencyEventResponse, error) {
	event, err := s.eventRepo.FindOpenByPointOfSale(ctx, pointOfSaleID)
	if err != nil {
		return nil, err
	}
	return ToContingencyEventResponse(event), nil
}

// History lists the contingency events of a point of sale
func (s *ContingencyService) History(ctx context.Context, pointOfSaleID uuid.UUID, page, pageSize int) (*shared.Paginated[ContingencyEventResponse], error) {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}

	events, err := s.eventRepo.FindByPointOfSale(ctx, pointOfSaleID, f)
	if err != nil {
		return nil, err
	}
	f.Filters["point_of_sale_id"] = pointOfSaleID
	total, err := s.eventRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	responses := make([]ContingencyEventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, *ToContingencyEventResponse(&events[i]))
	}
	result := shared.NewPaginated(responses, total, f.Page, f.PageSize)
	return &result, nil
}

func (s *ContingencyService) recordRemoteCall(ctx context.Context, op string, d time.Duration, success bool) {
	if s.metrics != nil {
		s.metrics.RecordRemoteCall(ctx, op, d, success)
	}
}
