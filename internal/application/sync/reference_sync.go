package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/catalog"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// EndpointResolver yields the single active tax service endpoint
type EndpointResolver interface {
	Resolve(ctx context.Context) (*integration.ServiceEndpoint, error)
}

// ReferenceSync mirrors the tax authority reference catalogs locally. Rows
// are matched by remote ID within a kind; the sync only creates what is
// missing and never deletes, so local rows survive remote removals.
type ReferenceSync struct {
	referenceRepo catalog.ReferenceRepository
	endpoints     EndpointResolver
	taxService    integration.TaxAuthorityService
	logger        *zap.Logger
}

// NewReferenceSync creates a new ReferenceSync
func NewReferenceSync(
	referenceRepo catalog.ReferenceRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	logger *zap.Logger,
) *ReferenceSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceSync{
		referenceRepo: referenceRepo,
		endpoints:     endpoints,
		taxService:    taxService,
		logger:        logger,
	}
}

// SyncKind pulls one reference catalog and creates the missing rows in a
// single batch. It returns how many rows were created.
func (s *ReferenceSync) SyncKind(ctx context.Context, kind catalog.ReferenceKind) (int, error) {
	if !kind.IsValid() {
		return 0, shared.ErrReferenceKindUnknown
	}

	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := s.taxService.ListReference(ctx, endpoint, kind.RemotePath())
	if err != nil {
		return 0, err
	}

	existing, err := s.referenceRepo.FindByKind(ctx, kind)
	if err != nil {
		return 0, err
	}
	known := make(map[int64]struct{}, len(existing))
	for _, entry := range existing {
		known[entry.RemoteID] = struct{}{}
	}

	var missing []catalog.ReferenceEntry
	for _, row := range rows {
		if _, ok := known[row.RemoteID]; ok {
			continue
		}
		missing = append(missing, catalog.ReferenceEntry{
			BaseEntity:  shared.NewBaseEntity(),
			Kind:        kind,
			RemoteID:    row.RemoteID,
			Code:        row.Code,
			Description: row.Description,
		})
	}

	if len(missing) == 0 {
		return 0, nil
	}
	if err := s.referenceRepo.SaveBatch(ctx, missing); err != nil {
		return 0, err
	}

	s.logger.Info("reference catalog synced",
		zap.String("kind", kind.String()),
		zap.Int("created", len(missing)),
		zap.Int("remote_total", len(rows)))
	return len(missing), nil
}

// SyncAll walks every known catalog in order. The first failure aborts the
// walk and surfaces; catalogs already synced stay synced.
func (s *ReferenceSync) SyncAll(ctx context.Context) (map[catalog.ReferenceKind]int, error) {
	created := make(map[catalog.ReferenceKind]int, len(catalog.AllReferenceKinds))
	for _, kind := range catalog.AllReferenceKinds {
		n, err := s.SyncKind(ctx, kind)
		if err != nil {
			return created, err
		}
		created[kind] = n
	}
	return created, nil
}

// List returns the locally mirrored rows of one catalog
func (s *ReferenceSync) List(ctx context.Context, kind catalog.ReferenceKind) ([]catalog.ReferenceEntry, error) {
	if !kind.IsValid() {
		return nil, shared.ErrReferenceKindUnknown
	}
	return s.referenceRepo.FindByKind(ctx, kind)
}
