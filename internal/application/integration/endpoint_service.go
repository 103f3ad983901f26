package integration

import (
	"context"

	"github.com/google/uuid"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// EndpointService handles service endpoint configuration operations
type EndpointService struct {
	endpointRepo integration.EndpointRepository
	taxService   integration.TaxAuthorityService
}

// NewEndpointService creates a new EndpointService
func NewEndpointService(endpointRepo integration.EndpointRepository, taxService integration.TaxAuthorityService) *EndpointService {
	return &EndpointService{
		endpointRepo: endpointRepo,
		taxService:   taxService,
	}
}

// Create registers a new service endpoint. Activating the new endpoint is
// rejected while another endpoint is already active.
func (s *EndpointService) Create(ctx context.Context, req CreateEndpointRequest) (*EndpointResponse, error) {
	endpoint := &integration.ServiceEndpoint{
		BaseEntity: shared.NewBaseEntity(),
		Name:       req.Name,
		BaseURL:    req.BaseURL,
		Token:      req.Token,
		Kind:       integration.EndpointKind(req.Kind),
		Active:     req.Active,
	}
	if err := endpoint.Validate(); err != nil {
		return nil, err
	}

	if endpoint.Active {
		if err := s.ensureNoOtherActive(ctx, endpoint.ID); err != nil {
			return nil, err
		}
	}

	if err := s.endpointRepo.Save(ctx, endpoint); err != nil {
		return nil, err
	}

	resp := ToEndpointResponse(endpoint)
	return &resp, nil
}

// GetByID returns a single endpoint
func (s *EndpointService) GetByID(ctx context.Context, id uuid.UUID) (*EndpointResponse, error) {
	endpoint, err := s.endpointRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToEndpointResponse(endpoint)
	return &resp, nil
}

// List returns endpoints with pagination
func (s *EndpointService) List(ctx context.Context, filter EndpointListFilter) (*shared.Paginated[EndpointResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Search != "" {
		f.Search = filter.Search
	}
	if filter.Active != nil {
		f.Filters["active"] = *filter.Active
	}
	if filter.Kind != "" {
		f.Filters["kind"] = filter.Kind
	}

	endpoints, err := s.endpointRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.endpointRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToEndpointResponses(endpoints), total, f.Page, f.PageSize)
	return &result, nil
}

// Update modifies an existing endpoint
func (s *EndpointService) Update(ctx context.Context, id uuid.UUID, req UpdateEndpointRequest) (*EndpointResponse, error) {
	endpoint, err := s.endpointRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		endpoint.Name = *req.Name
	}
	if req.BaseURL != nil {
		endpoint.BaseURL = *req.BaseURL
	}
	if req.Token != nil {
		endpoint.Token = *req.Token
	}
	if req.Kind != nil {
		endpoint.Kind = integration.EndpointKind(*req.Kind)
	}
	if req.Active != nil {
		endpoint.Active = *req.Active
	}
	if err := endpoint.Validate(); err != nil {
		return nil, err
	}

	if endpoint.Active {
		if err := s.ensureNoOtherActive(ctx, endpoint.ID); err != nil {
			return nil, err
		}
	}

	if err := s.endpointRepo.Save(ctx, endpoint); err != nil {
		return nil, err
	}

	resp := ToEndpointResponse(endpoint)
	return &resp, nil
}

// Delete removes an endpoint configuration
func (s *EndpointService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.endpointRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.endpointRepo.Delete(ctx, id)
}

// Resolve returns the single active endpoint every remote call goes through
func (s *EndpointService) Resolve(ctx context.Context) (*integration.ServiceEndpoint, error) {
	active, err := s.endpointRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	return integration.ResolveActive(active)
}

// VerifyCommunication probes the active endpoint and reports reachability
func (s *EndpointService) VerifyCommunication(ctx context.Context) error {
	endpoint, err := s.Resolve(ctx)
	if err != nil {
		return err
	}
	return s.taxService.VerifyCommunication(ctx, endpoint)
}

func (s *EndpointService) ensureNoOtherActive(ctx context.Context, selfID uuid.UUID) error {
	active, err := s.endpointRepo.FindActive(ctx)
	if err != nil {
		return err
	}
	for i := range active {
		if active[i].ID != selfID {
			return shared.NewDomainError("ENDPOINT_CONFLICT", "Another endpoint is already active")
		}
	}
	return nil
}
