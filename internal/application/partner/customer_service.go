package partner

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/catalog"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/partner"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// EndpointResolver yields the single active tax service endpoint
type EndpointResolver interface {
	Resolve(ctx context.Context) (*integration.ServiceEndpoint, error)
}

// CustomerService bridges local customers to the tax service client
// registry. Writes mirror to the remote side before the local commit, so a
// remote rejection leaves the local store untouched. Records the sync pulled
// down from the service are never pushed back up.
type CustomerService struct {
	customerRepo  partner.CustomerRepository
	referenceRepo catalog.ReferenceRepository
	endpoints     EndpointResolver
	taxService    integration.TaxAuthorityService
	logger        *zap.Logger
}

// CustomerOption configures a CustomerService
type CustomerOption func(*CustomerService)

// WithCustomerLogger sets the logger
func WithCustomerLogger(logger *zap.Logger) CustomerOption {
	return func(s *CustomerService) {
		s.logger = logger
	}
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo partner.CustomerRepository,
	referenceRepo catalog.ReferenceRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	opts ...CustomerOption,
) *CustomerService {
	s := &CustomerService{
		customerRepo:  customerRepo,
		referenceRepo: referenceRepo,
		endpoints:     endpoints,
		taxService:    taxService,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a customer locally and mirrors it to the tax service.
// The remote call runs first; the customer is only saved once the service
// assigned a remote ID.
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	if err := validateCustomerFields(req.Name, req.DocumentNumber); err != nil {
		return nil, err
	}

	customer, err := partner.NewCustomer(req.Name, req.DocumentNumber)
	if err != nil {
		return nil, err
	}
	customer.DocumentTypeID = req.DocumentTypeID
	customer.Complement = req.Complement
	customer.Phone = req.Phone
	if err := customer.SetEmail(req.Email); err != nil {
		return nil, err
	}

	remoteID, err := s.mirrorCreate(ctx, customer)
	if err != nil {
		return nil, err
	}
	customer.RemoteID = &remoteID

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.Int64("remote_id", remoteID))
	return ToCustomerResponse(customer), nil
}

// Update changes a customer and mirrors the change. Customers that
// originated on the remote side are updated locally only.
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	if err := validateCustomerFields(req.Name, req.DocumentNumber); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := customer.Update(req.Name, req.DocumentNumber, req.Complement); err != nil {
		return nil, err
	}
	customer.DocumentTypeID = req.DocumentTypeID
	customer.Phone = req.Phone
	if err := customer.SetEmail(req.Email); err != nil {
		return nil, err
	}

	if !customer.FromRemote {
		if customer.IsMirrored() {
			if err := s.mirrorUpdate(ctx, customer); err != nil {
				return nil, err
			}
		} else {
			remoteID, err := s.mirrorCreate(ctx, customer)
			if err != nil {
				return nil, err
			}
			customer.RemoteID = &remoteID
		}
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

// Delete removes a customer. The remote mirror is removed first, except for
// customers that originated on the remote side.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !customer.FromRemote && customer.IsMirrored() {
		endpoint, err := s.endpoints.Resolve(ctx)
		if err != nil {
			return err
		}
		if err := s.taxService.DeleteClient(ctx, endpoint, *customer.RemoteID); err != nil {
			return err
		}
	}

	return s.customerRepo.Delete(ctx, id)
}

// GetByID returns a single customer
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

// List returns customers with pagination
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
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
	if filter.DocumentNumber != "" {
		f.Filters["document_number"] = filter.DocumentNumber
	}

	customers, err := s.customerRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.customerRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]CustomerResponse, len(customers))
	for i := range customers {
		items[i] = *ToCustomerResponse(&customers[i])
	}
	paginated := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &paginated, nil
}

// ---------------------------------------------------------------------------
// Remote mirroring
// ---------------------------------------------------------------------------

func (s *CustomerService) mirrorCreate(ctx context.Context, customer *partner.Customer) (int64, error) {
	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	client, err := s.toRemoteClient(ctx, customer)
	if err != nil {
		return 0, err
	}
	return s.taxService.CreateClient(ctx, endpoint, client)
}

func (s *CustomerService) mirrorUpdate(ctx context.Context, customer *partner.Customer) error {
	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return err
	}
	client, err := s.toRemoteClient(ctx, customer)
	if err != nil {
		return err
	}
	client.RemoteID = *customer.RemoteID
	return s.taxService.UpdateClient(ctx, endpoint, client)
}

func (s *CustomerService) toRemoteClient(ctx context.Context, customer *partner.Customer) (*integration.RemoteClient, error) {
	client := &integration.RemoteClient{
		Name:           customer.Name,
		DocumentNumber: customer.DocumentNumber,
		Complement:     customer.Complement,
		Email:          customer.Email,
	}
	if customer.DocumentTypeID != nil {
		entry, err := s.referenceRepo.FindByID(ctx, *customer.DocumentTypeID)
		if err != nil {
			return nil, fmt.Errorf("document type lookup: %w", err)
		}
		client.DocumentTypeID = entry.RemoteID
	}
	return client, nil
}

func validateCustomerFields(name, documentNumber string) error {
	var missing []string
	if strings.TrimSpace(name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(documentNumber) == "" {
		missing = append(missing, "document_number")
	}
	if len(missing) > 0 {
		return shared.NewDomainError("VALIDATION_FAILED",
			"missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}
