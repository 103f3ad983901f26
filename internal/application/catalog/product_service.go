package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/catalog"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// EndpointResolver yields the single active tax service endpoint
type EndpointResolver interface {
	Resolve(ctx context.Context) (*integration.ServiceEndpoint, error)
}

// ProductService bridges the local product catalog to the tax service item
// registry. A product is mirrored once it is homologated; mirror writes run
// before the local commit, so a remote rejection leaves the local store
// untouched. Products pulled down by the sync are never pushed back up.
type ProductService struct {
	productRepo   catalog.ProductRepository
	referenceRepo catalog.ReferenceRepository
	endpoints     EndpointResolver
	taxService    integration.TaxAuthorityService
	logger        *zap.Logger
}

// ProductOption configures a ProductService
type ProductOption func(*ProductService)

// WithProductLogger sets the logger
func WithProductLogger(logger *zap.Logger) ProductOption {
	return func(s *ProductService) {
		s.logger = logger
	}
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	referenceRepo catalog.ReferenceRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	opts ...ProductOption,
) *ProductService {
	s := &ProductService{
		productRepo:   productRepo,
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

// Create registers a product. When the request carries homologation data the
// product is mirrored to the tax service before the local save; without it
// the product stays local until Homologate is called.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if err := validateProductFields(req.Code, req.Name); err != nil {
		return nil, err
	}

	if existing, err := s.productRepo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(req.Code))); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A product with this code already exists")
	}

	product, err := catalog.NewProduct(req.Code, req.Name, req.UnitPrice)
	if err != nil {
		return nil, err
	}
	product.Description = req.Description

	if req.MeasureUnitID != nil && req.SinCodeID != nil {
		if err := product.Homologate(*req.MeasureUnitID, *req.SinCodeID, req.ActivityCode); err != nil {
			return nil, err
		}
		remoteID, err := s.mirrorCreate(ctx, product)
		if err != nil {
			return nil, err
		}
		product.RemoteID = &remoteID
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("code", product.Code),
		zap.Bool("mirrored", product.IsMirrored()))
	return ToProductResponse(product), nil
}

// Update changes a product and mirrors the change when the product already
// has a remote registration. Products that originated on the remote side are
// updated locally only.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Name) == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "missing required fields: name")
	}
	if req.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.UnitPrice = req.UnitPrice

	if !product.FromRemote && product.IsMirrored() {
		if err := s.mirrorUpdate(ctx, product); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// Homologate links a product to the tax authority catalogs and mirrors it.
// An already mirrored product is updated in place.
func (s *ProductService) Homologate(ctx context.Context, id uuid.UUID, req HomologateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Homologate(req.MeasureUnitID, req.SinCodeID, req.ActivityCode); err != nil {
		return nil, err
	}

	if !product.FromRemote {
		if product.IsMirrored() {
			if err := s.mirrorUpdate(ctx, product); err != nil {
				return nil, err
			}
		} else {
			remoteID, err := s.mirrorCreate(ctx, product)
			if err != nil {
				return nil, err
			}
			product.RemoteID = &remoteID
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// Delete removes a product locally. The tax service keeps its item record;
// the registry has no removal operation.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, id)
}

// GetByID returns a single product
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// List returns products with pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
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
	if filter.Code != "" {
		f.Filters["code"] = strings.ToUpper(filter.Code)
	}

	products, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = *ToProductResponse(&products[i])
	}
	paginated := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &paginated, nil
}

// ---------------------------------------------------------------------------
// Remote mirroring
// ---------------------------------------------------------------------------

func (s *ProductService) mirrorCreate(ctx context.Context, product *catalog.Product) (int64, error) {
	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	item, err := s.toRemoteItem(ctx, product)
	if err != nil {
		return 0, err
	}
	return s.taxService.CreateItem(ctx, endpoint, item)
}

func (s *ProductService) mirrorUpdate(ctx context.Context, product *catalog.Product) error {
	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return err
	}
	item, err := s.toRemoteItem(ctx, product)
	if err != nil {
		return err
	}
	item.RemoteID = *product.RemoteID
	return s.taxService.UpdateItem(ctx, endpoint, item)
}

func (s *ProductService) toRemoteItem(ctx context.Context, product *catalog.Product) (*integration.RemoteItem, error) {
	item := &integration.RemoteItem{
		Code:         product.Code,
		Description:  product.Name,
		UnitPrice:    product.UnitPrice,
		ActivityCode: product.ActivityCode,
	}
	if product.MeasureUnitID != nil {
		entry, err := s.referenceRepo.FindByID(ctx, *product.MeasureUnitID)
		if err != nil {
			return nil, fmt.Errorf("measure unit lookup: %w", err)
		}
		item.MeasureUnitID = entry.RemoteID
	}
	if product.SinCodeID != nil {
		entry, err := s.referenceRepo.FindByID(ctx, *product.SinCodeID)
		if err != nil {
			return nil, fmt.Errorf("product code lookup: %w", err)
		}
		item.SinCode = entry.RemoteID
	}
	return item, nil
}

func validateProductFields(code, name string) error {
	var missing []string
	if strings.TrimSpace(code) == "" {
		missing = append(missing, "code")
	}
	if strings.TrimSpace(name) == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return shared.NewDomainError("VALIDATION_FAILED",
			"missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}
