package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// GormEndpointRepository implements EndpointRepository using GORM
type GormEndpointRepository struct {
	db *gorm.DB
}

// NewGormEndpointRepository creates a new GormEndpointRepository
func NewGormEndpointRepository(db *gorm.DB) *GormEndpointRepository {
	return &GormEndpointRepository{db: db}
}

// FindByID finds an endpoint by its ID
func (r *GormEndpointRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.ServiceEndpoint, error) {
	var endpoint integration.ServiceEndpoint
	if err := conn(ctx, r.db).First(&endpoint, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &endpoint, nil
}

// FindAll finds all endpoints matching the filter
func (r *GormEndpointRepository) FindAll(ctx context.Context, filter shared.Filter) ([]integration.ServiceEndpoint, error) {
	var endpoints []integration.ServiceEndpoint
	query := r.applyFilter(conn(ctx, r.db).Model(&integration.ServiceEndpoint{}), filter)

	if err := query.Find(&endpoints).Error; err != nil {
		return nil, err
	}
	return endpoints, nil
}

// FindActive finds all endpoints marked active
func (r *GormEndpointRepository) FindActive(ctx context.Context) ([]integration.ServiceEndpoint, error) {
	var endpoints []integration.ServiceEndpoint
	if err := conn(ctx, r.db).
		Where("active = ?", true).
		Order("name ASC").
		Find(&endpoints).Error; err != nil {
		return nil, err
	}
	return endpoints, nil
}

// Save creates or updates an endpoint
func (r *GormEndpointRepository) Save(ctx context.Context, endpoint *integration.ServiceEndpoint) error {
	return conn(ctx, r.db).Save(endpoint).Error
}

// Delete deletes an endpoint
func (r *GormEndpointRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&integration.ServiceEndpoint{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts endpoints matching the filter
func (r *GormEndpointRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&integration.ServiceEndpoint{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormEndpointRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, EndpointSortFields, "name")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormEndpointRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR base_url ILIKE ?", search, search)
	}

	for key, value := range filter.Filters {
		switch key {
		case "active":
			query = query.Where("active = ?", value)
		case "kind":
			query = query.Where("kind = ?", value)
		}
	}

	return query
}

// Ensure GormEndpointRepository implements EndpointRepository
var _ integration.EndpointRepository = (*GormEndpointRepository)(nil)
