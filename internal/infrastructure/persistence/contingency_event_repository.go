package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// GormContingencyEventRepository implements ContingencyEventRepository using GORM
type GormContingencyEventRepository struct {
	db *gorm.DB
}

// NewGormContingencyEventRepository creates a new GormContingencyEventRepository
func NewGormContingencyEventRepository(db *gorm.DB) *GormContingencyEventRepository {
	return &GormContingencyEventRepository{db: db}
}

// FindByID finds a contingency event by its ID
func (r *GormContingencyEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.ContingencyEvent, error) {
	var event integration.ContingencyEvent
	if err := conn(ctx, r.db).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// FindOpenByPointOfSale finds the open event for a point of sale, if any
func (r *GormContingencyEventRepository) FindOpenByPointOfSale(ctx context.Context, pointOfSaleID uuid.UUID) (*integration.ContingencyEvent, error) {
	var event integration.ContingencyEvent
	if err := conn(ctx, r.db).
		Where("point_of_sale_id = ? AND status = ?", pointOfSaleID, integration.EventStatusOpen).
		Order("started_at DESC").
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// FindByPointOfSale finds all events for a point of sale
func (r *GormContingencyEventRepository) FindByPointOfSale(ctx context.Context, pointOfSaleID uuid.UUID, filter shared.Filter) ([]integration.ContingencyEvent, error) {
	var events []integration.ContingencyEvent
	query := r.applyFilter(
		conn(ctx, r.db).Model(&integration.ContingencyEvent{}).
			Where("point_of_sale_id = ?", pointOfSaleID),
		filter,
	)

	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindAll finds all events matching the filter
func (r *GormContingencyEventRepository) FindAll(ctx context.Context, filter shared.Filter) ([]integration.ContingencyEvent, error) {
	var events []integration.ContingencyEvent
	query := r.applyFilter(conn(ctx, r.db).Model(&integration.ContingencyEvent{}), filter)

	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Save creates or updates a contingency event
func (r *GormContingencyEventRepository) Save(ctx context.Context, event *integration.ContingencyEvent) error {
	return conn(ctx, r.db).Save(event).Error
}

// Delete deletes a contingency event
func (r *GormContingencyEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&integration.ContingencyEvent{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts events matching the filter
func (r *GormContingencyEventRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&integration.ContingencyEvent{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormContingencyEventRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, ContingencyEventSortFields, "started_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormContingencyEventRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "reason":
			query = query.Where("reason = ?", value)
		case "point_of_sale_id":
			query = query.Where("point_of_sale_id = ?", value)
		}
	}

	return query
}

// Ensure GormContingencyEventRepository implements ContingencyEventRepository
var _ integration.ContingencyEventRepository = (*GormContingencyEventRepository)(nil)
