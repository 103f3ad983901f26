package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// GormBranchRepository implements BranchRepository using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// FindByID finds a branch by its ID
func (r *GormBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Branch, error) {
	var branch billing.Branch
	if err := conn(ctx, r.db).First(&branch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// FindByCode finds a branch by its fiscal branch code
func (r *GormBranchRepository) FindByCode(ctx context.Context, code int) (*billing.Branch, error) {
	var branch billing.Branch
	if err := conn(ctx, r.db).Where("code = ?", code).First(&branch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// FindAll finds all branches matching the filter
func (r *GormBranchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Branch, error) {
	var branches []billing.Branch
	query := conn(ctx, r.db).Model(&billing.Branch{})

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Order("code ASC").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// Save creates or updates a branch
func (r *GormBranchRepository) Save(ctx context.Context, branch *billing.Branch) error {
	return conn(ctx, r.db).Save(branch).Error
}

// Delete deletes a branch
func (r *GormBranchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&billing.Branch{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts branches matching the filter
func (r *GormBranchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&billing.Branch{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormBranchRepository implements BranchRepository
var _ billing.BranchRepository = (*GormBranchRepository)(nil)

// ---------------------------------------------------------------------------
// GormPointOfSaleRepository
// ---------------------------------------------------------------------------

// GormPointOfSaleRepository implements PointOfSaleRepository using GORM
type GormPointOfSaleRepository struct {
	db *gorm.DB
}

// NewGormPointOfSaleRepository creates a new GormPointOfSaleRepository
func NewGormPointOfSaleRepository(db *gorm.DB) *GormPointOfSaleRepository {
	return &GormPointOfSaleRepository{db: db}
}

// FindByID finds a point of sale by its ID
func (r *GormPointOfSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PointOfSale, error) {
	var pos billing.PointOfSale
	if err := conn(ctx, r.db).First(&pos, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &pos, nil
}

// FindByBranch finds all points of sale attached to a branch
func (r *GormPointOfSaleRepository) FindByBranch(ctx context.Context, branchID uuid.UUID) ([]billing.PointOfSale, error) {
	var points []billing.PointOfSale
	if err := conn(ctx, r.db).
		Where("branch_id = ?", branchID).
		Order("code ASC").
		Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// FindInContingency finds all points of sale currently under contingency
func (r *GormPointOfSaleRepository) FindInContingency(ctx context.Context) ([]billing.PointOfSale, error) {
	var points []billing.PointOfSale
	if err := conn(ctx, r.db).
		Where("contingency = ?", true).
		Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// FindAll finds all points of sale matching the filter
func (r *GormPointOfSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.PointOfSale, error) {
	var points []billing.PointOfSale
	query := r.applyFilter(conn(ctx, r.db).Model(&billing.PointOfSale{}), filter)

	if err := query.Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// Save creates or updates a point of sale
func (r *GormPointOfSaleRepository) Save(ctx context.Context, pos *billing.PointOfSale) error {
	return conn(ctx, r.db).Save(pos).Error
}

// Delete deletes a point of sale
func (r *GormPointOfSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&billing.PointOfSale{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts points of sale matching the filter
func (r *GormPointOfSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&billing.PointOfSale{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormPointOfSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, PointOfSaleSortFields, "code")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPointOfSaleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ?", search)
	}

	for key, value := range filter.Filters {
		switch key {
		case "branch_id":
			query = query.Where("branch_id = ?", value)
		case "contingency":
			query = query.Where("contingency = ?", value)
		case "registered":
			if value == true {
				query = query.Where("remote_id IS NOT NULL")
			} else {
				query = query.Where("remote_id IS NULL")
			}
		}
	}

	return query
}

// Ensure GormPointOfSaleRepository implements PointOfSaleRepository
var _ billing.PointOfSaleRepository = (*GormPointOfSaleRepository)(nil)
