package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// GormDailyCodeRepository implements DailyCodeRepository using GORM
type GormDailyCodeRepository struct {
	db *gorm.DB
}

// NewGormDailyCodeRepository creates a new GormDailyCodeRepository
func NewGormDailyCodeRepository(db *gorm.DB) *GormDailyCodeRepository {
	return &GormDailyCodeRepository{db: db}
}

// FindByID finds a daily code by its ID
func (r *GormDailyCodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.DailyCode, error) {
	var code billing.DailyCode
	if err := conn(ctx, r.db).First(&code, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &code, nil
}

// FindCurrentByPointOfSale finds the current daily code for a point of sale
func (r *GormDailyCodeRepository) FindCurrentByPointOfSale(ctx context.Context, pointOfSaleID uuid.UUID) (*billing.DailyCode, error) {
	var code billing.DailyCode
	if err := conn(ctx, r.db).
		Where("point_of_sale_id = ? AND current = ?", pointOfSaleID, true).
		First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrDailyCodeMissing
		}
		return nil, err
	}
	return &code, nil
}

// ReplaceCurrent demotes the current code and stores the new one atomically
func (r *GormDailyCodeRepository) ReplaceCurrent(ctx context.Context, code *billing.DailyCode) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&billing.DailyCode{}).
			Where("point_of_sale_id = ? AND current = ?", code.PointOfSaleID, true).
			Update("current", false).Error; err != nil {
			return err
		}
		code.Current = true
		return tx.Save(code).Error
	})
}

// FindAll finds all daily codes matching the filter
func (r *GormDailyCodeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.DailyCode, error) {
	var codes []billing.DailyCode
	query := conn(ctx, r.db).Model(&billing.DailyCode{})

	if v, ok := filter.Filters["point_of_sale_id"]; ok {
		query = query.Where("point_of_sale_id = ?", v)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Order("valid_from DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// Save creates or updates a daily code
func (r *GormDailyCodeRepository) Save(ctx context.Context, code *billing.DailyCode) error {
	return conn(ctx, r.db).Save(code).Error
}

// Delete deletes a daily code
func (r *GormDailyCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&billing.DailyCode{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts daily codes matching the filter
func (r *GormDailyCodeRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := conn(ctx, r.db).Model(&billing.DailyCode{})
	if v, ok := filter.Filters["point_of_sale_id"]; ok {
		query = query.Where("point_of_sale_id = ?", v)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormDailyCodeRepository implements DailyCodeRepository
var _ billing.DailyCodeRepository = (*GormDailyCodeRepository)(nil)

// ---------------------------------------------------------------------------
// GormSystemCodeRepository
// ---------------------------------------------------------------------------

// GormSystemCodeRepository implements SystemCodeRepository using GORM
type GormSystemCodeRepository struct {
	db *gorm.DB
}

// NewGormSystemCodeRepository creates a new GormSystemCodeRepository
func NewGormSystemCodeRepository(db *gorm.DB) *GormSystemCodeRepository {
	return &GormSystemCodeRepository{db: db}
}

// FindByID finds a system code by its ID
func (r *GormSystemCodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.SystemCode, error) {
	var code billing.SystemCode
	if err := conn(ctx, r.db).First(&code, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &code, nil
}

// FindByBranch finds all system codes registered for a branch
func (r *GormSystemCodeRepository) FindByBranch(ctx context.Context, branchID uuid.UUID) ([]billing.SystemCode, error) {
	var codes []billing.SystemCode
	if err := conn(ctx, r.db).
		Where("branch_id = ?", branchID).
		Order("valid_to DESC").
		Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// FindAll finds all system codes matching the filter
func (r *GormSystemCodeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.SystemCode, error) {
	var codes []billing.SystemCode
	query := conn(ctx, r.db).Model(&billing.SystemCode{})

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Order("valid_to DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// Save creates or updates a system code
func (r *GormSystemCodeRepository) Save(ctx context.Context, code *billing.SystemCode) error {
	return conn(ctx, r.db).Save(code).Error
}

// Delete deletes a system code
func (r *GormSystemCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&billing.SystemCode{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts system codes matching the filter
func (r *GormSystemCodeRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&billing.SystemCode{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormSystemCodeRepository implements SystemCodeRepository
var _ billing.SystemCodeRepository = (*GormSystemCodeRepository)(nil)
