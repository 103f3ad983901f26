package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siatbridge/backend/internal/domain/catalog"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// GormReferenceRepository implements ReferenceRepository using GORM
type GormReferenceRepository struct {
	db *gorm.DB
}

// NewGormReferenceRepository creates a new GormReferenceRepository
func NewGormReferenceRepository(db *gorm.DB) *GormReferenceRepository {
	return &GormReferenceRepository{db: db}
}

// FindByID finds a reference entry by its ID
func (r *GormReferenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ReferenceEntry, error) {
	var entry catalog.ReferenceEntry
	if err := conn(ctx, r.db).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByKind finds all entries of one catalog kind
func (r *GormReferenceRepository) FindByKind(ctx context.Context, kind catalog.ReferenceKind) ([]catalog.ReferenceEntry, error) {
	var entries []catalog.ReferenceEntry
	if err := conn(ctx, r.db).
		Where("kind = ?", kind).
		Order("remote_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByKindAndRemoteID finds one entry by catalog kind and remote row ID
func (r *GormReferenceRepository) FindByKindAndRemoteID(ctx context.Context, kind catalog.ReferenceKind, remoteID int64) (*catalog.ReferenceEntry, error) {
	var entry catalog.ReferenceEntry
	if err := conn(ctx, r.db).
		Where("kind = ? AND remote_id = ?", kind, remoteID).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// SaveBatch stores new entries in a single transaction
func (r *GormReferenceRepository) SaveBatch(ctx context.Context, entries []catalog.ReferenceEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Save(&entries).Error
	})
}

// FindAll finds all entries matching the filter
func (r *GormReferenceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.ReferenceEntry, error) {
	var entries []catalog.ReferenceEntry
	query := r.applyFilter(conn(ctx, r.db).Model(&catalog.ReferenceEntry{}), filter)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Save creates or updates a reference entry
func (r *GormReferenceRepository) Save(ctx context.Context, entry *catalog.ReferenceEntry) error {
	return conn(ctx, r.db).Save(entry).Error
}

// Delete deletes a reference entry
func (r *GormReferenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&catalog.ReferenceEntry{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts entries matching the filter
func (r *GormReferenceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&catalog.ReferenceEntry{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormReferenceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, ReferenceSortFields, "remote_id")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormReferenceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("description ILIKE ? OR code ILIKE ?", search, search)
	}

	if kind, ok := filter.Filters["kind"]; ok {
		query = query.Where("kind = ?", kind)
	}

	return query
}

// Ensure GormReferenceRepository implements ReferenceRepository
var _ catalog.ReferenceRepository = (*GormReferenceRepository)(nil)
