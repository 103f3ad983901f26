package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its lines by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := conn(ctx, r.db).
		Preload("Lines").
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByUniqueCode finds an invoice by its unique code
func (r *GormInvoiceRepository) FindByUniqueCode(ctx context.Context, uniqueCode string) (*billing.Invoice, error) {
	if uniqueCode == "" {
		return nil, shared.NewDomainError("INVALID_UNIQUE_CODE", "Unique code cannot be empty")
	}
	var invoice billing.Invoice
	if err := conn(ctx, r.db).
		Preload("Lines").
		Where("unique_code = ?", uniqueCode).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindQueuedByEvent finds the invoices queued during a contingency event
func (r *GormInvoiceRepository) FindQueuedByEvent(ctx context.Context, eventID uuid.UUID) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	if err := conn(ctx, r.db).
		Preload("Lines").
		Where("event_id = ? AND status = ?", eventID, billing.InvoiceStatusQueued).
		Order("created_at ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// QueuedInvoiceCounts counts the queued invoices per point of sale. It feeds
// the contingency queue depth gauge.
func (r *GormInvoiceRepository) QueuedInvoiceCounts(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		PointOfSaleID uuid.UUID
		Total         int64
	}
	if err := conn(ctx, r.db).
		Model(&billing.Invoice{}).
		Select("point_of_sale_id, COUNT(*) AS total").
		Where("status = ?", billing.InvoiceStatusQueued).
		Group("point_of_sale_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.PointOfSaleID] = row.Total
	}
	return counts, nil
}

// FindByPointOfSale finds all invoices issued through a point of sale
func (r *GormInvoiceRepository) FindByPointOfSale(ctx context.Context, pointOfSaleID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := r.applyFilter(
		conn(ctx, r.db).Model(&billing.Invoice{}).
			Preload("Lines").
			Where("point_of_sale_id = ?", pointOfSaleID),
		filter,
	)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindAll finds all invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := r.applyFilter(conn(ctx, r.db).Model(&billing.Invoice{}).Preload("Lines"), filter)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save creates or updates an invoice together with its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return conn(ctx, r.db).Session(&gorm.Session{FullSaveAssociations: true}).Save(invoice).Error
}

// Delete deletes an invoice and its lines
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&billing.InvoiceLine{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&billing.Invoice{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&billing.Invoice{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("unique_code ILIKE ?", search)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "point_of_sale_id":
			query = query.Where("point_of_sale_id = ?", value)
		case "offline":
			query = query.Where("offline = ?", value)
		case "event_id":
			query = query.Where("event_id = ?", value)
		}
	}

	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
