package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siatbridge/backend/internal/domain/catalog"
)

// CreateProductRequest is the request to create a product
type CreateProductRequest struct {
	Code          string          `json:"code" binding:"required,max=50"`
	Name          string          `json:"name" binding:"required,max=200"`
	Description   string          `json:"description"`
	UnitPrice     decimal.Decimal `json:"unit_price" binding:"required"`
	MeasureUnitID *uuid.UUID      `json:"measure_unit_id"`
	SinCodeID     *uuid.UUID      `json:"sin_code_id"`
	ActivityCode  string          `json:"activity_code" binding:"max=20"`
}

// UpdateProductRequest is the request to update a product
type UpdateProductRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// HomologateProductRequest links a product to the tax authority catalogs
type HomologateProductRequest struct {
	MeasureUnitID uuid.UUID `json:"measure_unit_id" binding:"required"`
	SinCodeID     uuid.UUID `json:"sin_code_id" binding:"required"`
	ActivityCode  string    `json:"activity_code" binding:"max=20"`
}

// ProductListFilter carries the list query parameters
type ProductListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	Code     string `form:"code"`
}

// ProductResponse is the product representation returned to callers
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	MeasureUnitID *uuid.UUID      `json:"measure_unit_id,omitempty"`
	SinCodeID     *uuid.UUID      `json:"sin_code_id,omitempty"`
	ActivityCode  string          `json:"activity_code,omitempty"`
	Homologated   bool            `json:"homologated"`
	RemoteID      *int64          `json:"remote_id,omitempty"`
	FromRemote    bool            `json:"from_remote"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToProductResponse converts a product to its response representation
func ToProductResponse(p *catalog.Product) *ProductResponse {
	return &ProductResponse{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		UnitPrice:     p.UnitPrice,
		MeasureUnitID: p.MeasureUnitID,
		SinCodeID:     p.SinCodeID,
		ActivityCode:  p.ActivityCode,
		Homologated:   p.IsHomologated(),
		RemoteID:      p.RemoteID,
		FromRemote:    p.FromRemote,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ReferenceEntryResponse is one row of a mirrored reference catalog
type ReferenceEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	RemoteID    int64     `json:"remote_id"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description"`
}

// ToReferenceEntryResponse converts a reference entry to its response
// representation
func ToReferenceEntryResponse(e *catalog.ReferenceEntry) ReferenceEntryResponse {
	return ReferenceEntryResponse{
		ID:          e.ID,
		Kind:        e.Kind.String(),
		RemoteID:    e.RemoteID,
		Code:        e.Code,
		Description: e.Description,
	}
}
