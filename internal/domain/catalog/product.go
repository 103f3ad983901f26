package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siatbridge/backend/internal/domain/shared"
)

// Product represents a sellable item in the catalog. Before a product can
// appear on an invoice it has to be homologated: linked to a tax authority
// measure unit and to an entry of the authority's product code catalog.
type Product struct {
	shared.BaseEntity
	Code          string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MeasureUnitID *uuid.UUID      `gorm:"type:uuid"`
	SinCodeID     *uuid.UUID      `gorm:"type:uuid"`
	ActivityCode  string          `gorm:"type:varchar(20)"`
	RemoteID      *int64          `gorm:"index"`
	FromRemote    bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(code, name string, unitPrice decimal.Decimal) (*Product, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Code:       strings.ToUpper(code),
		Name:       name,
		UnitPrice:  unitPrice,
	}, nil
}

// IsHomologated returns true when the product carries the tax authority
// links emission requires
func (p *Product) IsHomologated() bool {
	return p.MeasureUnitID != nil && p.SinCodeID != nil
}

// Homologate links the product to its tax authority catalog entries
func (p *Product) Homologate(measureUnitID, sinCodeID uuid.UUID, activityCode string) error {
	if measureUnitID == uuid.Nil || sinCodeID == uuid.Nil {
		return shared.NewDomainError("INVALID_HOMOLOGATION", "Measure unit and product code are required")
	}
	p.MeasureUnitID = &measureUnitID
	p.SinCodeID = &sinCodeID
	p.ActivityCode = activityCode
	return nil
}

// IsMirrored returns true once the tax service assigned a remote ID
func (p *Product) IsMirrored() bool {
	return p.RemoteID != nil
}

// ProductRepository persists products
type ProductRepository interface {
	shared.Repository[Product]
	FindByCode(ctx context.Context, code string) (*Product, error)
	FindByRemoteID(ctx context.Context, remoteID int64) (*Product, error)
	FindUnmirrored(ctx context.Context) ([]Product, error)
}
