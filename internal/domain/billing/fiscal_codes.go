package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/siatbridge/backend/internal/domain/shared"
)

// DailyCode is the daily authorization code (CUFD) the tax service hands a
// point of sale. Only the newest code per point of sale is current; older
// ones are kept for document lookups against past emissions.
type DailyCode struct {
	shared.BaseEntity
	PointOfSaleID uuid.UUID `gorm:"type:uuid;not null;index"`
	Code          string    `gorm:"size:128;not null"`
	ControlCode   string    `gorm:"size:64"`
	Address       string    `gorm:"size:256"`
	ValidFrom     time.Time `gorm:"not null"`
	ValidTo       time.Time `gorm:"not null"`
	Current       bool      `gorm:"not null;default:true;index"`
}

// TableName returns the database table name
func (DailyCode) TableName() string {
	return "daily_codes"
}

// IsExpired returns true if the code is no longer valid at the given time
func (c *DailyCode) IsExpired(at time.Time) bool {
	return at.After(c.ValidTo)
}

// SystemCode is the system authorization code (CUIS) registered for a branch
type SystemCode struct {
	shared.BaseEntity
	BranchID uuid.UUID `gorm:"type:uuid;not null;index"`
	Code     string    `gorm:"size:64;not null"`
	ValidTo  time.Time `gorm:"not null"`
}

// TableName returns the database table name
func (SystemCode) TableName() string {
	return "system_codes"
}

// DailyCodeRepository persists daily authorization codes
type DailyCodeRepository interface {
	shared.Repository[DailyCode]
	FindCurrentByPointOfSale(ctx context.Context, pointOfSaleID uuid.UUID) (*DailyCode, error)
	// ReplaceCurrent demotes the current code and stores the new one in a
	// single transaction
	ReplaceCurrent(ctx context.Context, code *DailyCode) error
}

// SystemCodeRepository persists system authorization codes
type SystemCodeRepository interface {
	shared.Repository[SystemCode]
	FindByBranch(ctx context.Context, branchID uuid.UUID) ([]SystemCode, error)
}
