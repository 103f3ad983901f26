package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/siatbridge/backend/internal/domain/shared"
)

// Branch is a registered company branch
type Branch struct {
	shared.BaseEntity
	Name     string `gorm:"size:128;not null"`
	Code     int    `gorm:"not null;uniqueIndex"`
	Address  string `gorm:"size:256"`
	Phone    string `gorm:"size:32"`
	RemoteID *int64 `gorm:"index"`
}

// TableName returns the database table name
func (Branch) TableName() string {
	return "branches"
}

// PointOfSale is an emission point registered under a branch. Its
// contingency flag gates how invoices are emitted: while the flag is set
// every emission goes out marked offline and joins the open event.
type PointOfSale struct {
	shared.BaseEntity
	Name        string     `gorm:"size:128;not null"`
	Code        int        `gorm:"not null"`
	TypeCode    int        `gorm:"not null;default:0"`
	BranchID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	RemoteID    *int64     `gorm:"index"`
	Contingency bool       `gorm:"not null;default:false"`
	OpenEventID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the database table name
func (PointOfSale) TableName() string {
	return "points_of_sale"
}

// IsRegistered returns true once the tax service assigned a remote ID
func (p *PointOfSale) IsRegistered() bool {
	return p.RemoteID != nil
}

// EnterContingency ties the point of sale to an open event. The event must
// already hold its remote registration; flipping the flag first would let a
// crash strand the point of sale in contingency with no event to close.
func (p *PointOfSale) EnterContingency(eventID uuid.UUID) error {
	if p.Contingency {
		return shared.ErrContingencyAlreadyOpen
	}
	p.Contingency = true
	p.OpenEventID = &eventID
	return nil
}

// LeaveContingency clears the contingency state
func (p *PointOfSale) LeaveContingency() error {
	if !p.Contingency {
		return shared.ErrContingencyNotOpen
	}
	p.Contingency = false
	p.OpenEventID = nil
	return nil
}

// BranchRepository persists branches
type BranchRepository interface {
	shared.Repository[Branch]
	FindByCode(ctx context.Context, code int) (*Branch, error)
}

// PointOfSaleRepository persists points of sale
type PointOfSaleRepository interface {
	shared.Repository[PointOfSale]
	FindByBranch(ctx context.Context, branchID uuid.UUID) ([]PointOfSale, error)
	FindInContingency(ctx context.Context) ([]PointOfSale, error)
}
