package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siatbridge/backend/internal/domain/shared"
)

// InvoiceStatus represents the lifecycle state of a fiscal invoice
type InvoiceStatus string

const (
	// InvoiceStatusDraft means the invoice exists locally and was never sent
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusEmitted means the tax service accepted the invoice online
	InvoiceStatusEmitted InvoiceStatus = "EMITTED"
	// InvoiceStatusQueued means the invoice was emitted under contingency and
	// waits for the package submission that closes the event
	InvoiceStatusQueued InvoiceStatus = "QUEUED"
	// InvoiceStatusCancelled means the tax service confirmed the cancellation
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusEmitted, InvoiceStatusQueued, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusEmitted || target == InvoiceStatusQueued
	case InvoiceStatusQueued:
		return target == InvoiceStatusEmitted
	case InvoiceStatusEmitted:
		return target == InvoiceStatusCancelled
	case InvoiceStatusCancelled:
		// A confirmed reversal puts the invoice back in circulation
		return target == InvoiceStatusEmitted
	}
	return false
}

// InvoiceLine represents a line item in a fiscal invoice
type InvoiceLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// NewInvoiceLine creates a new invoice line
func NewInvoiceLine(invoiceID, productID uuid.UUID, quantity, unitPrice, discount decimal.Decimal) (*InvoiceLine, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	amount := quantity.Mul(unitPrice).Sub(discount)
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the line amount")
	}

	now := time.Now()
	return &InvoiceLine{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Discount:  discount,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Invoice is a fiscal invoice. The tax service assigns the fiscal number,
// the unique code and the state code at emission time; until then those
// fields stay empty.
type Invoice struct {
	shared.BaseEntity
	CustomerID        uuid.UUID     `gorm:"type:uuid;not null;index"`
	PointOfSaleID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	PaymentMethodCode int           `gorm:"not null"`
	CardNumber        string        `gorm:"size:32"`
	Date              time.Time     `gorm:"not null"`
	Status            InvoiceStatus `gorm:"size:16;not null;default:'DRAFT';index"`
	Offline           bool          `gorm:"not null;default:false"`
	Reverted          bool          `gorm:"not null;default:false"`
	EventID           *uuid.UUID    `gorm:"type:uuid;index"`
	RemoteID          *int64        `gorm:"index"`
	Number            *int64
	UniqueCode        string          `gorm:"size:64;index"`
	StateCode         string          `gorm:"size:8"`
	ViewURL           string          `gorm:"size:512"`
	Total             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Lines             []InvoiceLine   `gorm:"foreignKey:InvoiceID"`
}

// TableName returns the database table name
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a draft invoice
func NewInvoice(customerID, pointOfSaleID uuid.UUID, paymentMethodCode int, date time.Time) (*Invoice, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if pointOfSaleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_POINT_OF_SALE", "Point of sale ID cannot be empty")
	}
	if paymentMethodCode <= 0 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method code must be positive")
	}
	return &Invoice{
		BaseEntity:        shared.NewBaseEntity(),
		CustomerID:        customerID,
		PointOfSaleID:     pointOfSaleID,
		PaymentMethodCode: paymentMethodCode,
		Date:              date,
		Status:            InvoiceStatusDraft,
		Total:             decimal.Zero,
	}, nil
}

// AddLine appends a line and keeps the total consistent
func (inv *Invoice) AddLine(productID uuid.UUID, quantity, unitPrice, discount decimal.Decimal) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.ErrInvalidState
	}
	line, err := NewInvoiceLine(inv.ID, productID, quantity, unitPrice, discount)
	if err != nil {
		return err
	}
	inv.Lines = append(inv.Lines, *line)
	inv.Total = inv.Total.Add(line.Amount)
	return nil
}

// MarkEmitted records the tax service answer for an online emission
func (inv *Invoice) MarkEmitted(stateCode, uniqueCode string, number int64, viewURL string) error {
	if !inv.Status.CanTransitionTo(InvoiceStatusEmitted) {
		return shared.ErrInvalidState
	}
	inv.Status = InvoiceStatusEmitted
	inv.StateCode = stateCode
	inv.UniqueCode = uniqueCode
	inv.Number = &number
	inv.ViewURL = viewURL
	return nil
}

// MarkQueued records an emission accepted under contingency. The invoice
// stays tied to the open event until the package submission confirms it.
func (inv *Invoice) MarkQueued(eventID uuid.UUID, stateCode, uniqueCode string, number int64) error {
	if !inv.Status.CanTransitionTo(InvoiceStatusQueued) {
		return shared.ErrInvalidState
	}
	inv.Status = InvoiceStatusQueued
	inv.Offline = true
	inv.EventID = &eventID
	inv.StateCode = stateCode
	inv.UniqueCode = uniqueCode
	inv.Number = &number
	return nil
}

// ConfirmQueued promotes a queued invoice after its package was accepted
func (inv *Invoice) ConfirmQueued(stateCode string) error {
	if !inv.Status.CanTransitionTo(InvoiceStatusEmitted) {
		return shared.ErrInvalidState
	}
	inv.Status = InvoiceStatusEmitted
	inv.StateCode = stateCode
	return nil
}

// MarkCancelled records a confirmed cancellation
func (inv *Invoice) MarkCancelled(stateCode string) error {
	if inv.Status != InvoiceStatusEmitted {
		return shared.ErrInvoiceNotCancellable
	}
	inv.Status = InvoiceStatusCancelled
	inv.StateCode = stateCode
	inv.Reverted = false
	return nil
}

// MarkReversed records a confirmed cancellation reversal. The invoice
// returns to EMITTED but keeps a trace that the cancellation was undone.
func (inv *Invoice) MarkReversed(stateCode string) error {
	if inv.Status != InvoiceStatusCancelled {
		return shared.ErrInvoiceNotReversible
	}
	inv.Status = InvoiceStatusEmitted
	inv.StateCode = stateCode
	inv.Reverted = true
	return nil
}

// SameFiscalDay reports whether two instants fall on the same calendar day
// in the fiscal time zone
func SameFiscalDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// InvoiceRepository persists fiscal invoices
type InvoiceRepository interface {
	shared.Repository[Invoice]
	FindQueuedByEvent(ctx context.Context, eventID uuid.UUID) ([]Invoice, error)
	FindByPointOfSale(ctx context.Context, pointOfSaleID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	FindByUniqueCode(ctx context.Context, uniqueCode string) (*Invoice, error)
}
