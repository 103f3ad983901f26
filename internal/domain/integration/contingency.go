package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/siatbridge/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Contingency Errors
// ---------------------------------------------------------------------------

var (
	ErrEventInvalidReason    = errors.New("integration: invalid contingency reason code")
	ErrEventTimeRangeMissing = errors.New("integration: reason code requires a start and end time")
	ErrEventTimeRangeInvalid = errors.New("integration: event start time must be before end time")
	ErrEventNotRegistered    = errors.New("integration: event has no remote registration")
)

// ---------------------------------------------------------------------------
// ReasonCode
// ---------------------------------------------------------------------------

// ReasonCode is the tax authority catalog code for a significant event.
// Codes 5 through 7 describe incidents that already ended when they are
// reported, so they carry an explicit start and end time.
type ReasonCode int

const (
	ReasonInternetOutage     ReasonCode = 1
	ReasonServiceUnreachable ReasonCode = 2
	ReasonMobilePointOfSale  ReasonCode = 3
	ReasonOfflineVenue       ReasonCode = 4
	ReasonSoftwareFailure    ReasonCode = 5
	ReasonInfrastructureSwap ReasonCode = 6
	ReasonPowerOutage        ReasonCode = 7
)

// IsValid returns true if the reason code is in the catalog
func (r ReasonCode) IsValid() bool {
	return r >= ReasonInternetOutage && r <= ReasonPowerOutage
}

// RequiresTimeRange returns true if the reason must be reported with an
// explicit start and end time instead of an open-ended event
func (r ReasonCode) RequiresTimeRange() bool {
	return r >= ReasonSoftwareFailure && r <= ReasonPowerOutage
}

// ---------------------------------------------------------------------------
// EventStatus represents the lifecycle state of a contingency event
// ---------------------------------------------------------------------------

// EventStatus represents the lifecycle state of a contingency event
type EventStatus string

const (
	// EventStatusOpen indicates the offline window is still running
	EventStatusOpen EventStatus = "OPEN"
	// EventStatusClosed indicates the window ended and queued invoices were submitted
	EventStatusClosed EventStatus = "CLOSED"
	// EventStatusFailed indicates closing the window was rejected by the remote
	EventStatusFailed EventStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusOpen, EventStatusClosed, EventStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of EventStatus
func (s EventStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// ContingencyEvent Entity
// ---------------------------------------------------------------------------

// ContingencyEvent is one declared offline-operation window for a point of
// sale. The remote event ID is persisted as soon as the tax service assigns
// it, before the point of sale is switched to contingency mode, so a crash
// between the two writes never loses the registration.
type ContingencyEvent struct {
	shared.BaseEntity
	PointOfSaleID uuid.UUID   `gorm:"type:uuid;not null;index"`
	Reason        ReasonCode  `gorm:"not null"`
	Description   string      `gorm:"size:512"`
	RemoteEventID *int64      `gorm:"index"`
	Status        EventStatus `gorm:"size:16;not null;default:'OPEN'"`
	StartedAt     time.Time   `gorm:"not null"`
	EndedAt       *time.Time
	// InvoiceCount is how many queued invoices were submitted at close time
	InvoiceCount int `gorm:"not null;default:0"`
}

// TableName returns the database table name
func (ContingencyEvent) TableName() string {
	return "contingency_events"
}

// Validate checks event invariants
func (e *ContingencyEvent) Validate() error {
	if !e.Reason.IsValid() {
		return ErrEventInvalidReason
	}
	if e.Reason.RequiresTimeRange() {
		if e.EndedAt == nil {
			return ErrEventTimeRangeMissing
		}
		if !e.StartedAt.Before(*e.EndedAt) {
			return ErrEventTimeRangeInvalid
		}
	}
	return nil
}

// IsOpen returns true while the offline window is running
func (e *ContingencyEvent) IsOpen() bool {
	return e.Status == EventStatusOpen
}

// Close marks the event closed at the given time
func (e *ContingencyEvent) Close(at time.Time, invoiceCount int) {
	e.Status = EventStatusClosed
	e.EndedAt = &at
	e.InvoiceCount = invoiceCount
}

// ContingencyEventRepository persists contingency events
type ContingencyEventRepository interface {
	shared.Repository[ContingencyEvent]
	FindOpenByPointOfSale(ctx context.Context, pointOfSaleID uuid.UUID) (*ContingencyEvent, error)
	FindByPointOfSale(ctx context.Context, pointOfSaleID uuid.UUID, filter shared.Filter) ([]ContingencyEvent, error)
}
