package partner

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/siatbridge/backend/internal/domain/shared"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Customer represents a buyer in the partner context. Every customer is
// mirrored to the tax service; RemoteID holds the identifier the service
// assigned. FromRemote marks records the sync pulled down from the service,
// which must not be pushed back up.
type Customer struct {
	shared.BaseEntity
	Name           string     `gorm:"type:varchar(200);not null"`
	DocumentTypeID *uuid.UUID `gorm:"type:uuid"`
	DocumentNumber string     `gorm:"type:varchar(50);not null;index"`
	Complement     string     `gorm:"type:varchar(10)"`
	Email          string     `gorm:"type:varchar(200);index"`
	Phone          string     `gorm:"type:varchar(50)"`
	RemoteID       *int64     `gorm:"index"`
	FromRemote     bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer with required fields
func NewCustomer(name, documentNumber string) (*Customer, error) {
	name = strings.TrimSpace(name)
	documentNumber = strings.TrimSpace(documentNumber)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	if documentNumber == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document number cannot be empty")
	}

	return &Customer{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		DocumentNumber: documentNumber,
	}, nil
}

// Update changes the customer's basic information
func (c *Customer) Update(name, documentNumber, complement string) error {
	name = strings.TrimSpace(name)
	documentNumber = strings.TrimSpace(documentNumber)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if documentNumber == "" {
		return shared.NewDomainError("INVALID_DOCUMENT", "Document number cannot be empty")
	}
	c.Name = name
	c.DocumentNumber = documentNumber
	c.Complement = complement
	return nil
}

// SetEmail validates and sets the email address
func (c *Customer) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if email != "" && !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	c.Email = email
	return nil
}

// IsMirrored returns true once the tax service assigned a remote ID
func (c *Customer) IsMirrored() bool {
	return c.RemoteID != nil
}

// CustomerRepository persists customers
type CustomerRepository interface {
	shared.Repository[Customer]
	FindByRemoteID(ctx context.Context, remoteID int64) (*Customer, error)
	FindByDocumentNumber(ctx context.Context, documentNumber string) (*Customer, error)
	FindUnmirrored(ctx context.Context) ([]Customer, error)
}
