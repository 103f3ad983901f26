package partner

import (
	"time"

	"github.com/google/uuid"

	"github.com/siatbridge/backend/internal/domain/partner"
)

// CreateCustomerRequest is the request to create a customer
type CreateCustomerRequest struct {
	Name           string     `json:"name" binding:"required"`
	DocumentTypeID *uuid.UUID `json:"document_type_id"`
	DocumentNumber string     `json:"document_number" binding:"required"`
	Complement     string     `json:"complement" binding:"max=10"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone" binding:"max=50"`
}

// UpdateCustomerRequest is the request to update a customer
type UpdateCustomerRequest struct {
	Name           string     `json:"name" binding:"required"`
	DocumentTypeID *uuid.UUID `json:"document_type_id"`
	DocumentNumber string     `json:"document_number" binding:"required"`
	Complement     string     `json:"complement" binding:"max=10"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone" binding:"max=50"`
}

// CustomerListFilter carries the list query parameters
type CustomerListFilter struct {
	Page           int    `form:"page"`
	PageSize       int    `form:"page_size"`
	Search         string `form:"search"`
	DocumentNumber string `form:"document_number"`
}

// CustomerResponse is the customer representation returned to callers
type CustomerResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	DocumentTypeID *uuid.UUID `json:"document_type_id,omitempty"`
	DocumentNumber string     `json:"document_number"`
	Complement     string     `json:"complement,omitempty"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	RemoteID       *int64     `json:"remote_id,omitempty"`
	FromRemote     bool       `json:"from_remote"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToCustomerResponse converts a customer to its response representation
func ToCustomerResponse(c *partner.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:             c.ID,
		Name:           c.Name,
		DocumentTypeID: c.DocumentTypeID,
		DocumentNumber: c.DocumentNumber,
		Complement:     c.Complement,
		Email:          c.Email,
		Phone:          c.Phone,
		RemoteID:       c.RemoteID,
		FromRemote:     c.FromRemote,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
