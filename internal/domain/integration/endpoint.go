package integration

import (
	"context"
	"errors"
	"strings"

	"github.com/siatbridge/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Endpoint Errors
// ---------------------------------------------------------------------------

var (
	ErrServiceUnavailable = errors.New("integration: tax service temporarily unavailable")
	ErrRequestFailed      = errors.New("integration: tax service request failed")
	ErrInvalidResponse    = errors.New("integration: invalid tax service response")
	ErrAuthFailed         = errors.New("integration: tax service authentication failed")

	ErrEndpointInvalidURL  = errors.New("integration: invalid endpoint URL")
	ErrEndpointInvalidKind = errors.New("integration: invalid endpoint kind")
)

// ---------------------------------------------------------------------------
// EndpointKind
// ---------------------------------------------------------------------------

// EndpointKind represents the invoicing modality served by an endpoint
type EndpointKind string

const (
	// EndpointKindElectronic represents the online electronic invoicing modality
	EndpointKindElectronic EndpointKind = "ELECTRONIC"
	// EndpointKindComputerized represents the computerized invoicing modality
	EndpointKindComputerized EndpointKind = "COMPUTERIZED"
)

// IsValid returns true if the endpoint kind is valid
func (k EndpointKind) IsValid() bool {
	switch k {
	case EndpointKindElectronic, EndpointKindComputerized:
		return true
	default:
		return false
	}
}

// String returns the string representation of EndpointKind
func (k EndpointKind) String() string {
	return string(k)
}

// ---------------------------------------------------------------------------
// ServiceEndpoint Entity
// ---------------------------------------------------------------------------

// ServiceEndpoint describes one configured tax service bridge endpoint.
// At most one endpoint may be active at a time; every remote call resolves
// the active endpoint first and fails if zero or several are active.
type ServiceEndpoint struct {
	shared.BaseEntity
	Name    string       `gorm:"size:128;not null"`
	BaseURL string       `gorm:"size:512;not null"`
	Token   string       `gorm:"size:1024"`
	Kind    EndpointKind `gorm:"size:16;not null;default:'ELECTRONIC'"`
	Active  bool         `gorm:"not null;default:false;index"`
}

// TableName returns the database table name
func (ServiceEndpoint) TableName() string {
	return "service_endpoints"
}

// Validate checks endpoint invariants
func (e *ServiceEndpoint) Validate() error {
	if !strings.HasPrefix(e.BaseURL, "http://") && !strings.HasPrefix(e.BaseURL, "https://") {
		return ErrEndpointInvalidURL
	}
	if !e.Kind.IsValid() {
		return ErrEndpointInvalidKind
	}
	return nil
}

// ResolveActive picks the single active endpoint from a candidate list.
// Zero active endpoints means the bridge is not configured; more than one
// is a configuration fault the operator has to resolve before any call.
func ResolveActive(endpoints []ServiceEndpoint) (*ServiceEndpoint, error) {
	var active *ServiceEndpoint
	for i := range endpoints {
		if !endpoints[i].Active {
			continue
		}
		if active != nil {
			return nil, shared.ErrEndpointAmbiguous
		}
		active = &endpoints[i]
	}
	if active == nil {
		return nil, shared.ErrEndpointNotConfigured
	}
	return active, nil
}

// EndpointRepository persists service endpoints
type EndpointRepository interface {
	shared.Repository[ServiceEndpoint]
	FindActive(ctx context.Context) ([]ServiceEndpoint, error)
}
