package integration

import (
	"time"

	"github.com/google/uuid"

	"github.com/siatbridge/backend/internal/domain/integration"
)

// CreateEndpointRequest carries the fields for a new service endpoint
type CreateEndpointRequest struct {
	Name    string `json:"name" binding:"required,max=128"`
	BaseURL string `json:"base_url" binding:"required,url,max=512"`
	Token   string `json:"token" binding:"max=1024"`
	Kind    string `json:"kind" binding:"omitempty,oneof=ELECTRONIC COMPUTERIZED"`
	Active  bool   `json:"active"`
}

// UpdateEndpointRequest carries partial endpoint changes
type UpdateEndpointRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=128"`
	BaseURL *string `json:"base_url" binding:"omitempty,url,max=512"`
	Token   *string `json:"token" binding:"omitempty,max=1024"`
	Kind    *string `json:"kind" binding:"omitempty,oneof=ELECTRONIC COMPUTERIZED"`
	Active  *bool   `json:"active"`
}

// EndpointListFilter carries list parameters for endpoints
type EndpointListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Kind     string `form:"kind"`
}

// EndpointResponse is the endpoint representation returned to clients.
// The token is never echoed back.
type EndpointResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"base_url"`
	Kind      string    `json:"kind"`
	Active    bool      `json:"active"`
	HasToken  bool      `json:"has_token"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToEndpointResponse converts a domain endpoint to its response form
func ToEndpointResponse(ep *integration.ServiceEndpoint) EndpointResponse {
	return EndpointResponse{
		ID:        ep.ID,
		Name:      ep.Name,
		BaseURL:   ep.BaseURL,
		Kind:      string(ep.Kind),
		Active:    ep.Active,
		HasToken:  ep.Token != "",
		CreatedAt: ep.CreatedAt,
		UpdatedAt: ep.UpdatedAt,
	}
}

// ToEndpointResponses converts a list of domain endpoints
func ToEndpointResponses(endpoints []integration.ServiceEndpoint) []EndpointResponse {
	responses := make([]EndpointResponse, len(endpoints))
	for i := range endpoints {
		responses[i] = ToEndpointResponse(&endpoints[i])
	}
	return responses
}
