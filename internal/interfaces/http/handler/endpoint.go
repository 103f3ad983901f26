package handler

import (
	"github.com/gin-gonic/gin"

	integrationapp "github.com/siatbridge/backend/internal/application/integration"
)

// EndpointHandler handles service endpoint configuration endpoints
type EndpointHandler struct {
	BaseHandler
	endpointService *integrationapp.EndpointService
}

// NewEndpointHandler creates a new EndpointHandler
func NewEndpointHandler(endpointService *integrationapp.EndpointService) *EndpointHandler {
	return &EndpointHandler{endpointService: endpointService}
}

// RegisterRoutes registers endpoint configuration routes
func (h *EndpointHandler) RegisterRoutes(rg *gin.RouterGroup) {
	endpoints := rg.Group("/integration/endpoints")
	{
		endpoints.GET("", h.List)
		endpoints.POST("", h.Create)
		endpoints.GET("/:id", h.GetByID)
		endpoints.PUT("/:id", h.Update)
		endpoints.DELETE("/:id", h.Delete)
		endpoints.POST("/verify", h.Verify)
	}
}

// Create registers a new service endpoint
func (h *EndpointHandler) Create(c *gin.Context) {
	var req integrationapp.CreateEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	endpoint, err := h.endpointService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, endpoint)
}

// GetByID returns a single endpoint
func (h *EndpointHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid endpoint ID")
		return
	}

	endpoint, err := h.endpointService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, endpoint)
}

// List returns endpoints with pagination
func (h *EndpointHandler) List(c *gin.Context) {
	var filter integrationapp.EndpointListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.endpointService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update changes an endpoint configuration
func (h *EndpointHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid endpoint ID")
		return
	}

	var req integrationapp.UpdateEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	endpoint, err := h.endpointService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, endpoint)
}

// Delete removes an endpoint configuration
func (h *EndpointHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid endpoint ID")
		return
	}

	if err := h.endpointService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Verify checks communication with the tax service over the active endpoint
func (h *EndpointHandler) Verify(c *gin.Context) {
	if err := h.endpointService.VerifyCommunication(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"reachable": true})
}
