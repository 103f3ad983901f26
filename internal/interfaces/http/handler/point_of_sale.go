package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	billingapp "github.com/siatbridge/backend/internal/application/billing"
)

// PointOfSaleHandler handles branch, point of sale and contingency endpoints
type PointOfSaleHandler struct {
	BaseHandler
	posService         *billingapp.PointOfSaleService
	contingencyService *billingapp.ContingencyService
}

// NewPointOfSaleHandler creates a new PointOfSaleHandler
func NewPointOfSaleHandler(
	posService *billingapp.PointOfSaleService,
	contingencyService *billingapp.ContingencyService,
) *PointOfSaleHandler {
	return &PointOfSaleHandler{
		posService:         posService,
		contingencyService: contingencyService,
	}
}

// RegisterRoutes registers branch and point of sale routes
func (h *PointOfSaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	branches := rg.Group("/billing/branches")
	{
		branches.GET("", h.ListBranches)
		branches.POST("", h.CreateBranch)
	}

	pos := rg.Group("/billing/points-of-sale")
	{
		pos.GET("", h.List)
		pos.POST("", h.Create)
		pos.GET("/probe", h.Probe)
		pos.GET("/:id", h.GetByID)
		pos.GET("/:id/daily-code", h.CurrentDailyCode)
		pos.POST("/:id/daily-code/refresh", h.RefreshDailyCode)
		pos.GET("/:id/contingency", h.OpenContingency)
		pos.POST("/:id/contingency", h.EnterContingency)
		pos.DELETE("/:id/contingency", h.ExitContingency)
		pos.GET("/:id/contingency/history", h.ContingencyHistory)
	}
}

// CreateBranch registers a branch
func (h *PointOfSaleHandler) CreateBranch(c *gin.Context) {
	var req billingapp.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	branch, err := h.posService.CreateBranch(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, branch)
}

// ListBranches returns all branches
func (h *PointOfSaleHandler) ListBranches(c *gin.Context) {
	branches, err := h.posService.ListBranches(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branches)
}

// Create registers a point of sale with the tax service
func (h *PointOfSaleHandler) Create(c *gin.Context) {
	var req billingapp.CreatePointOfSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	pos, err := h.posService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, pos)
}

// GetByID returns a single point of sale
func (h *PointOfSaleHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid point of sale ID")
		return
	}

	pos, err := h.posService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pos)
}

// List returns all points of sale
func (h *PointOfSaleHandler) List(c *gin.Context) {
	points, err := h.posService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, points)
}

// CurrentDailyCode returns the current daily authorization code
func (h *PointOfSaleHandler) CurrentDailyCode(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid point of sale ID")
		return
	}

	code, err := h.posService.CurrentDailyCode(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, code)
}

// RefreshDailyCode fetches a fresh daily authorization code
func (h *PointOfSaleHandler) RefreshDailyCode(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid point of sale ID")
		return
	}

	code, err := h.posService.RefreshDailyCode(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, code)
}

// Probe checks whether the tax service answers
func (h *PointOfSaleHandler) Probe(c *gin.Context) {
	reachable, err := h.contingencyService.Probe(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"reachable": reachable})
}

// OpenContingency returns the open contingency event, if any
func (h *PointOfSaleHandler) OpenContingency(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid point of sale ID")
		return
	}

	event, err := h.contingencyService.OpenEvent(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}

// EnterContingency opens a contingency window for the point of sale
func (h *PointOfSaleHandler) EnterContingency(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid point of sale ID")
		return
	}

	var req billingapp.OpenContingencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	event, err := h.contingencyService.Open(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, event)
}

// ExitContingency closes the open contingency window, submitting the
// invoices queued while it was open
func (h *PointOfSaleHandler) ExitContingency(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid point of sale ID")
		return
	}

	event, err := h.contingencyService.Close(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}

// ContingencyHistory returns past contingency events for the point of sale
func (h *PointOfSaleHandler) ContingencyHistory(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid point of sale ID")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.contingencyService.History(c.Request.Context(), id, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
