package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	billingapp "github.com/siatbridge/backend/internal/application/billing"
)

// InvoiceHandler handles invoice lifecycle endpoints
type InvoiceHandler struct {
	BaseHandler
	issuanceService     *billingapp.IssuanceService
	cancellationService *billingapp.CancellationService
	documentService     *billingapp.DocumentService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(
	issuanceService *billingapp.IssuanceService,
	cancellationService *billingapp.CancellationService,
	documentService *billingapp.DocumentService,
) *InvoiceHandler {
	return &InvoiceHandler{
		issuanceService:     issuanceService,
		cancellationService: cancellationService,
		documentService:     documentService,
	}
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/billing/invoices")
	{
		invoices.GET("", h.List)
		invoices.POST("", h.CreateDraft)
		invoices.GET("/:id", h.GetByID)
		invoices.POST("/:id/issue", h.Issue)
		invoices.POST("/:id/cancel", h.Cancel)
		invoices.POST("/:id/revert", h.Revert)
		invoices.GET("/:id/document", h.Document)
	}
}

// CreateDraft creates a draft invoice
func (h *InvoiceHandler) CreateDraft(c *gin.Context) {
	var req billingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	invoice, err := h.issuanceService.CreateDraft(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID returns a single invoice
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.issuanceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List returns invoices with pagination
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter billingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.issuanceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Issue emits a draft invoice through the tax service. When the service is
// unreachable the response carries a contingency prompt instead of an error.
func (h *InvoiceHandler) Issue(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	result, err := h.issuanceService.Issue(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel voids an emitted invoice
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req billingapp.CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	invoice, err := h.cancellationService.Cancel(c.Request.Context(), id, req.ReasonCode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Revert undoes a cancellation
func (h *InvoiceHandler) Revert(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.cancellationService.Revert(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Document returns the rendered invoice PDF. With inline=true the document
// is served for preview, otherwise as an attachment. When the document is
// already archived the archive URL is returned instead of the bytes.
func (h *InvoiceHandler) Document(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	inline, _ := strconv.ParseBool(c.DefaultQuery("inline", "false"))

	result, err := h.documentService.Fetch(c.Request.Context(), id, inline)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.ArchiveURL != "" && len(result.Content) == 0 {
		h.Success(c, gin.H{"url": result.ArchiveURL})
		return
	}

	disposition := "attachment"
	if result.Inline {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
