package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/siatbridge/backend/internal/application/catalog"
	"github.com/siatbridge/backend/internal/domain/catalog"
)

// ReferenceLister yields locally mirrored reference catalog rows
type ReferenceLister interface {
	List(ctx context.Context, kind catalog.ReferenceKind) ([]catalog.ReferenceEntry, error)
}

// ReferenceHandler serves the mirrored tax authority reference catalogs
type ReferenceHandler struct {
	BaseHandler
	references ReferenceLister
}

// NewReferenceHandler creates a new ReferenceHandler
func NewReferenceHandler(references ReferenceLister) *ReferenceHandler {
	return &ReferenceHandler{references: references}
}

// RegisterRoutes registers reference catalog routes
func (h *ReferenceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog/reference/:kind", h.List)
}

// List returns the rows of one reference catalog
func (h *ReferenceHandler) List(c *gin.Context) {
	kind := catalog.ReferenceKind(c.Param("kind"))

	entries, err := h.references.List(c.Request.Context(), kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows := make([]catalogapp.ReferenceEntryResponse, len(entries))
	for i := range entries {
		rows[i] = catalogapp.ToReferenceEntryResponse(&entries[i])
	}
	h.Success(c, rows)
}
