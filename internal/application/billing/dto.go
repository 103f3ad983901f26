package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Invoice DTOs
// ---------------------------------------------------------------------------

// InvoiceLineRequest is one line of a draft invoice. UnitPrice falls back to
// the catalog price when omitted; DiscountPct is a percentage of the unit
// price.
type InvoiceLineRequest struct {
	ProductID   uuid.UUID        `json:"product_id" binding:"required"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal  `json:"discount_pct"`
}

// CreateInvoiceRequest creates a draft invoice
type CreateInvoiceRequest struct {
	CustomerID        uuid.UUID            `json:"customer_id" binding:"required"`
	PointOfSaleID     uuid.UUID            `json:"point_of_sale_id" binding:"required"`
	PaymentMethodCode int                  `json:"payment_method_code" binding:"required,gt=0"`
	CardNumber        string               `json:"card_number" binding:"max=32"`
	Lines             []InvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CancelInvoiceRequest cancels an emitted invoice
type CancelInvoiceRequest struct {
	ReasonCode int `json:"reason_code" binding:"required,gt=0"`
}

// InvoiceListFilter holds invoice listing options
type InvoiceListFilter struct {
	Page          int        `form:"page"`
	PageSize      int        `form:"page_size"`
	Status        string     `form:"status"`
	PointOfSaleID *uuid.UUID `form:"point_of_sale_id"`
	CustomerID    *uuid.UUID `form:"customer_id"`
}

// InvoiceLineResponse is one invoice line in API responses
type InvoiceLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Amount    decimal.Decimal `json:"amount"`
}

// InvoiceResponse is the invoice representation returned by the API
type InvoiceResponse struct {
	ID                uuid.UUID             `json:"id"`
	CustomerID        uuid.UUID             `json:"customer_id"`
	PointOfSaleID     uuid.UUID             `json:"point_of_sale_id"`
	PaymentMethodCode int                   `json:"payment_method_code"`
	Date              time.Time             `json:"date"`
	Status            string                `json:"status"`
	Offline           bool                  `json:"offline"`
	Reverted          bool                  `json:"reverted"`
	Number            *int64                `json:"number,omitempty"`
	UniqueCode        string                `json:"unique_code,omitempty"`
	StateCode         string                `json:"state_code,omitempty"`
	ViewURL           string                `json:"view_url,omitempty"`
	Total             decimal.Decimal       `json:"total"`
	Lines             []InvoiceLineResponse `json:"lines"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// IssueResult reports the outcome of an issuance attempt. When the
// connectivity probe fails the invoice stays untouched and ContingencyPrompt
// tells the caller to offer opening a contingency event instead.
type IssueResult struct {
	Issued            bool             `json:"issued"`
	ContingencyPrompt bool             `json:"contingency_prompt"`
	Invoice           *InvoiceResponse `json:"invoice,omitempty"`
}

// ToInvoiceResponse converts a domain invoice to its API representation
func ToInvoiceResponse(inv *billing.Invoice) *InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lines = append(lines, InvoiceLineResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
			Amount:    line.Amount,
		})
	}
	return &InvoiceResponse{
		ID:                inv.ID,
		CustomerID:        inv.CustomerID,
		PointOfSaleID:     inv.PointOfSaleID,
		PaymentMethodCode: inv.PaymentMethodCode,
		Date:              inv.Date,
		Status:            inv.Status.String(),
		Offline:           inv.Offline,
		Reverted:          inv.Reverted,
		Number:            inv.Number,
		UniqueCode:        inv.UniqueCode,
		StateCode:         inv.StateCode,
		ViewURL:           inv.ViewURL,
		Total:             inv.Total,
		Lines:             lines,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}

// ToInvoiceResponses converts a slice of domain invoices
func ToInvoiceResponses(invoices []billing.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, *ToInvoiceResponse(&invoices[i]))
	}
	return responses
}

// ---------------------------------------------------------------------------
// Contingency DTOs
// ---------------------------------------------------------------------------

// OpenContingencyRequest opens a contingency event for a point of sale.
// StartedAt and EndedAt are required for reason codes that report an
// incident that already ended.
type OpenContingencyRequest struct {
	Reason      int        `json:"reason" binding:"required"`
	Description string     `json:"description" binding:"max=512"`
	StartedAt   *time.Time `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
}

// ContingencyEventResponse is the contingency event API representation
type ContingencyEventResponse struct {
	ID            uuid.UUID  `json:"id"`
	PointOfSaleID uuid.UUID  `json:"point_of_sale_id"`
	Reason        int        `json:"reason"`
	Description   string     `json:"description,omitempty"`
	RemoteEventID *int64     `json:"remote_event_id,omitempty"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	InvoiceCount  int        `json:"invoice_count"`
}

// ToContingencyEventResponse converts a domain event to its API representation
func ToContingencyEventResponse(event *integration.ContingencyEvent) *ContingencyEventResponse {
	return &ContingencyEventResponse{
		ID:            event.ID,
		PointOfSaleID: event.PointOfSaleID,
		Reason:        int(event.Reason),
		Description:   event.Description,
		RemoteEventID: event.RemoteEventID,
		Status:        event.Status.String(),
		StartedAt:     event.StartedAt,
		EndedAt:       event.EndedAt,
		InvoiceCount:  event.InvoiceCount,
	}
}

// ---------------------------------------------------------------------------
// Point of Sale DTOs
// ---------------------------------------------------------------------------

// CreateBranchRequest registers a company branch
type CreateBranchRequest struct {
	Name     string `json:"name" binding:"required,max=128"`
	Code     int    `json:"code" binding:"gte=0"`
	Address  string `json:"address" binding:"max=256"`
	Phone    string `json:"phone" binding:"max=32"`
	RemoteID *int64 `json:"remote_id"`
}

// BranchResponse is the branch API representation
type BranchResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Code     int       `json:"code"`
	Address  string    `json:"address,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	RemoteID *int64    `json:"remote_id,omitempty"`
}

// CreatePointOfSaleRequest registers a new point of sale under a branch.
// Registration is mirrored to the tax service before the local record is
// written.
type CreatePointOfSaleRequest struct {
	Name     string    `json:"name" binding:"required,max=128"`
	Code     int       `json:"code" binding:"gte=0"`
	TypeCode int       `json:"type_code" binding:"gte=0"`
	BranchID uuid.UUID `json:"branch_id" binding:"required"`
}

// PointOfSaleResponse is the point of sale API representation
type PointOfSaleResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Code        int        `json:"code"`
	TypeCode    int        `json:"type_code"`
	BranchID    uuid.UUID  `json:"branch_id"`
	RemoteID    *int64     `json:"remote_id,omitempty"`
	Contingency bool       `json:"contingency"`
	OpenEventID *uuid.UUID `json:"open_event_id,omitempty"`
}

// DailyCodeResponse is the daily authorization code API representation
type DailyCodeResponse struct {
	ID            uuid.UUID `json:"id"`
	PointOfSaleID uuid.UUID `json:"point_of_sale_id"`
	Code          string    `json:"code"`
	ControlCode   string    `json:"control_code,omitempty"`
	Address       string    `json:"address,omitempty"`
	ValidFrom     time.Time `json:"valid_from"`
	ValidTo       time.Time `json:"valid_to"`
	Current       bool      `json:"current"`
}

// ToBranchResponse converts a domain branch to its API representation
func ToBranchResponse(branch *billing.Branch) *BranchResponse {
	return &BranchResponse{
		ID:       branch.ID,
		Name:     branch.Name,
		Code:     branch.Code,
		Address:  branch.Address,
		Phone:    branch.Phone,
		RemoteID: branch.RemoteID,
	}
}

// ToPointOfSaleResponse converts a domain point of sale to its API representation
func ToPointOfSaleResponse(pos *billing.PointOfSale) *PointOfSaleResponse {
	return &PointOfSaleResponse{
		ID:          pos.ID,
		Name:        pos.Name,
		Code:        pos.Code,
		TypeCode:    pos.TypeCode,
		BranchID:    pos.BranchID,
		RemoteID:    pos.RemoteID,
		Contingency: pos.Contingency,
		OpenEventID: pos.OpenEventID,
	}
}

// ToPointOfSaleResponses converts a slice of domain points of sale
func ToPointOfSaleResponses(list []billing.PointOfSale) []PointOfSaleResponse {
	responses := make([]PointOfSaleResponse, 0, len(list))
	for i := range list {
		responses = append(responses, *ToPointOfSaleResponse(&list[i]))
	}
	return responses
}

// ToDailyCodeResponse converts a domain daily code to its API representation
func ToDailyCodeResponse(code *billing.DailyCode) *DailyCodeResponse {
	return &DailyCodeResponse{
		ID:            code.ID,
		PointOfSaleID: code.PointOfSaleID,
		Code:          code.Code,
		ControlCode:   code.ControlCode,
		Address:       code.Address,
		ValidFrom:     code.ValidFrom,
		ValidTo:       code.ValidTo,
		Current:       code.Current,
	}
}

// ---------------------------------------------------------------------------
// Document DTOs
// ---------------------------------------------------------------------------

// DocumentResult carries a rendered invoice document. Content is set when
// the PDF was fetched or recovered from the archive; ArchiveURL points to a
// presigned copy when the archive backend supports it.
type DocumentResult struct {
	Content     []byte
	ContentType string
	FileName    string
	ArchiveURL  string
	Inline      bool
}
