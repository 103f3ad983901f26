package integration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// EmitLine is one invoice line as the tax service expects it
type EmitLine struct {
	// ItemRemoteID is the product ID on the tax service side
	ItemRemoteID int64
	// Quantity is the invoiced quantity
	Quantity decimal.Decimal
	// UnitPrice is the unit price before discount
	UnitPrice decimal.Decimal
	// Discount is the absolute discount amount for this line
	Discount decimal.Decimal
}

// EmitRequest carries everything the tax service needs to emit one invoice
type EmitRequest struct {
	// PointOfSaleRemoteID is the point of sale ID on the tax service side
	PointOfSaleRemoteID int64
	// CustomerRemoteID is the buyer ID on the tax service side
	CustomerRemoteID int64
	// PaymentMethodCode is the tax authority payment method catalog code
	PaymentMethodCode int
	// CardNumber is set only when the payment method requires it
	CardNumber string
	// Lines are the invoice lines
	Lines []EmitLine
	// Online is false while the point of sale operates under contingency;
	// the tax service queues offline invoices for later package submission
	Online bool
}

// EmitResult is the tax service answer to a successful emission
type EmitResult struct {
	// StateCode is the tax authority state code assigned to the invoice
	StateCode string
	// UniqueCode is the unique invoice code (CUF)
	UniqueCode string
	// Number is the fiscal invoice number
	Number int64
	// ViewURL is the public verification URL, when the service returns one
	ViewURL string
}

// VoidRequest identifies an emitted invoice for cancellation or reversal
type VoidRequest struct {
	// InvoiceRemoteID is the invoice ID on the tax service side
	InvoiceRemoteID int64
	// ReasonCode is the tax authority cancellation reason catalog code
	ReasonCode int
}

// OpenEventRequest registers a new significant event with the tax service
type OpenEventRequest struct {
	// PointOfSaleRemoteID is the point of sale ID on the tax service side
	PointOfSaleRemoteID int64
	// Reason is the significant-event catalog code
	Reason ReasonCode
	// Description is the operator-supplied event description
	Description string
	// StartedAt and EndedAt bound the window for reasons that require it
	StartedAt time.Time
	EndedAt   *time.Time
}

// PackageRequest submits the invoices queued during a contingency window
type PackageRequest struct {
	// PointOfSaleRemoteID is the point of sale ID on the tax service side
	PointOfSaleRemoteID int64
	// BranchRemoteID is the branch ID on the tax service side
	BranchRemoteID int64
	// EventRemoteID is the remote ID of the closed event
	EventRemoteID int64
}

// PackageResult reports the outcome of a package submission
type PackageResult struct {
	// StateCode is the tax authority state code for the package
	StateCode string
	// Accepted is how many invoices the package contained
	Accepted int
}

// ReferenceRow is one row of a tax authority reference catalog
type ReferenceRow struct {
	// RemoteID is the row ID on the tax service side
	RemoteID int64
	// Code is the tax authority catalog code, when the catalog carries one
	Code string
	// Description is the human-readable catalog entry
	Description string
}

// RemoteClient mirrors a customer record on the tax service side
type RemoteClient struct {
	RemoteID       int64
	Name           string
	DocumentTypeID int64
	DocumentNumber string
	Complement     string
	Email          string
}

// RemoteItem mirrors a product record on the tax service side
type RemoteItem struct {
	RemoteID      int64
	Code          string
	Description   string
	UnitPrice     decimal.Decimal
	MeasureUnitID int64
	ActivityCode  string
	SinCode       int64
}

// RemotePointOfSale is a point of sale registration on the tax service side
type RemotePointOfSale struct {
	RemoteID       int64
	Name           string
	TypeCode       int
	BranchRemoteID int64
}

// RemoteDailyCode is the daily authorization code (CUFD) for a point of sale
type RemoteDailyCode struct {
	Code        string
	ControlCode string
	Address     string
	ValidFrom   time.Time
	ValidTo     time.Time
}

// RemoteSystemCode is a system authorization code (CUIS) registration
type RemoteSystemCode struct {
	Code           string
	BranchRemoteID int64
	ValidTo        time.Time
}

// ---------------------------------------------------------------------------
// TaxAuthorityService Port Interface
// ---------------------------------------------------------------------------

// TaxAuthorityService defines the port interface for the tax service bridge.
// The interface is defined in the domain layer; the HTTP adapter lives in the
// infrastructure layer. Every operation resolves against one explicit
// endpoint so callers stay in control of which configuration is exercised.
type TaxAuthorityService interface {
	// VerifyCommunication probes the bridge and returns nil only when the
	// service answers that the upstream connection is healthy
	VerifyCommunication(ctx context.Context, ep *ServiceEndpoint) error

	// ---------------------------------------------------------------------------
	// Invoice Operations
	// ---------------------------------------------------------------------------

	// EmitInvoice emits one invoice through the modality the endpoint serves
	EmitInvoice(ctx context.Context, ep *ServiceEndpoint, req *EmitRequest) (*EmitResult, error)

	// VoidInvoice cancels an emitted invoice
	VoidInvoice(ctx context.Context, ep *ServiceEndpoint, req *VoidRequest) error

	// ReverseVoid undoes a cancellation
	ReverseVoid(ctx context.Context, ep *ServiceEndpoint, req *VoidRequest) error

	// DownloadDocument fetches the rendered PDF for an emitted invoice
	DownloadDocument(ctx context.Context, ep *ServiceEndpoint, dailyCode string, number int64) ([]byte, error)

	// ---------------------------------------------------------------------------
	// Contingency Operations
	// ---------------------------------------------------------------------------

	// OpenEvent registers an open-ended significant event and returns the
	// remote event ID assigned by the tax service
	OpenEvent(ctx context.Context, ep *ServiceEndpoint, req *OpenEventRequest) (int64, error)

	// OpenClosedEvent registers an already-bounded significant event
	OpenClosedEvent(ctx context.Context, ep *ServiceEndpoint, req *OpenEventRequest) (int64, error)

	// CloseEvent ends a previously registered significant event
	CloseEvent(ctx context.Context, ep *ServiceEndpoint, remoteEventID int64) error

	// SubmitPackage sends the invoices queued during the event window
	SubmitPackage(ctx context.Context, ep *ServiceEndpoint, req *PackageRequest) (*PackageResult, error)

	// ---------------------------------------------------------------------------
	// Mirror Operations
	// ---------------------------------------------------------------------------

	// ListReference fetches one reference catalog by its path segment
	ListReference(ctx context.Context, ep *ServiceEndpoint, kind string) ([]ReferenceRow, error)

	// ListClients fetches all customer records held by the tax service
	ListClients(ctx context.Context, ep *ServiceEndpoint) ([]RemoteClient, error)

	// CreateClient mirrors a new customer and returns its remote ID
	CreateClient(ctx context.Context, ep *ServiceEndpoint, client *RemoteClient) (int64, error)

	// UpdateClient mirrors customer changes
	UpdateClient(ctx context.Context, ep *ServiceEndpoint, client *RemoteClient) error

	// DeleteClient removes a mirrored customer
	DeleteClient(ctx context.Context, ep *ServiceEndpoint, remoteID int64) error

	// ListItems fetches all product records held by the tax service
	ListItems(ctx context.Context, ep *ServiceEndpoint) ([]RemoteItem, error)

	// CreateItem mirrors a new product and returns its remote ID
	CreateItem(ctx context.Context, ep *ServiceEndpoint, item *RemoteItem) (int64, error)

	// UpdateItem mirrors product changes
	UpdateItem(ctx context.Context, ep *ServiceEndpoint, item *RemoteItem) error

	// ---------------------------------------------------------------------------
	// Registration Operations
	// ---------------------------------------------------------------------------

	// RegisterPointOfSale registers a point of sale and returns its remote ID
	RegisterPointOfSale(ctx context.Context, ep *ServiceEndpoint, pos *RemotePointOfSale) (int64, error)

	// FetchDailyCode requests a fresh daily authorization code for a point
	// of sale and its branch
	FetchDailyCode(ctx context.Context, ep *ServiceEndpoint, posRemoteID, branchRemoteID int64) (*RemoteDailyCode, error)

	// ListSystemCodes fetches the system authorization codes
	ListSystemCodes(ctx context.Context, ep *ServiceEndpoint) ([]RemoteSystemCode, error)
}
