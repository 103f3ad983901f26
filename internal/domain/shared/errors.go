package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")

	ErrEndpointNotConfigured   = NewDomainError("ENDPOINT_NOT_CONFIGURED", "No active tax service endpoint is configured")
	ErrEndpointAmbiguous       = NewDomainError("ENDPOINT_AMBIGUOUS", "More than one tax service endpoint is active")
	ErrValidationFailed        = NewDomainError("VALIDATION_FAILED", "Document failed validation")
	ErrContingencyAlreadyOpen  = NewDomainError("CONTINGENCY_ALREADY_OPEN", "A contingency event is already open for this point of sale")
	ErrContingencyNotOpen      = NewDomainError("CONTINGENCY_NOT_OPEN", "No contingency event is open for this point of sale")
	ErrRemoteRejected          = NewDomainError("REMOTE_REJECTED", "The tax service rejected the request")
	ErrNotHomologated          = NewDomainError("NOT_HOMOLOGATED", "Product is missing tax homologation data")
	ErrIssuanceInProgress      = NewDomainError("ISSUANCE_IN_PROGRESS", "Another issuance is in progress for this point of sale")
	ErrInvoiceDateOutOfRange   = NewDomainError("INVOICE_DATE_OUT_OF_RANGE", "Invoice date must be the current date in the fiscal time zone")
	ErrInvoiceNotCancellable   = NewDomainError("INVOICE_NOT_CANCELLABLE", "Invoice is not in a cancellable state")
	ErrInvoiceNotReversible    = NewDomainError("INVOICE_NOT_REVERSIBLE", "Invoice cancellation cannot be reversed")
	ErrDocumentNotAvailable    = NewDomainError("DOCUMENT_NOT_AVAILABLE", "Rendered document is not available for this invoice")
	ErrReferenceKindUnknown    = NewDomainError("REFERENCE_KIND_UNKNOWN", "Unknown reference catalog kind")
	ErrDailyCodeMissing        = NewDomainError("DAILY_CODE_MISSING", "No daily authorization code is registered for this point of sale")
	ErrPointOfSaleUnregistered = NewDomainError("POINT_OF_SALE_UNREGISTERED", "Point of sale has no remote registration")
)
