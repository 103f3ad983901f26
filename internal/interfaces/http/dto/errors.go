package dto

import "net/http"

// Transport-level error codes. Domain error codes pass through unchanged;
// these cover failures the handlers raise themselves.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeRemoteUnavailable is used when the tax service cannot be reached
	ErrCodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	// ErrCodeRemoteFailed is used when a tax service call failed
	ErrCodeRemoteFailed = "REMOTE_FAILED"
	// ErrCodeValidation is used for request body validation failures
	ErrCodeValidation = "VALIDATION_ERROR"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Validation and state errors map to 422 so clients can tell a rejected
// operation apart from a malformed request.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:          http.StatusInternalServerError,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeRemoteUnavailable: http.StatusServiceUnavailable,
	ErrCodeRemoteFailed:      http.StatusBadGateway,
	ErrCodeValidation:        http.StatusBadRequest,

	"NOT_FOUND":     http.StatusNotFound,
	"INVALID_INPUT": http.StatusBadRequest,

	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"ENDPOINT_CONFLICT":    http.StatusConflict,
	"ENDPOINT_AMBIGUOUS":   http.StatusConflict,

	"INVALID_STATE":             http.StatusUnprocessableEntity,
	"VALIDATION_FAILED":         http.StatusUnprocessableEntity,
	"NOT_HOMOLOGATED":           http.StatusUnprocessableEntity,
	"INVOICE_DATE_OUT_OF_RANGE": http.StatusUnprocessableEntity,
	"INVOICE_NOT_CANCELLABLE":   http.StatusUnprocessableEntity,
	"INVOICE_NOT_REVERSIBLE":    http.StatusUnprocessableEntity,
	"INVALID_NAME":              http.StatusBadRequest,
	"INVALID_CODE":              http.StatusBadRequest,
	"INVALID_DOCUMENT":          http.StatusBadRequest,
	"INVALID_EMAIL":             http.StatusBadRequest,
	"INVALID_PRICE":             http.StatusBadRequest,
	"INVALID_HOMOLOGATION":      http.StatusBadRequest,
	"REFERENCE_KIND_UNKNOWN":    http.StatusBadRequest,

	"CONTINGENCY_ALREADY_OPEN":   http.StatusConflict,
	"CONTINGENCY_NOT_OPEN":       http.StatusConflict,
	"ISSUANCE_IN_PROGRESS":       http.StatusConflict,
	"DAILY_CODE_MISSING":         http.StatusConflict,
	"POINT_OF_SALE_UNREGISTERED": http.StatusConflict,
	"BRANCH_UNREGISTERED":        http.StatusConflict,

	"DOCUMENT_NOT_AVAILABLE":  http.StatusNotFound,
	"ENDPOINT_NOT_CONFIGURED": http.StatusServiceUnavailable,
	"REMOTE_REJECTED":         http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not mapped.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
