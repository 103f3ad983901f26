package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// EndpointSortFields contains allowed sort fields for service endpoints
var EndpointSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"kind":       true,
	"active":     true,
}

// ContingencyEventSortFields contains allowed sort fields for contingency events
var ContingencyEventSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"point_of_sale_id": true,
	"reason":           true,
	"status":           true,
	"started_at":       true,
	"ended_at":         true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"customer_id":      true,
	"point_of_sale_id": true,
	"date":             true,
	"status":           true,
	"number":           true,
	"unique_code":      true,
	"total":            true,
}

// PointOfSaleSortFields contains allowed sort fields for points of sale
var PointOfSaleSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"code":        true,
	"branch_id":   true,
	"remote_id":   true,
	"contingency": true,
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"name":            true,
	"document_number": true,
	"email":           true,
	"remote_id":       true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"unit_price": true,
	"remote_id":  true,
}

// ReferenceSortFields contains allowed sort fields for reference entries
var ReferenceSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"kind":        true,
	"remote_id":   true,
	"code":        true,
	"description": true,
}
