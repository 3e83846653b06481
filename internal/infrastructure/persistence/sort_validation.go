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

// SyncLogSortFields contains allowed sort fields for sync logs
var SyncLogSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"entity_type":    true,
	"status":         true,
	"started_at":     true,
	"completed_at":   true,
	"records_failed": true,
}

// ProductSortFields contains allowed sort fields for mirrored products
var ProductSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"title":              true,
	"handle":             true,
	"vendor":             true,
	"status":             true,
	"price_min":          true,
	"price_max":          true,
	"synced_at":          true,
	"shopify_updated_at": true,
}

// OrderSortFields contains allowed sort fields for mirrored orders
var OrderSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"order_number":       true,
	"name":               true,
	"total_price":        true,
	"financial_status":   true,
	"processed_at":       true,
	"shopify_created_at": true,
	"shopify_updated_at": true,
}

// CustomerSortFields contains allowed sort fields for mirrored customers
var CustomerSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"email":              true,
	"last_name":          true,
	"orders_count":       true,
	"total_spent":        true,
	"shopify_updated_at": true,
}

// InventoryLevelSortFields contains allowed sort fields for mirrored
// inventory levels
var InventoryLevelSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"inventory_item_id":  true,
	"location_id":        true,
	"sku":                true,
	"available":          true,
	"shopify_updated_at": true,
}
