package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC.
// Invalid or empty input falls back to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks the sort field against a whitelist of allowed
// columns. Anything outside the whitelist falls back to defaultField.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// LotSortFields contains allowed sort columns for lot listings
var LotSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"start_time":     true,
	"end_time":       true,
	"current_price":  true,
	"starting_price": true,
	"bid_count":      true,
	"status":         true,
	"title":          true,
}
