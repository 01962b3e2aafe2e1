package persistence

import (
	"strings"
)

// SaleSortFields are the columns a sale listing may be ordered by
var SaleSortFields = map[string]bool{
	"date":       true,
	"paid":       true,
	"status":     true,
	"created_at": true,
	"updated_at": true,
}

// ClientSortFields are the columns a client listing may be ordered by
var ClientSortFields = map[string]bool{
	"name":       true,
	"created_at": true,
	"updated_at": true,
}

// ValidateSortOrder normalizes the direction to ASC or DESC; anything else is DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField if whitelisted, else defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderBy builds an ORDER BY clause from caller input. Without a sort field
// it returns fallback. id ASC is always the last key so pages are stable.
func orderBy(sortBy, sortOrder string, allowed map[string]bool, fallback string) string {
	if strings.TrimSpace(sortBy) == "" {
		return fallback
	}
	field := ValidateSortField(sortBy, allowed, "")
	if field == "" {
		return fallback
	}
	return field + " " + ValidateSortOrder(sortOrder) + ", id ASC"
}
