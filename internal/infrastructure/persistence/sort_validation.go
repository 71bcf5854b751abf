package persistence

import (
	"strings"

	"github.com/autopecas/backend/internal/domain/catalog"
	"gorm.io/gorm/clause"
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

// MessageSortFields contains allowed sort fields for storefront messages
var MessageSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"position":   true,
	"title":      true,
	"starts_at":  true,
	"ends_at":    true,
}

// BrandSortFields contains allowed sort fields for brands
var BrandSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"position":   true,
	"name":       true,
	"slug":       true,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using ESCAPE '\'
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// catalogOrder maps a catalog sort mode to its ORDER BY clause.
// Every mode ends with sku so pages are stable across requests.
func catalogOrder(sort catalog.SortMode, search string) clause.OrderBy {
	var sql string
	switch sort {
	case catalog.SortPriceAsc:
		sql = "preco ASC, sku ASC"
	case catalog.SortPriceDesc:
		sql = "preco DESC, sku ASC"
	case catalog.SortNameAsc:
		sql = "titulo ASC, sku ASC"
	case catalog.SortNameDesc:
		sql = "titulo DESC, sku ASC"
	case catalog.SortNewest:
		sql = "created_at DESC, sku ASC"
	default:
		if search == "" {
			sql = "titulo ASC, sku ASC"
			break
		}
		// Relevance: exact SKU, then title prefix, then the rest alphabetically.
		return clause.OrderBy{Expression: clause.Expr{
			SQL:                `CASE WHEN LOWER(sku) = ? THEN 0 WHEN LOWER(titulo) LIKE ? ESCAPE '\' THEN 1 ELSE 2 END, titulo ASC, sku ASC`,
			Vars:               []interface{}{search, escapeLike(search) + "%"},
			WithoutParentheses: true,
		}}
	}
	return clause.OrderBy{Expression: clause.Expr{SQL: sql, WithoutParentheses: true}}
}
