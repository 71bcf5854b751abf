package catalog

import (
	"github.com/autopecas/backend/internal/domain/catalog"
)

// PageRequest is one storefront catalog request.
// ViewKey groups requests coming from the same product list on the client;
// it only supersedes runs that carry the same ClientID.
type PageRequest struct {
	Query    catalog.Query
	ViewKey  string
	ClientID string
}

// Item is one enriched catalog entry. Nil enrichment fields mean unknown.
type Item struct {
	SKU     string                 `json:"sku"`
	Titulo  string                 `json:"titulo"`
	Balance *catalog.Balance       `json:"balance,omitempty"`
	Price   *catalog.Price         `json:"price,omitempty"`
	Review  *catalog.ReviewSummary `json:"review,omitempty"`
}

// InStock returns false only when the balance is known and not positive
func (i Item) InStock() bool {
	return i.Balance == nil || i.Balance.Available()
}

// Page is one enriched catalog page
type Page struct {
	Items       []Item              `json:"items"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	Total       int64               `json:"total"`
	TotalPages  int                 `json:"total_pages"`
	SortMode    catalog.SortMode    `json:"sort_mode"`
	StockFilter catalog.StockFilter `json:"stock_filter"`
	Degraded    []string            `json:"degraded"`
}

// SyncResult reports one product mirror synchronization
type SyncResult struct {
	Pages       int   `json:"pages"`
	Upserted    int64 `json:"upserted"`
	Deactivated int64 `json:"deactivated"`
	Skipped     int   `json:"skipped"`
}
