package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/autopecas/backend/internal/domain/shared"
)

const (
	// DefaultPageSize is the catalog grid page size
	DefaultPageSize = 24
	// MaxPageSize bounds a single catalog page
	MaxPageSize = 100
	// MaxPage keeps the search offset far from overflow
	MaxPage = 10000
)

// SortMode is the server-side ordering of a catalog search
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortNameAsc   SortMode = "name_asc"
	SortNameDesc  SortMode = "name_desc"
	SortNewest    SortMode = "newest"
)

// IsValid returns true if the sort mode is known
func (s SortMode) IsValid() bool {
	switch s {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortNewest:
		return true
	}
	return false
}

// StockFilter narrows an already-fetched page by balance
type StockFilter string

const (
	StockAll     StockFilter = "all"
	StockInStock StockFilter = "in_stock"
)

// IsValid returns true if the filter is known
func (f StockFilter) IsValid() bool {
	return f == StockAll || f == StockInStock
}

// Query describes one catalog page request
type Query struct {
	Page         int
	PageSize     int
	Search       string
	CategorySlug string
	Sort         SortMode
	Stock        StockFilter
}

// Normalize applies defaults and validates enumerations
func (q Query) Normalize() (Query, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		return q, shared.ErrInvalidInput.WithMessage("Página inválida: " + strconv.Itoa(q.Page))
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	q.CategorySlug = strings.TrimSpace(strings.ToLower(q.CategorySlug))
	if q.Sort == "" {
		q.Sort = SortRelevance
	}
	if !q.Sort.IsValid() {
		return q, shared.ErrInvalidInput.WithMessage("Ordenação inválida: " + string(q.Sort))
	}
	if q.Stock == "" {
		q.Stock = StockAll
	}
	if !q.Stock.IsValid() {
		return q, shared.ErrInvalidInput.WithMessage("Filtro de estoque inválido: " + string(q.Stock))
	}
	return q, nil
}

// SearchKey identifies the fetched page independently of the stock filter,
// which is applied in memory after the fetch.
func (q Query) SearchKey() string {
	return url.Values{
		"q":        {q.Search},
		"category": {q.CategorySlug},
		"sort":     {string(q.Sort)},
		"page":     {strconv.Itoa(q.Page)},
		"size":     {strconv.Itoa(q.PageSize)},
	}.Encode()
}

// SearchResult is one page of stubs plus the server-side total
type SearchResult struct {
	Items []ProductStub
	Total int64
}

// SKUs returns the SKUs of the page in order
func (r SearchResult) SKUs() []string {
	skus := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		skus = append(skus, it.SKU)
	}
	return skus
}
