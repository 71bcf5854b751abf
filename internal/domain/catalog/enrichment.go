package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Balance is the ERP stock position of one SKU
type Balance struct {
	SKU      string          `json:"sku"`
	Qty      decimal.Decimal `json:"qty"`
	Reserved decimal.Decimal `json:"reserved"`
}

// Available returns true if the SKU has sellable stock
func (b Balance) Available() bool {
	return b.Qty.IsPositive()
}

// Price is the current selling price of one SKU
type Price struct {
	SKU        string           `json:"sku"`
	Price      decimal.Decimal  `json:"price"`
	PromoPrice *decimal.Decimal `json:"promo_price,omitempty"`
}

// Effective returns the promotional price when one is set and lower
func (p Price) Effective() decimal.Decimal {
	if p.PromoPrice != nil && p.PromoPrice.IsPositive() && p.PromoPrice.LessThan(p.Price) {
		return *p.PromoPrice
	}
	return p.Price
}

// ReviewSummary aggregates approved reviews of one SKU
type ReviewSummary struct {
	SKU     string  `json:"sku"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// Enrichment kinds, used in logs, metrics and degraded markers
const (
	KindBalances = "balances"
	KindPrices   = "prices"
	KindReviews  = "reviews"
)

// BalanceSource looks up stock balances for many SKUs in one call
type BalanceSource interface {
	Balances(ctx context.Context, skus []string) (map[string]Balance, error)
}

// PriceSource looks up prices for many SKUs in one call
type PriceSource interface {
	Prices(ctx context.Context, skus []string) (map[string]Price, error)
}

// ReviewSource looks up review summaries for many SKUs in one call
type ReviewSource interface {
	Summaries(ctx context.Context, skus []string) (map[string]ReviewSummary, error)
}

// Searcher returns one page of product stubs. Ordering is the searcher's
// responsibility; callers never reorder the result.
type Searcher interface {
	Search(ctx context.Context, q Query) (SearchResult, error)
}
