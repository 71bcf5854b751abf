package catalog

import "context"

// ProductRepository persists the local product mirror
type ProductRepository interface {
	Searcher

	// FindBySKU finds an active product by SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// UpsertBatch inserts or updates products keyed by SKU
	UpsertBatch(ctx context.Context, products []Product) (int64, error)

	// DeactivateMissing deactivates products whose SKU is not in keep
	DeactivateMissing(ctx context.Context, keep []string) (int64, error)
}

// ReviewRepository serves review summaries from stored reviews
type ReviewRepository interface {
	ReviewSource
}
