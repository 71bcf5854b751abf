package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/autopecas/backend/internal/domain/catalog"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/infrastructure/cache"
	"github.com/autopecas/backend/internal/infrastructure/logger"
	"github.com/autopecas/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Metrics records catalog enrichment outcomes
type Metrics interface {
	EnrichmentFailed(ctx context.Context, kind string)
	PageServed(ctx context.Context, elapsed time.Duration, degraded bool)
}

type noopMetrics struct{}

func (noopMetrics) EnrichmentFailed(context.Context, string)        {}
func (noopMetrics) PageServed(context.Context, time.Duration, bool) {}

// Caches groups the shared caches of the catalog
type Caches struct {
	Pages    *cache.Typed[catalog.SearchResult]
	Balances *cache.Typed[catalog.Balance]
	Prices   *cache.Typed[catalog.Price]
	Reviews  *cache.Typed[catalog.ReviewSummary]
}

// NewCaches creates the catalog caches over one store
func NewCaches(store cache.Store, pageTTL, skuTTL time.Duration, log *zap.Logger, observer cache.Observer) Caches {
	return Caches{
		Pages:    cache.NewTyped[catalog.SearchResult](store, "catalog:page", pageTTL, log, observer),
		Balances: cache.NewTyped[catalog.Balance](store, "catalog:balance", skuTTL, log, observer),
		Prices:   cache.NewTyped[catalog.Price](store, "catalog:price", skuTTL, log, observer),
		Reviews:  cache.NewTyped[catalog.ReviewSummary](store, "catalog:review", skuTTL, log, observer),
	}
}

// ServiceConfig contains the dependencies of Service
type ServiceConfig struct {
	Searcher        catalog.Searcher
	Balances        catalog.BalanceSource
	Prices          catalog.PriceSource
	Reviews         catalog.ReviewSource
	Caches          Caches
	DefaultPageSize int
	MaxPageSize     int
	EnrichTimeout   time.Duration
	Metrics         Metrics
	Logger          *zap.Logger
}

// Service serves enriched storefront catalog pages
type Service struct {
	searcher        catalog.Searcher
	balances        catalog.BalanceSource
	prices          catalog.PriceSource
	reviews         catalog.ReviewSource
	caches          Caches
	defaultPageSize int
	maxPageSize     int
	enrichTimeout   time.Duration
	metrics         Metrics
	logger          *zap.Logger
	views           *viewRegistry
	now             func() time.Time
}

// NewService creates a new catalog service
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		searcher:        cfg.Searcher,
		balances:        cfg.Balances,
		prices:          cfg.Prices,
		reviews:         cfg.Reviews,
		caches:          cfg.Caches,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
		enrichTimeout:   cfg.EnrichTimeout,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
		views:           newViewRegistry(),
		now:             time.Now,
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// enrichment holds the three lookup results of one page. Each goroutine
// writes only its own map.
type enrichment struct {
	balances map[string]catalog.Balance
	prices   map[string]catalog.Price
	reviews  map[string]catalog.ReviewSummary

	balancesErr error
	pricesErr   error
	reviewsErr  error
}

func (e *enrichment) degraded() []string {
	degraded := make([]string, 0, 3)
	if e.balancesErr != nil {
		degraded = append(degraded, catalog.KindBalances)
	}
	if e.pricesErr != nil {
		degraded = append(degraded, catalog.KindPrices)
	}
	if e.reviewsErr != nil {
		degraded = append(degraded, catalog.KindReviews)
	}
	return degraded
}

// Page returns one catalog page with balances, prices and review summaries.
// Enrichment failures never fail the page; they are reported in Degraded.
func (s *Service) Page(ctx context.Context, req PageRequest) (*Page, error) {
	start := s.now()
	if req.Query.PageSize <= 0 && s.defaultPageSize > 0 {
		req.Query.PageSize = s.defaultPageSize
	}
	if s.maxPageSize > 0 && req.Query.PageSize > s.maxPageSize {
		req.Query.PageSize = s.maxPageSize
	}
	q, err := req.Query.Normalize()
	if err != nil {
		return nil, err
	}

	result, err := s.search(ctx, q)
	if err != nil {
		return nil, err
	}

	skus := result.SKUs()
	var enr enrichment
	if len(skus) > 0 {
		enr = s.enrich(ctx, req.ClientID, req.ViewKey, skus)
	}

	items := make([]Item, 0, len(result.Items))
	for _, stub := range result.Items {
		item := Item{SKU: stub.SKU, Titulo: stub.Titulo}
		if b, ok := enr.balances[stub.SKU]; ok {
			item.Balance = &b
		}
		if p, ok := enr.prices[stub.SKU]; ok {
			item.Price = &p
		}
		if r, ok := enr.reviews[stub.SKU]; ok {
			item.Review = &r
		}
		if q.Stock == catalog.StockInStock && !item.InStock() {
			continue
		}
		items = append(items, item)
	}

	page := &Page{
		Items:       items,
		Page:        q.Page,
		PageSize:    q.PageSize,
		Total:       result.Total,
		TotalPages:  shared.TotalPages(result.Total, q.PageSize),
		SortMode:    q.Sort,
		StockFilter: q.Stock,
		Degraded:    enr.degraded(),
	}
	s.metrics.PageServed(ctx, s.now().Sub(start), len(page.Degraded) > 0)
	return page, nil
}

// search returns the page stubs, memoized by the query without the stock filter
func (s *Service) search(ctx context.Context, q catalog.Query) (catalog.SearchResult, error) {
	key := q.SearchKey()
	if s.caches.Pages != nil {
		if cached, ok := s.caches.Pages.Get(ctx, key); ok {
			return cached, nil
		}
	}
	result, err := s.searcher.Search(ctx, q)
	if err != nil {
		s.log(ctx).Error("Catalog search failed", zap.String("search_key", key), zap.Error(err))
		return catalog.SearchResult{}, err
	}
	if s.caches.Pages != nil {
		s.caches.Pages.Set(ctx, key, result)
	}
	return result, nil
}

// enrich runs the three bulk lookups concurrently and seeds the SKU caches
// when the run is still current for its view.
func (s *Service) enrich(parent context.Context, clientID, viewKey string, skus []string) enrichment {
	ctx, span := telemetry.StartSpan(parent, "catalog.enrich",
		attribute.Int("catalog.sku_count", len(skus)),
		attribute.String("catalog.view", viewKey))
	defer span.End()

	ctx, run := s.views.begin(ctx, scopedViewKey(clientID, viewKey))
	defer s.views.end(run)
	if s.enrichTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.enrichTimeout)
		defer cancel()
	}

	var enr enrichment
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		enr.balances, enr.balancesErr = s.balances.Balances(ctx, skus)
	}()
	go func() {
		defer wg.Done()
		enr.prices, enr.pricesErr = s.prices.Prices(ctx, skus)
	}()
	go func() {
		defer wg.Done()
		enr.reviews, enr.reviewsErr = s.reviews.Summaries(ctx, skus)
	}()
	wg.Wait()

	s.checkLookup(ctx, catalog.KindBalances, len(skus), &enr.balancesErr, func() { enr.balances = nil })
	s.checkLookup(ctx, catalog.KindPrices, len(skus), &enr.pricesErr, func() { enr.prices = nil })
	s.checkLookup(ctx, catalog.KindReviews, len(skus), &enr.reviewsErr, func() { enr.reviews = nil })

	seeded := run.seed(ctx, func() {
		writeCtx := context.WithoutCancel(ctx)
		if s.caches.Balances != nil {
			s.caches.Balances.SetMany(writeCtx, enr.balances)
		}
		if s.caches.Prices != nil {
			s.caches.Prices.SetMany(writeCtx, enr.prices)
		}
		if s.caches.Reviews != nil {
			s.caches.Reviews.SetMany(writeCtx, enr.reviews)
		}
	})
	span.SetAttributes(
		attribute.StringSlice("catalog.degraded", enr.degraded()),
		attribute.Bool("catalog.seeded", seeded))
	if !seeded {
		s.log(parent).Debug("Catalog enrichment superseded, caches not seeded",
			zap.String("view", viewKey),
			zap.Uint64("generation", run.gen))
	}
	return enr
}

// checkLookup logs a failed lookup and empties its map. A run cancelled
// because its view moved on is not counted as a failure.
func (s *Service) checkLookup(ctx context.Context, kind string, count int, errp *error, reset func()) {
	if *errp == nil {
		return
	}
	reset()
	if ctx.Err() == context.Canceled {
		return
	}
	s.log(ctx).Warn("Catalog enrichment lookup failed",
		zap.String("source", kind),
		zap.Int("sku_count", count),
		zap.Error(*errp))
	s.metrics.EnrichmentFailed(ctx, kind)
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	if id := logger.GetRequestID(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

// Balance returns the stock balance of one SKU, cache first
func (s *Service) Balance(ctx context.Context, sku string) (*catalog.Balance, error) {
	return lookupOne(ctx, s.caches.Balances, sku, s.balances.Balances, "Saldo não encontrado para o SKU ")
}

// Price returns the price of one SKU, cache first
func (s *Service) Price(ctx context.Context, sku string) (*catalog.Price, error) {
	return lookupOne(ctx, s.caches.Prices, sku, s.prices.Prices, "Preço não encontrado para o SKU ")
}

// ReviewSummary returns the review summary of one SKU, cache first.
// A SKU without approved reviews has a zero summary.
func (s *Service) ReviewSummary(ctx context.Context, sku string) (*catalog.ReviewSummary, error) {
	summary, err := lookupOne(ctx, s.caches.Reviews, sku, s.reviews.Summaries, "")
	if errors.Is(err, shared.ErrNotFound) {
		return &catalog.ReviewSummary{SKU: sku}, nil
	}
	return summary, err
}

func lookupOne[T any](
	ctx context.Context,
	c *cache.Typed[T],
	sku string,
	fetch func(context.Context, []string) (map[string]T, error),
	notFound string,
) (*T, error) {
	if sku == "" {
		return nil, shared.ErrInvalidInput.WithMessage("SKU é obrigatório")
	}
	if c != nil {
		if v, ok := c.Get(ctx, sku); ok {
			return &v, nil
		}
	}
	values, err := fetch(ctx, []string{sku})
	if err != nil {
		return nil, err
	}
	v, ok := values[sku]
	if !ok {
		return nil, shared.ErrNotFound.WithMessage(notFound + sku)
	}
	if c != nil {
		c.Set(ctx, sku, v)
	}
	return &v, nil
}
