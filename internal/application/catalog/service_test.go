package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/autopecas/backend/internal/domain/catalog"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSearcher struct {
	calls  atomic.Int32
	total  int64
	result func(q catalog.Query) []catalog.ProductStub
	err    error
}

func (f *fakeSearcher) Search(ctx context.Context, q catalog.Query) (catalog.SearchResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return catalog.SearchResult{}, f.err
	}
	return catalog.SearchResult{Items: f.result(q), Total: f.total}, nil
}

type balanceFunc func(ctx context.Context, skus []string) (map[string]catalog.Balance, error)

func (f balanceFunc) Balances(ctx context.Context, skus []string) (map[string]catalog.Balance, error) {
	return f(ctx, skus)
}

type priceFunc func(ctx context.Context, skus []string) (map[string]catalog.Price, error)

func (f priceFunc) Prices(ctx context.Context, skus []string) (map[string]catalog.Price, error) {
	return f(ctx, skus)
}

type reviewFunc func(ctx context.Context, skus []string) (map[string]catalog.ReviewSummary, error)

func (f reviewFunc) Summaries(ctx context.Context, skus []string) (map[string]catalog.ReviewSummary, error) {
	return f(ctx, skus)
}

type countingMetrics struct {
	mu       sync.Mutex
	failures []string
	pages    int
}

func (m *countingMetrics) EnrichmentFailed(ctx context.Context, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, kind)
}

func (m *countingMetrics) PageServed(ctx context.Context, elapsed time.Duration, degraded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages++
}

func stubs(skus ...string) []catalog.ProductStub {
	out := make([]catalog.ProductStub, 0, len(skus))
	for _, sku := range skus {
		out = append(out, catalog.ProductStub{SKU: sku, Titulo: "Produto " + sku})
	}
	return out
}

func qty(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func balancesOf(values map[string]int64) balanceFunc {
	return func(ctx context.Context, skus []string) (map[string]catalog.Balance, error) {
		out := make(map[string]catalog.Balance)
		for _, sku := range skus {
			if v, ok := values[sku]; ok {
				out[sku] = catalog.Balance{SKU: sku, Qty: qty(v)}
			}
		}
		return out, nil
	}
}

func pricesOf(skus []string) map[string]catalog.Price {
	out := make(map[string]catalog.Price)
	for i, sku := range skus {
		out[sku] = catalog.Price{SKU: sku, Price: decimal.NewFromInt(int64(10 * (i + 1)))}
	}
	return out
}

func okPrices(ctx context.Context, skus []string) (map[string]catalog.Price, error) {
	return pricesOf(skus), nil
}

func okReviews(ctx context.Context, skus []string) (map[string]catalog.ReviewSummary, error) {
	out := make(map[string]catalog.ReviewSummary)
	for _, sku := range skus {
		out[sku] = catalog.ReviewSummary{SKU: sku, Average: 4.5, Count: 2}
	}
	return out, nil
}

type testDeps struct {
	searcher *fakeSearcher
	balances catalog.BalanceSource
	prices   catalog.PriceSource
	reviews  catalog.ReviewSource
	metrics  *countingMetrics
	logger   *zap.Logger
}

func newTestService(t *testing.T, deps testDeps) (*Service, Caches) {
	t.Helper()
	store := cache.NewMemoryStore(time.Minute, time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	caches := NewCaches(store, time.Minute, time.Minute, zap.NewNop(), nil)
	if deps.logger == nil {
		deps.logger = zap.NewNop()
	}
	var metrics Metrics
	if deps.metrics != nil {
		metrics = deps.metrics
	}
	svc := NewService(ServiceConfig{
		Searcher:      deps.searcher,
		Balances:      deps.balances,
		Prices:        deps.prices,
		Reviews:       deps.reviews,
		Caches:        caches,
		EnrichTimeout: 2 * time.Second,
		Metrics:       metrics,
		Logger:        deps.logger,
	})
	return svc, caches
}

func TestService_Page_ReturnsAllSearchResults(t *testing.T) {
	searcher := &fakeSearcher{total: 53, result: func(q catalog.Query) []catalog.ProductStub {
		return stubs("A", "B", "C")
	}}
	svc, _ := newTestService(t, testDeps{
		searcher: searcher,
		balances: balancesOf(map[string]int64{"A": 3, "B": 0}),
		prices:   priceFunc(okPrices),
		reviews:  reviewFunc(okReviews),
	})

	page, err := svc.Page(context.Background(), PageRequest{Query: catalog.Query{PageSize: 24}})
	require.NoError(t, err)

	require.Len(t, page.Items, 3)
	assert.Equal(t, int64(53), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, catalog.SortRelevance, page.SortMode)
	assert.Equal(t, catalog.StockAll, page.StockFilter)
	assert.Empty(t, page.Degraded)

	assert.Equal(t, []string{"A", "B", "C"}, []string{page.Items[0].SKU, page.Items[1].SKU, page.Items[2].SKU})
	require.NotNil(t, page.Items[0].Balance)
	assert.True(t, page.Items[0].Balance.Qty.Equal(qty(3)))
	assert.Nil(t, page.Items[2].Balance)
	require.NotNil(t, page.Items[1].Price)
	assert.True(t, page.Items[1].Price.Price.Equal(decimal.NewFromInt(20)))
	require.NotNil(t, page.Items[2].Review)
	assert.Equal(t, int64(2), page.Items[2].Review.Count)
}

func TestService_Page_ClampsToConfiguredMaxPageSize(t *testing.T) {
	var seen atomic.Int32
	searcher := &fakeSearcher{total: 1, result: func(q catalog.Query) []catalog.ProductStub {
		seen.Store(int32(q.PageSize))
		return stubs("A")
	}}
	svc, _ := newTestService(t, testDeps{
		searcher: searcher,
		balances: balancesOf(map[string]int64{"A": 1}),
		prices:   priceFunc(okPrices),
		reviews:  reviewFunc(okReviews),
	})
	svc.maxPageSize = 10

	page, err := svc.Page(context.Background(), PageRequest{Query: catalog.Query{PageSize: 50}})
	require.NoError(t, err)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, int32(10), seen.Load())
}

func TestService_Page_EmptyResultSkipsLookups(t *testing.T) {
	var lookups atomic.Int32
	searcher := &fakeSearcher{result: func(q catalog.Query) []catalog.ProductStub { return nil }}
	svc, _ := newTestService(t, testDeps{
		searcher: searcher,
		balances: balanceFunc(func(ctx context.Context, skus []string) (map[string]catalog.Balance, error) {
			lookups.Add(1)
			return nil, nil
		}),
		prices:  priceFunc(okPrices),
		reviews: reviewFunc(okReviews),
	})

	page, err := svc.Page(context.Background(), PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, int32(0), lookups.Load())
}

func TestService_Page_InvalidSort(t *testing.T) {
	searcher := &fakeSearcher{result: func(q catalog.Query) []catalog.ProductStub { return nil }}
	svc, _ := newTestService(t, testDeps{searcher: searcher})

	_, err := svc.Page(context.Background(), PageRequest{Query: catalog.Query{Sort: "cheapest"}})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, int32(0), searcher.calls.Load())
}

func TestService_Page_SearchFailureFailsPage(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("db down")}
	svc, _ := newTestService(t, testDeps{searcher: searcher})

	_, err := svc.Page(context.Background(), PageRequest{})
	assert.Error(t, err)
}

func TestService_Page_InStockFilterReusesFetchedPage(t *testing.T) {
	searcher := &fakeSearcher{total: 4, result: func(q catalog.Query) []catalog.ProductStub {
		return stubs("A", "B", "C", "D")
	}}
	svc, _ := newTestService(t, testDeps{
		searcher: searcher,
		// D has no balance entry and stays visible
		balances: balancesOf(map[string]int64{"A": 5, "B": 0, "C": -1}),
		prices:   priceFunc(okPrices),
		reviews:  reviewFunc(okReviews),
	})
	ctx := context.Background()

	all, err := svc.Page(ctx, PageRequest{Query: catalog.Query{Stock: catalog.StockAll}})
	require.NoError(t, err)
	assert.Len(t, all.Items, 4)

	inStock, err := svc.Page(ctx, PageRequest{Query: catalog.Query{Stock: catalog.StockInStock}})
	require.NoError(t, err)

	skus := make([]string, 0, len(inStock.Items))
	for _, it := range inStock.Items {
		skus = append(skus, it.SKU)
	}
	assert.Equal(t, []string{"A", "D"}, skus)
	assert.Equal(t, int64(4), inStock.Total)
	assert.Equal(t, catalog.StockInStock, inStock.StockFilter)
	assert.Equal(t, int32(1), searcher.calls.Load(), "toggling the stock filter must not search again")
}

func TestService_Page_FailedLookupLeavesMapEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	metrics := &countingMetrics{}
	searcher := &fakeSearcher{total: 2, result: func(q catalog.Query) []catalog.ProductStub {
		return stubs("A", "B")
	}}
	svc, caches := newTestService(t, testDeps{
		searcher: searcher,
		balances: balancesOf(map[string]int64{"A": 1, "B": 1}),
		prices: priceFunc(func(ctx context.Context, skus []string) (map[string]catalog.Price, error) {
			return nil, shared.ErrUpstream.WithMessage("SIGE indisponível")
		}),
		reviews: reviewFunc(okReviews),
		metrics: metrics,
		logger:  zap.New(core),
	})

	page, err := svc.Page(context.Background(), PageRequest{})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, []string{catalog.KindPrices}, page.Degraded)
	for _, it := range page.Items {
		assert.Nil(t, it.Price)
		assert.NotNil(t, it.Balance)
		assert.NotNil(t, it.Review)
	}

	entries := logs.FilterMessage("Catalog enrichment lookup failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, catalog.KindPrices, entries[0].ContextMap()["source"])
	assert.Equal(t, int64(2), entries[0].ContextMap()["sku_count"])
	assert.Equal(t, []string{catalog.KindPrices}, metrics.failures)
	assert.Equal(t, 1, metrics.pages)

	_, ok := caches.Balances.Get(context.Background(), "A")
	assert.True(t, ok, "successful lookups still seed the caches")
	_, ok = caches.Prices.Get(context.Background(), "A")
	assert.False(t, ok)
}

func TestService_Page_ViewChangeCancelsPreviousEnrichment(t *testing.T) {
	searcher := &fakeSearcher{total: 4, result: func(q catalog.Query) []catalog.ProductStub {
		if q.Page == 1 {
			return stubs("P1-A", "P1-B")
		}
		return stubs("P2-A", "P2-B")
	}}

	firstStarted := make(chan struct{})
	var firstCtxErr atomic.Value
	balances := balanceFunc(func(ctx context.Context, skus []string) (map[string]catalog.Balance, error) {
		if skus[0] == "P1-A" {
			close(firstStarted)
			<-ctx.Done()
			firstCtxErr.Store(ctx.Err())
			return nil, ctx.Err()
		}
		return balancesOf(map[string]int64{"P2-A": 1, "P2-B": 1})(ctx, skus)
	})

	svc, caches := newTestService(t, testDeps{
		searcher: searcher,
		balances: balances,
		prices:   priceFunc(okPrices),
		reviews:  reviewFunc(okReviews),
	})
	ctx := context.Background()

	type outcome struct {
		page *Page
		err  error
	}
	first := make(chan outcome, 1)
	go func() {
		p, err := svc.Page(ctx, PageRequest{Query: catalog.Query{Page: 1, PageSize: 2}, ViewKey: "grid"})
		first <- outcome{p, err}
	}()

	select {
	case <-firstStarted:
	case <-time.After(time.Second):
		t.Fatal("first enrichment never started")
	}

	second, err := svc.Page(ctx, PageRequest{Query: catalog.Query{Page: 2, PageSize: 2}, ViewKey: "grid"})
	require.NoError(t, err)
	assert.Empty(t, second.Degraded)

	var res outcome
	select {
	case res = <-first:
	case <-time.After(time.Second):
		t.Fatal("first page was not cancelled")
	}
	require.NoError(t, res.err)
	assert.Contains(t, res.page.Degraded, catalog.KindBalances)
	assert.Equal(t, context.Canceled, firstCtxErr.Load())

	// the superseded run resolved its prices but must not seed them
	_, ok := caches.Prices.Get(ctx, "P1-A")
	assert.False(t, ok, "stale price written by a cancelled run")
	_, ok = caches.Reviews.Get(ctx, "P1-A")
	assert.False(t, ok)

	_, ok = caches.Prices.Get(ctx, "P2-A")
	assert.True(t, ok)
	assert.Equal(t, 0, svc.views.inFlight())
}

func TestService_Page_DifferentViewsDoNotCancel(t *testing.T) {
	searcher := &fakeSearcher{total: 1, result: func(q catalog.Query) []catalog.ProductStub {
		return stubs(fmt.Sprintf("%s-%d", q.Search, q.Page))
	}}
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	balances := balanceFunc(func(ctx context.Context, skus []string) (map[string]catalog.Balance, error) {
		started.Done()
		select {
		case <-release:
			return map[string]catalog.Balance{skus[0]: {SKU: skus[0], Qty: qty(1)}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	svc, _ := newTestService(t, testDeps{
		searcher: searcher,
		balances: balances,
		prices:   priceFunc(okPrices),
		reviews:  reviewFunc(okReviews),
	})

	results := make(chan *Page, 2)
	for _, view := range []string{"home", "search"} {
		go func(view string) {
			p, err := svc.Page(context.Background(), PageRequest{Query: catalog.Query{Search: view}, ViewKey: view})
			if err != nil {
				t.Error(err)
			}
			results <- p
		}(view)
	}
	started.Wait()
	close(release)

	for i := 0; i < 2; i++ {
		p := <-results
		require.NotNil(t, p)
		assert.Empty(t, p.Degraded)
	}
}

func TestService_Page_SameViewFromDifferentClientsDoNotCancel(t *testing.T) {
	searcher := &fakeSearcher{total: 1, result: func(q catalog.Query) []catalog.ProductStub {
		return stubs("VELA-" + q.Search)
	}}
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	prices := priceFunc(func(ctx context.Context, skus []string) (map[string]catalog.Price, error) {
		if skus[0] == "VELA-a" {
			close(firstStarted)
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return pricesOf(skus), nil
	})
	svc, _ := newTestService(t, testDeps{
		searcher: searcher,
		balances: balancesOf(map[string]int64{"VELA-a": 1, "VELA-b": 1}),
		prices:   prices,
		reviews:  reviewFunc(okReviews),
	})

	first := make(chan *Page, 1)
	go func() {
		p, err := svc.Page(context.Background(), PageRequest{
			Query: catalog.Query{Search: "a"}, ViewKey: "grid", ClientID: "ip:10.0.0.1",
		})
		if err != nil {
			t.Error(err)
		}
		first <- p
	}()

	select {
	case <-firstStarted:
	case <-time.After(time.Second):
		t.Fatal("first enrichment never started")
	}

	second, err := svc.Page(context.Background(), PageRequest{
		Query: catalog.Query{Search: "b"}, ViewKey: "grid", ClientID: "ip:10.0.0.2",
	})
	require.NoError(t, err)
	assert.Empty(t, second.Degraded)
	close(release)

	var p *Page
	select {
	case p = <-first:
	case <-time.After(time.Second):
		t.Fatal("first page never finished")
	}
	require.NotNil(t, p)
	assert.Empty(t, p.Degraded)
	require.Len(t, p.Items, 1)
	assert.NotNil(t, p.Items[0].Price)
}

func TestScopedViewKey(t *testing.T) {
	assert.Empty(t, scopedViewKey("ip:10.0.0.1", ""))
	assert.NotEqual(t, scopedViewKey("ip:10.0.0.1", "grid"), scopedViewKey("ip:10.0.0.2", "grid"))
	assert.Equal(t, scopedViewKey("admin:7", "grid"), scopedViewKey("admin:7", "grid"))
}

func TestService_Page_ClientDisconnect(t *testing.T) {
	searcher := &fakeSearcher{total: 1, result: func(q catalog.Query) []catalog.ProductStub { return stubs("A") }}
	ctx, cancel := context.WithCancel(context.Background())
	svc, caches := newTestService(t, testDeps{
		searcher: searcher,
		balances: balanceFunc(func(c context.Context, skus []string) (map[string]catalog.Balance, error) {
			cancel()
			return nil, c.Err()
		}),
		prices:  priceFunc(okPrices),
		reviews: reviewFunc(okReviews),
	})

	page, err := svc.Page(ctx, PageRequest{})
	require.NoError(t, err)
	assert.Contains(t, page.Degraded, catalog.KindBalances)

	_, ok := caches.Prices.Get(context.Background(), "A")
	assert.False(t, ok)
}

func TestService_SingleSKULookups(t *testing.T) {
	var priceCalls atomic.Int32
	searcher := &fakeSearcher{total: 1, result: func(q catalog.Query) []catalog.ProductStub { return stubs("A") }}
	svc, caches := newTestService(t, testDeps{
		searcher: searcher,
		balances: balancesOf(map[string]int64{"A": 2}),
		prices: priceFunc(func(ctx context.Context, skus []string) (map[string]catalog.Price, error) {
			priceCalls.Add(1)
			return pricesOf([]string{"A"}), nil
		}),
		reviews: reviewFunc(func(ctx context.Context, skus []string) (map[string]catalog.ReviewSummary, error) {
			return map[string]catalog.ReviewSummary{}, nil
		}),
	})
	ctx := context.Background()

	t.Run("price served from cache seeded by the page", func(t *testing.T) {
		_, err := svc.Page(ctx, PageRequest{})
		require.NoError(t, err)
		require.Equal(t, int32(1), priceCalls.Load())

		p, err := svc.Price(ctx, "A")
		require.NoError(t, err)
		assert.True(t, p.Price.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, int32(1), priceCalls.Load())
	})

	t.Run("miss falls back to a single SKU call and caches it", func(t *testing.T) {
		caches.Prices.Delete(ctx, "A")
		_, err := svc.Price(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, int32(2), priceCalls.Load())

		_, ok := caches.Prices.Get(ctx, "A")
		assert.True(t, ok)
	})

	t.Run("unknown SKU", func(t *testing.T) {
		_, err := svc.Balance(ctx, "ZZZ")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("empty SKU", func(t *testing.T) {
		_, err := svc.Price(ctx, "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("no reviews yields zero summary", func(t *testing.T) {
		s, err := svc.ReviewSummary(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "A", s.SKU)
		assert.Equal(t, int64(0), s.Count)
	})
}
