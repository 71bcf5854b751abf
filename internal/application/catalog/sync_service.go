package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/autopecas/backend/internal/domain/catalog"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/domain/sige"
	"go.uber.org/zap"
)

// DefaultSyncPageSize is the SIGE page size used when none is configured
const DefaultSyncPageSize = 200

// maxSyncPages stops a sync against an upstream that never returns a short page
const maxSyncPages = 10000

// SyncService mirrors the SIGE product catalog into the local search table
type SyncService struct {
	lister   sige.ProductLister
	repo     catalog.ProductRepository
	pageSize int
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

// NewSyncService creates a new product sync service
func NewSyncService(lister sige.ProductLister, repo catalog.ProductRepository, pageSize int, logger *zap.Logger) *SyncService {
	if pageSize <= 0 {
		pageSize = DefaultSyncPageSize
	}
	return &SyncService{lister: lister, repo: repo, pageSize: pageSize, logger: logger, now: time.Now}
}

// Sync pages through SIGE, upserts every product and deactivates the ones
// SIGE no longer lists. Only one sync runs at a time.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, shared.ErrInvalidState.WithMessage("Sincronização de produtos já em andamento")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := s.now()
	result := &SyncResult{}
	seen := make([]string, 0, s.pageSize)

	for page := 1; page <= maxSyncPages; page++ {
		records, err := s.lister.ListProducts(ctx, page, s.pageSize)
		if err != nil {
			s.logger.Error("Product sync aborted",
				zap.Int("page", page),
				zap.Error(err))
			return nil, err
		}
		result.Pages++

		batch := make([]catalog.Product, 0, len(records))
		for _, rec := range records {
			if !rec.Ativo {
				continue
			}
			p, err := catalog.NewProduct(rec.Codigo, rec.Descricao, rec.Categoria, rec.Preco)
			if err != nil {
				result.Skipped++
				s.logger.Debug("Skipping SIGE product", zap.String("codigo", rec.Codigo), zap.Error(err))
				continue
			}
			p.BrandSlug = shared.Slugify(rec.Marca)
			p.SyncedAt = start
			batch = append(batch, *p)
			seen = append(seen, p.SKU)
		}

		if len(batch) > 0 {
			n, err := s.repo.UpsertBatch(ctx, batch)
			if err != nil {
				return nil, err
			}
			result.Upserted += n
		}
		if len(records) < s.pageSize {
			break
		}
	}

	deactivated, err := s.repo.DeactivateMissing(ctx, seen)
	if err != nil {
		return nil, err
	}
	result.Deactivated = deactivated

	s.logger.Info("Product sync finished",
		zap.Int("pages", result.Pages),
		zap.Int64("upserted", result.Upserted),
		zap.Int64("deactivated", result.Deactivated),
		zap.Int("skipped", result.Skipped),
		zap.Duration("elapsed", s.now().Sub(start)))
	return result, nil
}
