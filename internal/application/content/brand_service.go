package content

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/autopecas/backend/internal/domain/content"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxLogoSize is the largest accepted logo upload
const MaxLogoSize = 2 * 1024 * 1024

var logoExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// BrandService manages storefront brands and their logos
type BrandService struct {
	repo    content.BrandRepository
	storage ObjectStorage
	logger  *zap.Logger
	now     func() time.Time
}

// NewBrandService creates a new brand service
func NewBrandService(repo content.BrandRepository, storage ObjectStorage, logger *zap.Logger) *BrandService {
	return &BrandService{repo: repo, storage: storage, logger: logger, now: time.Now}
}

// List returns a page of brands
func (s *BrandService) List(ctx context.Context, q ListQuery) (shared.Paginated[BrandDTO], error) {
	filter := q.filter()
	if filter.OrderBy == "created_at" && q.OrderBy == "" {
		filter.OrderBy = "position"
		filter.OrderDir = "asc"
	}
	brands, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[BrandDTO]{}, err
	}
	items := make([]BrandDTO, 0, len(brands))
	for i := range brands {
		items = append(items, ToBrandDTO(&brands[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// activeBrandsPageSize is the largest page List serves
const activeBrandsPageSize = 100

// Active returns every active brand for the storefront carousel, reading
// as many list pages as needed.
func (s *BrandService) Active(ctx context.Context) ([]BrandDTO, error) {
	active := true
	var brands []BrandDTO
	for page := 1; ; page++ {
		p, err := s.List(ctx, ListQuery{Page: page, PageSize: activeBrandsPageSize, Active: &active})
		if err != nil {
			return nil, err
		}
		brands = append(brands, p.Items...)
		if len(p.Items) < activeBrandsPageSize || int64(len(brands)) >= p.Total {
			break
		}
	}
	if brands == nil {
		brands = []BrandDTO{}
	}
	return brands, nil
}

// Get returns one brand
func (s *BrandService) Get(ctx context.Context, id uuid.UUID) (*BrandDTO, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToBrandDTO(b)
	return &dto, nil
}

// Create adds a brand; the slug must be unique
func (s *BrandService) Create(ctx context.Context, in content.BrandInput) (*BrandDTO, error) {
	b, err := content.NewBrand(in)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, b.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("Brand created", zap.String("brand_id", b.ID.String()), zap.String("slug", b.Slug))
	dto := ToBrandDTO(b)
	return &dto, nil
}

// Update replaces the editable fields of a brand
func (s *BrandService) Update(ctx context.Context, id uuid.UUID, in content.BrandInput) (*BrandDTO, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.Apply(in); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, b.Slug, b.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	dto := ToBrandDTO(b)
	return &dto, nil
}

// Delete removes a brand and its logo
func (s *BrandService) Delete(ctx context.Context, id uuid.UUID) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeLogo(ctx, b.LogoKey)
	s.logger.Info("Brand deleted", zap.String("brand_id", id.String()))
	return nil
}

// UploadLogo stores a new logo and points the brand at it. The previous
// logo object is removed after the brand is saved.
func (s *BrandService) UploadLogo(ctx context.Context, id uuid.UUID, data []byte, contentType string) (*BrandDTO, error) {
	if len(data) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Arquivo de logo vazio")
	}
	if len(data) > MaxLogoSize {
		return nil, shared.ErrInvalidInput.WithMessage("Logo excede o tamanho máximo de 2 MB")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	contentType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	ext, ok := logoExtensions[contentType]
	if !ok {
		return nil, shared.ErrInvalidInput.WithMessage("Formato de logo não suportado (use PNG, JPEG, WebP ou SVG)")
	}

	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := path.Join("brands", b.Slug+"-"+strconv.FormatInt(s.now().UnixNano(), 36)+ext)
	if err := s.storage.Put(ctx, key, data, contentType); err != nil {
		s.logger.Error("Failed to store brand logo", zap.String("brand_id", id.String()), zap.Error(err))
		return nil, err
	}

	previous := b.LogoKey
	b.SetLogo(key, s.storage.PublicURL(key))
	if err := s.repo.Save(ctx, b); err != nil {
		s.removeLogo(ctx, key)
		return nil, err
	}
	if previous != "" && previous != key {
		s.removeLogo(ctx, previous)
	}

	dto := ToBrandDTO(b)
	return &dto, nil
}

func (s *BrandService) ensureSlugFree(ctx context.Context, slug string, self uuid.UUID) error {
	existing, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return shared.ErrAlreadyExists.WithMessage("Já existe uma marca com o slug " + slug)
	}
	return nil
}

func (s *BrandService) removeLogo(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete brand logo", zap.String("key", key), zap.Error(err))
	}
}
