package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	contentapp "github.com/autopecas/backend/internal/application/content"
	"github.com/autopecas/backend/internal/domain/content"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/infrastructure/storage"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryBrandRepo struct {
	mu     sync.Mutex
	brands map[uuid.UUID]content.Brand
}

func (r *memoryBrandRepo) FindByID(_ context.Context, id uuid.UUID) (*content.Brand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.brands[id]; ok {
		return &b, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryBrandRepo) FindBySlug(_ context.Context, slug string) (*content.Brand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.brands {
		if b.Slug == slug {
			return &b, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryBrandRepo) FindAll(context.Context, shared.Filter) ([]content.Brand, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]content.Brand, 0, len(r.brands))
	for _, b := range r.brands {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *memoryBrandRepo) Save(_ context.Context, b *content.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brands[b.ID] = *b
	return nil
}

func (r *memoryBrandRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.brands, id)
	return nil
}

// minimal PNG signature so content sniffing recognises the upload
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func newBrandEngine(t *testing.T) (*gin.Engine, *memoryBrandRepo, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocalObjectStorage(dir, "/uploads")
	require.NoError(t, err)

	repo := &memoryBrandRepo{brands: make(map[uuid.UUID]content.Brand)}
	h := NewBrandHandler(contentapp.NewBrandService(repo, local, zap.NewNop()))
	r := newEngine()
	r.POST("/admin/brands", h.Create)
	r.POST("/admin/brands/:id/logo", h.UploadLogo)
	return r, repo, dir
}

func multipartLogo(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="logo.png"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestBrandHandler_Create(t *testing.T) {
	r, _, _ := newBrandEngine(t)

	w := perform(r, http.MethodPost, "/admin/brands", bytes.NewBufferString(`{"name":"Bosch Brasil","active":true}`), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"slug":"bosch-brasil"`)

	w = perform(r, http.MethodPost, "/admin/brands", bytes.NewBufferString(`{"name":"Bosch","slug":"Bosch Brasil"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "slug", resp.Error.Details[0].Field)

	w = perform(r, http.MethodPost, "/admin/brands", bytes.NewBufferString(`{"name":"Outra","slug":"bosch-brasil"}`), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, errorCode(t, w))
}

func TestBrandHandler_UploadLogo(t *testing.T) {
	r, repo, dir := newBrandEngine(t)
	brand, err := content.NewBrand(content.BrandInput{Name: "NGK", Active: true})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), brand))
	path := "/admin/brands/" + brand.ID.String() + "/logo"

	t.Run("stores the file and records its URL", func(t *testing.T) {
		body, ct := multipartLogo(t, "image/png", pngBytes)
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out struct {
			Data contentapp.BrandDTO `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.True(t, strings.HasPrefix(out.Data.LogoURL, "/uploads/brands/ngk-"), out.Data.LogoURL)

		stored, err := repo.FindByID(context.Background(), brand.ID)
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(stored.LogoKey)))
		assert.NoError(t, err)
	})

	t.Run("rejects unsupported formats", func(t *testing.T) {
		body, ct := multipartLogo(t, "text/plain", []byte("não é imagem"))
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, errorCode(t, w))
	})

	t.Run("missing file field", func(t *testing.T) {
		w := perform(r, http.MethodPost, path, nil, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidationRequired, errorCode(t, w))
	})

	t.Run("unknown brand", func(t *testing.T) {
		body, ct := multipartLogo(t, "image/png", pngBytes)
		req := httptest.NewRequest(http.MethodPost, "/admin/brands/"+uuid.NewString()+"/logo", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
