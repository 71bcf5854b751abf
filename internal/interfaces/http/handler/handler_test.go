package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/autopecas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

func perform(r http.Handler, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

type bindTarget struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
}

func TestBaseHandler_HandleError(t *testing.T) {
	var h BaseHandler
	r := newEngine()
	r.GET("/domain", func(c *gin.Context) {
		h.HandleError(c, shared.ErrNotFound.WithMessage("Marca não encontrada"))
	})
	r.GET("/wrapped", func(c *gin.Context) {
		h.HandleError(c, errors.Join(errors.New("context"), shared.ErrUpstream))
	})
	r.GET("/plain", func(c *gin.Context) {
		h.HandleError(c, errors.New("connection reset by peer"))
	})

	t.Run("domain error keeps its message", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/domain", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "Marca não encontrada", resp.Error.Message)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("wrapped upstream error maps to 502", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/wrapped", nil, nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, dto.ErrCodeUpstream, errorCode(t, w))
	})

	t.Run("unknown error is hidden behind a 500", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/plain", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "connection reset")
	})
}

func TestBaseHandler_BindJSON(t *testing.T) {
	var h BaseHandler
	r := newEngine()
	r.POST("/bind", func(c *gin.Context) {
		var req bindTarget
		if !h.BindJSON(c, &req) {
			return
		}
		h.Success(c, req)
	})

	t.Run("valid body", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/bind", bytes.NewBufferString(`{"name":"Filtro"}`), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decodeResponse(t, w).Success)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/bind", bytes.NewBufferString(`{"name":`), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, errorCode(t, w))
	})

	t.Run("validation failure lists fields", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/bind", bytes.NewBufferString(`{"email":"x"}`), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"name", "email"}, fields)
	})
}

func TestBaseHandler_ParseUUIDParam(t *testing.T) {
	var h BaseHandler
	r := newEngine()
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := h.ParseUUIDParam(c, "id")
		if !ok {
			return
		}
		h.Success(c, id.String())
	})

	w := perform(r, http.MethodGet, "/items/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, errorCode(t, w))

	w = perform(r, http.MethodGet, "/items/0b6f3a0e-3f3e-4c1e-9d8e-1a2b3c4d5e6f", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy when every check passes", func(t *testing.T) {
		h := NewHealthHandler("1.2.3", map[string]CheckFunc{
			"database": func(context.Context) error { return nil },
		})
		r := newEngine()
		r.GET("/health", h.Health)

		w := perform(r, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"healthy"`)
		assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)
	})

	t.Run("unhealthy when a check fails", func(t *testing.T) {
		h := NewHealthHandler("1.2.3", map[string]CheckFunc{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
		})
		r := newEngine()
		r.GET("/health", h.Health)

		w := perform(r, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
		assert.Contains(t, w.Body.String(), "dial tcp: refused")
	})
}
