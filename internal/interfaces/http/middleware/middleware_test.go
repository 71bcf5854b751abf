package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/autopecas/backend/internal/infrastructure/auth"
	"github.com/autopecas/backend/internal/infrastructure/cache"
	"github.com/autopecas/backend/internal/infrastructure/config"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCORSWithConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://loja.autopecas.com.br"}

	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	t.Run("allowed origin gets headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://loja.autopecas.com.br")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://loja.autopecas.com.br", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://outra.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight answers 204", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "https://loja.autopecas.com.br")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	})
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	t.Run("generates an ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps the client ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(RequestIDHeader, "pedido-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "pedido-123", w.Body.String())
	})

	t.Run("replaces oversized IDs", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", MaxRequestIDLength+1))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Len(t, w.Body.String(), 36)
	})
}

func TestBodyLimit(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), BodyLimit(16))
	router.POST("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(strings.Repeat("x", 64))))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	resp := decode(t, w)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	router := gin.New()
	router.Use(RateLimit(rl))
	router.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)

	w := call("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrCodeRateLimited, decode(t, w).Error.Code)

	assert.Equal(t, http.StatusOK, call("10.0.0.2").Code, "buckets are per client")
}

func newAuthFixture(t *testing.T) (*auth.JWTService, *auth.StoreTokenBlacklist, *gin.Engine) {
	t.Helper()
	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                "middleware-test-secret-32-characters",
		AccessTokenExpiration: time.Hour,
		Issuer:                "autopecas-test",
	})
	blacklist := auth.NewStoreTokenBlacklist(cache.NewMemoryStore(time.Minute, time.Minute))

	router := gin.New()
	router.Use(RequestID())
	router.GET("/admin", AdminAuth(jwtSvc, blacklist, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, GetAdminID(c))
	})
	return jwtSvc, blacklist, router
}

func TestAdminAuth(t *testing.T) {
	jwtSvc, blacklist, router := newAuthFixture(t)
	adminID := uuid.New()
	issued, err := jwtSvc.Issue(auth.Subject{AdminID: adminID, Email: "gerente@autopecas.com.br"})
	require.NoError(t, err)

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set(AuthHeaderKey, header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("missing token answers the session message", func(t *testing.T) {
		w := call("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeSessionExpired, resp.Error.Code)
		assert.Equal(t, "Sessão expirada. Faça login novamente.", resp.Error.Message)
	})

	t.Run("non bearer header counts as missing", func(t *testing.T) {
		w := call("Basic abc")
		assert.Equal(t, dto.ErrCodeSessionExpired, decode(t, w).Error.Code)
	})

	t.Run("garbage token is invalid", func(t *testing.T) {
		w := call("Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decode(t, w).Error.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		past := time.Now().Add(-2 * time.Hour)
		claims := &auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Issuer:    "autopecas-test",
				ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(past),
			},
			AdminID:   adminID.String(),
			TokenType: auth.TokenTypeAccess,
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("middleware-test-secret-32-characters"))
		require.NoError(t, err)

		w := call("Bearer " + signed)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenExpired, decode(t, w).Error.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		w := call("Bearer " + issued.AccessToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, adminID.String(), w.Body.String())
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		require.NoError(t, blacklist.Revoke(t.Context(), issued.ID, time.Hour))

		w := call("Bearer " + issued.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeSessionExpired, decode(t, w).Error.Code)
	})
}

func TestSwaggerGuard(t *testing.T) {
	build := func(enabled bool, guard gin.HandlerFunc) *gin.Engine {
		r := gin.New()
		r.GET("/swagger/index.html", SwaggerGuard(enabled, guard), func(c *gin.Context) { c.String(http.StatusOK, "docs") })
		return r
	}

	w := httptest.NewRecorder()
	build(false, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	build(true, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	w = httptest.NewRecorder()
	build(true, deny).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetupValidator_Slug(t *testing.T) {
	SetupValidator()
	SetupValidator()

	type brand struct {
		Name string `json:"name" binding:"required"`
		Slug string `json:"slug" binding:"omitempty,slug"`
	}

	err := binding.Validator.ValidateStruct(brand{Name: "Bosch", Slug: "bosch-brasil"})
	assert.NoError(t, err)

	err = binding.Validator.ValidateStruct(brand{Name: "Bosch", Slug: "Bosch Brasil"})
	require.Error(t, err)
	details := ValidationDetails(err)
	require.Len(t, details, 1)
	assert.Equal(t, "slug", details[0].Field)
	assert.Equal(t, "Use apenas letras minúsculas, números e hífens", details[0].Message)

	err = binding.Validator.ValidateStruct(brand{})
	details = ValidationDetails(err)
	require.Len(t, details, 1)
	assert.Equal(t, "name", details[0].Field)
	assert.Equal(t, "Campo obrigatório", details[0].Message)
}
