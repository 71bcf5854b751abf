package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecretKey = "MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTIzNDU2Nzg5MDE="

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "autopecas-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "autopecas", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, 24, cfg.Catalog.DefaultPageSize)
		assert.Equal(t, 100, cfg.Catalog.MaxPageSize)
		assert.Equal(t, 4*time.Second, cfg.Catalog.EnrichTimeout)
		assert.Equal(t, "https://api.mercadopago.com", cfg.MercadoPago.BaseURL)
		assert.Equal(t, 3.0, cfg.Sige.RequestsPerSec)
		assert.Equal(t, 5, cfg.Sige.Burst)
		assert.Equal(t, time.Minute, cfg.Sige.RefreshSkew)
		assert.True(t, cfg.Cache.UseFallback)
	})

	t.Run("loads values from environment variables with AUTOPECAS prefix", func(t *testing.T) {
		t.Setenv("AUTOPECAS_APP_NAME", "loja-teste")
		t.Setenv("AUTOPECAS_APP_PORT", "9000")
		t.Setenv("AUTOPECAS_DATABASE_HOST", "db.interno")
		t.Setenv("AUTOPECAS_DATABASE_PORT", "5433")
		t.Setenv("AUTOPECAS_SIGE_BASE_URL", "http://sige.local/api")
		t.Setenv("AUTOPECAS_SIGE_REQUESTS_PER_SEC", "10")
		t.Setenv("AUTOPECAS_CACHE_L2_TTL", "90s")
		t.Setenv("AUTOPECAS_CACHE_USE_FALLBACK", "false")
		t.Setenv("AUTOPECAS_REDIS_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "loja-teste", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.interno", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "http://sige.local/api", cfg.Sige.BaseURL)
		assert.Equal(t, 10.0, cfg.Sige.RequestsPerSec)
		assert.Equal(t, 90*time.Second, cfg.Cache.L2TTL)
		assert.False(t, cfg.Cache.UseFallback)
		assert.True(t, cfg.Redis.Enabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("AUTOPECAS_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("AUTOPECAS_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects default page size above max", func(t *testing.T) {
		t.Setenv("AUTOPECAS_CATALOG_DEFAULT_PAGE_SIZE", "200")
		t.Setenv("AUTOPECAS_CATALOG_MAX_PAGE_SIZE", "100")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog.default_page_size")
	})

	t.Run("rejects max page size above the catalog limit", func(t *testing.T) {
		t.Setenv("AUTOPECAS_CATALOG_MAX_PAGE_SIZE", "500")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog.max_page_size")
	})

	t.Run("rejects malformed secret key", func(t *testing.T) {
		t.Setenv("AUTOPECAS_SECURITY_SECRET_KEY", "c2hvcnQ=")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 bytes")
	})

	t.Run("requires bucket when storage enabled", func(t *testing.T) {
		t.Setenv("AUTOPECAS_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("AUTOPECAS_APP_ENV", "production")
		t.Setenv("AUTOPECAS_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("AUTOPECAS_SECURITY_SECRET_KEY", validSecretKey)
		t.Setenv("AUTOPECAS_DATABASE_PASSWORD", "secure-password")
		t.Setenv("AUTOPECAS_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsProduction())

		key, err := cfg.Security.Key()
		require.NoError(t, err)
		assert.Equal(t, byte('0'), key[0])
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("AUTOPECAS_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires secret key in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("AUTOPECAS_SECURITY_SECRET_KEY", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "security.secret_key is required")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("AUTOPECAS_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "loja", Password: "p@ss:word", DBName: "autopecas", SSLMode: "disable"}
	assert.Equal(t, "postgres://loja:p%40ss%3Aword@db:5432/autopecas?sslmode=disable", d.DSN())
}
