package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Admin       AdminConfig
	Security    SecurityConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Cache       CacheConfig
	Catalog     CatalogConfig
	Sige        SigeConfig
	MercadoPago MercadoPagoConfig
	Storage     StorageConfig
	Swagger     SwaggerConfig
	Telemetry   TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction returns true when running in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	MigrateOnStart  bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds admin token settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// AdminConfig holds the first admin created on an empty database
type AdminConfig struct {
	BootstrapEmail    string
	BootstrapPassword string
	BootstrapName     string
}

// SecurityConfig holds the key sealing stored third-party secrets
type SecurityConfig struct {
	SecretKey string // base64, 32 bytes once decoded
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// CacheConfig holds the shared SKU cache settings
type CacheConfig struct {
	KeyPrefix   string
	L1TTL       time.Duration
	L2TTL       time.Duration
	L1Cleanup   time.Duration
	PageTTL     time.Duration
	UseFallback bool
}

// CatalogConfig holds storefront catalog settings
type CatalogConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	EnrichTimeout   time.Duration
	SyncPageSize    int
}

// SigeConfig holds SIGE ERP API settings
type SigeConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RequestsPerSec  float64
	Burst           int
	RefreshSkew     time.Duration
	MaxResponseSize int64
}

// MercadoPagoConfig holds Mercado Pago API settings
type MercadoPagoConfig struct {
	BaseURL         string
	Timeout         time.Duration
	NotificationURL string
}

// StorageConfig holds object storage settings for brand logos
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
	LocalDir        string
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	DBTraceEnabled    bool // Enable database query tracing (otelgorm)
	LogsEnabled       bool // Export zap logs through the OTLP log bridge
	ProfilingEnabled  bool
	ProfilingEndpoint string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with AUTOPECAS_ prefix (e.g., AUTOPECAS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("AUTOPECAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			MigrateOnStart:  v.GetBool("database.migrate_on_start"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Admin: AdminConfig{
			BootstrapEmail:    v.GetString("admin.bootstrap_email"),
			BootstrapPassword: v.GetString("admin.bootstrap_password"),
			BootstrapName:     v.GetString("admin.bootstrap_name"),
		},
		Security: SecurityConfig{
			SecretKey: v.GetString("security.secret_key"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Cache: CacheConfig{
			KeyPrefix:   v.GetString("cache.key_prefix"),
			L1TTL:       v.GetDuration("cache.l1_ttl"),
			L2TTL:       v.GetDuration("cache.l2_ttl"),
			L1Cleanup:   v.GetDuration("cache.l1_cleanup"),
			PageTTL:     v.GetDuration("cache.page_ttl"),
			UseFallback: !v.IsSet("cache.use_fallback") || v.GetBool("cache.use_fallback"),
		},
		Catalog: CatalogConfig{
			DefaultPageSize: v.GetInt("catalog.default_page_size"),
			MaxPageSize:     v.GetInt("catalog.max_page_size"),
			EnrichTimeout:   v.GetDuration("catalog.enrich_timeout"),
			SyncPageSize:    v.GetInt("catalog.sync_page_size"),
		},
		Sige: SigeConfig{
			BaseURL:         v.GetString("sige.base_url"),
			Timeout:         v.GetDuration("sige.timeout"),
			RequestsPerSec:  v.GetFloat64("sige.requests_per_sec"),
			Burst:           v.GetInt("sige.burst"),
			RefreshSkew:     v.GetDuration("sige.refresh_skew"),
			MaxResponseSize: v.GetInt64("sige.max_response_size"),
		},
		MercadoPago: MercadoPagoConfig{
			BaseURL:         v.GetString("mercadopago.base_url"),
			Timeout:         v.GetDuration("mercadopago.timeout"),
			NotificationURL: v.GetString("mercadopago.notification_url"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			PublicBaseURL:   v.GetString("storage.public_base_url"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			LocalDir:        v.GetString("storage.local_dir"),
		},
		Swagger: SwaggerConfig{
			Enabled: v.GetBool("swagger.enabled"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingEndpoint: v.GetString("telemetry.profiling_endpoint"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "autopecas-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "autopecas"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 8 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "autopecas-backend"
	}
	if cfg.Admin.BootstrapName == "" {
		cfg.Admin.BootstrapName = "Administrador"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// No wildcard fallback for CORS origins: an empty list allows no cross-origin requests.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Catalog-View"}
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "autopecas:"
	}
	if cfg.Cache.L1TTL == 0 {
		cfg.Cache.L1TTL = 30 * time.Second
	}
	if cfg.Cache.L2TTL == 0 {
		cfg.Cache.L2TTL = 5 * time.Minute
	}
	if cfg.Cache.L1Cleanup == 0 {
		cfg.Cache.L1Cleanup = time.Minute
	}
	if cfg.Cache.PageTTL == 0 {
		cfg.Cache.PageTTL = time.Minute
	}
	if cfg.Catalog.DefaultPageSize == 0 {
		cfg.Catalog.DefaultPageSize = 24
	}
	if cfg.Catalog.MaxPageSize == 0 {
		cfg.Catalog.MaxPageSize = 100
	}
	if cfg.Catalog.EnrichTimeout == 0 {
		cfg.Catalog.EnrichTimeout = 4 * time.Second
	}
	if cfg.Catalog.SyncPageSize == 0 {
		cfg.Catalog.SyncPageSize = 200
	}
	if cfg.Sige.BaseURL == "" {
		cfg.Sige.BaseURL = "https://api.sigecloud.com.br/request"
	}
	if cfg.Sige.Timeout == 0 {
		cfg.Sige.Timeout = 20 * time.Second
	}
	if cfg.Sige.RequestsPerSec == 0 {
		cfg.Sige.RequestsPerSec = 3
	}
	if cfg.Sige.Burst == 0 {
		cfg.Sige.Burst = 5
	}
	if cfg.Sige.RefreshSkew == 0 {
		cfg.Sige.RefreshSkew = time.Minute
	}
	if cfg.Sige.MaxResponseSize == 0 {
		cfg.Sige.MaxResponseSize = 10 << 20 // 10MB
	}
	if cfg.MercadoPago.BaseURL == "" {
		cfg.MercadoPago.BaseURL = "https://api.mercadopago.com"
	}
	if cfg.MercadoPago.Timeout == 0 {
		cfg.MercadoPago.Timeout = 15 * time.Second
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "sa-east-1"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "./uploads"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "autopecas-backend"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 15 * time.Second
	}
	if cfg.Telemetry.ProfilingEndpoint == "" {
		cfg.Telemetry.ProfilingEndpoint = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Catalog.MaxPageSize < 1 || c.Catalog.MaxPageSize > 100 {
		return fmt.Errorf("catalog.max_page_size must be between 1 and 100, got %d", c.Catalog.MaxPageSize)
	}
	if c.Catalog.DefaultPageSize > c.Catalog.MaxPageSize {
		return fmt.Errorf("catalog.default_page_size (%d) cannot exceed catalog.max_page_size (%d)",
			c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	if c.Sige.RequestsPerSec < 0 {
		return fmt.Errorf("sige.requests_per_sec cannot be negative")
	}
	if _, err := url.ParseRequestURI(c.Sige.BaseURL); err != nil {
		return fmt.Errorf("sige.base_url is invalid: %w", err)
	}
	if _, err := url.ParseRequestURI(c.MercadoPago.BaseURL); err != nil {
		return fmt.Errorf("mercadopago.base_url is invalid: %w", err)
	}
	if c.Security.SecretKey != "" {
		if _, err := c.Security.Key(); err != nil {
			return err
		}
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	if c.App.IsProduction() {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Security.SecretKey == "" {
			return fmt.Errorf("security.secret_key is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// Key decodes the secret box key
func (s SecurityConfig) Key() ([32]byte, error) {
	var key [32]byte
	raw, err := base64.StdEncoding.DecodeString(s.SecretKey)
	if err != nil {
		return key, fmt.Errorf("security.secret_key must be base64: %w", err)
	}
	if len(raw) != len(key) {
		return key, fmt.Errorf("security.secret_key must decode to 32 bytes, got %d", len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
