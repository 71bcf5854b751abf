package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/autopecas/backend/internal/application/catalog"
	contentapp "github.com/autopecas/backend/internal/application/content"
	identityapp "github.com/autopecas/backend/internal/application/identity"
	mpapp "github.com/autopecas/backend/internal/application/mercadopago"
	sigeapp "github.com/autopecas/backend/internal/application/sige"
	"github.com/autopecas/backend/internal/infrastructure/auth"
	"github.com/autopecas/backend/internal/infrastructure/cache"
	"github.com/autopecas/backend/internal/infrastructure/config"
	"github.com/autopecas/backend/internal/infrastructure/logger"
	"github.com/autopecas/backend/internal/infrastructure/migration"
	"github.com/autopecas/backend/internal/infrastructure/payment"
	"github.com/autopecas/backend/internal/infrastructure/persistence"
	"github.com/autopecas/backend/internal/infrastructure/secrets"
	"github.com/autopecas/backend/internal/infrastructure/sige"
	"github.com/autopecas/backend/internal/infrastructure/storage"
	"github.com/autopecas/backend/internal/infrastructure/telemetry"
	"github.com/autopecas/backend/internal/interfaces/http/handler"
	"github.com/autopecas/backend/internal/interfaces/http/middleware"
	"github.com/autopecas/backend/internal/interfaces/http/router"
	"github.com/autopecas/backend/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/autopecas/backend/docs"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Autopeças Storefront API
//	@version		1.0
//	@description	Backend da loja de autopeças: catálogo, proxy SIGE, Mercado Pago e conteúdo.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	telemetry.ServiceVersion = version
	providers, err := telemetry.Setup(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	// Rebuild the logger so entries also flow through the OTLP log bridge
	if cfg.Telemetry.LogsEnabled {
		level := logger.ParseLevel(cfg.Log.Level)
		if bridged, err := logger.New(logCfg, providers.LogCore(level)); err == nil {
			log = bridged
		}
	}
	defer func() {
		_ = log.Sync()
	}()
	zap.ReplaceGlobals(log)

	log.Info("Starting Autopeças backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingOptions{Logger: log}); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	sqlDB, err := db.SQL()
	if err != nil {
		log.Fatal("Failed to access sql.DB", zap.Error(err))
	}
	if err := telemetry.RegisterPoolMetrics(providers.Meter("autopecas/database"), sqlDB); err != nil {
		log.Warn("Failed to register pool metrics", zap.Error(err))
	}

	if cfg.Database.MigrateOnStart {
		migrator, err := migration.New(sqlDB, migrations.FS, log)
		if err != nil {
			log.Fatal("Failed to initialize migrator", zap.Error(err))
		}
		if err := migrator.Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	ctx := context.Background()

	store, redisClient, err := cache.NewStoreFactory(cfg.Cache, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.Cache.UseFallback),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()

	key, err := cfg.Security.Key()
	if err != nil {
		log.Fatal("Invalid security key", zap.Error(err))
	}
	sealer := secrets.NewSealer(key)

	// Repositories
	adminRepo := persistence.NewGormAdminUserRepository(db.DB)
	sigeConnRepo := persistence.NewGormSigeConnectionRepository(db.DB)
	mpCredRepo := persistence.NewGormMercadoPagoCredentialRepository(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	brandRepo := persistence.NewGormBrandRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	reviewRepo := persistence.NewGormReviewRepository(db.DB)

	// SIGE
	sigeTransport, err := sige.NewTransport(sige.NewConfig(cfg.Sige), log.Named("sige"))
	if err != nil {
		log.Fatal("Invalid SIGE configuration", zap.Error(err))
	}
	connectionService := sigeapp.NewConnectionService(sigeConnRepo, sige.NewAuthClient(sigeTransport), sealer, cfg.Sige.RefreshSkew, log)
	sigeClient := sige.NewClient(sigeTransport, connectionService)
	proxyService := sigeapp.NewProxyService(sigeClient, log)

	// Mercado Pago
	mpAdapter, err := payment.NewMercadoPagoAdapter(payment.NewMercadoPagoConfig(cfg.MercadoPago), log.Named("mercadopago"))
	if err != nil {
		log.Fatal("Invalid Mercado Pago configuration", zap.Error(err))
	}
	credentialService := mpapp.NewCredentialService(mpCredRepo, mpAdapter, sealer, secrets.Mask, log)
	paymentService := mpapp.NewPaymentService(mpAdapter, credentialService, log)

	// Object storage for brand logos
	var objectStorage contentapp.ObjectStorage
	var uploadsDir string
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Warn("Object storage bucket check failed", zap.Error(err))
		}
		objectStorage = s3Storage
	} else {
		localStorage, err := storage.NewLocalObjectStorage(cfg.Storage.LocalDir, "/uploads")
		if err != nil {
			log.Fatal("Failed to initialize local storage", zap.Error(err))
		}
		objectStorage = localStorage
		uploadsDir = localStorage.Dir()
	}

	// Catalog
	catalogMetrics, err := telemetry.NewCatalogMetrics(providers.Meter("autopecas/catalog"))
	if err != nil {
		log.Fatal("Failed to create catalog metrics", zap.Error(err))
	}
	catalogService := catalogapp.NewService(catalogapp.ServiceConfig{
		Searcher:        productRepo,
		Balances:        sigeClient,
		Prices:          sigeClient,
		Reviews:         reviewRepo,
		Caches:          catalogapp.NewCaches(store, cfg.Cache.PageTTL, cfg.Cache.L2TTL, log, catalogMetrics),
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
		EnrichTimeout:   cfg.Catalog.EnrichTimeout,
		Metrics:         catalogMetrics,
		Logger:          log,
	})
	syncService := catalogapp.NewSyncService(sigeClient, productRepo, cfg.Catalog.SyncPageSize, log)

	// Content
	messageService := contentapp.NewMessageService(messageRepo, log)
	brandService := contentapp.NewBrandService(brandRepo, objectStorage, log)

	// Admin identity
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewStoreTokenBlacklist(store)
	authService := identityapp.NewAuthService(adminRepo, jwtService, blacklist, log)
	created, err := authService.Bootstrap(ctx, identityapp.BootstrapInput{
		Email:    cfg.Admin.BootstrapEmail,
		Password: cfg.Admin.BootstrapPassword,
		Name:     cfg.Admin.BootstrapName,
	})
	if err != nil {
		log.Fatal("Failed to bootstrap admin user", zap.Error(err))
	}
	if created {
		log.Info("Bootstrap admin created", zap.String("email", cfg.Admin.BootstrapEmail))
	}

	checks := map[string]handler.CheckFunc{
		"database": db.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	engine := router.New(router.Handlers{
		Health:      handler.NewHealthHandler(version, checks),
		Auth:        handler.NewAuthHandler(authService),
		Catalog:     handler.NewCatalogHandler(catalogService, syncService),
		Sige:        handler.NewSigeHandler(proxyService, connectionService),
		MercadoPago: handler.NewMercadoPagoHandler(credentialService, paymentService),
		Messages:    handler.NewMessageHandler(messageService),
		Brands:      handler.NewBrandHandler(brandService),
	}, router.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		HTTP:        cfg.HTTP,
		Swagger:     cfg.Swagger,
		Production:  cfg.App.IsProduction(),
		Tracing:     cfg.Telemetry.Enabled,
		UploadsDir:  uploadsDir,
		Logger:      log,
		AdminAuth:   middleware.AdminAuth(jwtService, blacklist, log),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
