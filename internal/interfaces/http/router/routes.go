package router

import (
	"net/http"

	"github.com/autopecas/backend/internal/infrastructure/config"
	"github.com/autopecas/backend/internal/infrastructure/logger"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/autopecas/backend/internal/interfaces/http/handler"
	"github.com/autopecas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers served by the API
type Handlers struct {
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Catalog     *handler.CatalogHandler
	Sige        *handler.SigeHandler
	MercadoPago *handler.MercadoPagoHandler
	Messages    *handler.MessageHandler
	Brands      *handler.BrandHandler
}

// Options configure the engine around the handlers
type Options struct {
	ServiceName string
	HTTP        config.HTTPConfig
	Swagger     config.SwaggerConfig
	Production  bool
	Tracing     bool
	// UploadsDir serves locally stored files under /uploads when set
	UploadsDir string
	Logger     *zap.Logger
	AdminAuth  gin.HandlerFunc
}

// New builds the gin engine with the middleware chain and every route
func New(h Handlers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, ignoring", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	cors := middleware.DefaultCORSConfig()
	if len(opts.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = opts.HTTP.CORSAllowOrigins
	}
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}

	engine.Use(middleware.RequestID())
	if opts.Tracing {
		engine.Use(middleware.Tracing(opts.ServiceName), middleware.SpanAttributes())
	}
	engine.Use(
		logger.GinMiddleware(log, "/health"),
		logger.Recovery(log),
		middleware.Secure(opts.Production),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(opts.HTTP.MaxBodySize),
	)
	if opts.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(opts.HTTP.RateLimitRequests, opts.HTTP.RateLimitWindow)))
	}

	engine.NoRoute(func(c *gin.Context) {
		var base handler.BaseHandler
		base.Error(c, dto.ErrCodeNotFound, "Rota não encontrada")
	})

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}
	if opts.UploadsDir != "" {
		engine.StaticFS("/uploads", gin.Dir(opts.UploadsDir, false))
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerGuard(opts.Swagger.Enabled, swaggerAuth(opts)),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine)
	r.Register(publicRoutes(h), adminRoutes(h, opts.AdminAuth))
	if h.MercadoPago != nil {
		r.Register(NewDomainGroup("webhooks", "/webhooks").POST("/mercadopago", h.MercadoPago.Webhook))
	}
	r.Setup()
	return engine
}

func swaggerAuth(opts Options) gin.HandlerFunc {
	if opts.Production {
		return opts.AdminAuth
	}
	return nil
}

func publicRoutes(h Handlers) *DomainGroup {
	public := NewDomainGroup("public", "")

	if h.Catalog != nil {
		public.Group("catalog", "/catalog").
			GET("/products", h.Catalog.ListProducts).
			GET("/products/:sku/price", h.Catalog.GetPrice).
			GET("/products/:sku/balance", h.Catalog.GetBalance).
			GET("/products/:sku/reviews/summary", h.Catalog.GetReviewSummary)
	}

	storefront := public.Group("storefront", "/storefront")
	if h.Messages != nil {
		storefront.GET("/messages", h.Messages.Visible)
	}
	if h.Brands != nil {
		storefront.GET("/brands", h.Brands.Active)
	}

	if h.Auth != nil {
		public.Group("auth", "/auth").POST("/login", h.Auth.Login)
	}
	return public
}

func adminRoutes(h Handlers, adminAuth gin.HandlerFunc) *DomainGroup {
	if adminAuth == nil {
		adminAuth = func(c *gin.Context) {
			c.AbortWithStatus(http.StatusUnauthorized)
		}
	}

	protected := NewDomainGroup("protected", "").Use(adminAuth, middleware.NoStore())

	if h.Auth != nil {
		protected.Group("auth", "/auth").
			GET("/me", h.Auth.Me).
			POST("/logout", h.Auth.Logout)
	}

	admin := protected.Group("admin", "/admin")

	if h.Sige != nil {
		admin.Group("sige", "/sige").
			GET("/resources", h.Sige.Resources).
			GET("/:resource", h.Sige.Search).
			POST("/:resource", h.Sige.Create).
			PUT("/:resource", h.Sige.Update).
			PUT("/:resource/:key", h.Sige.Update).
			DELETE("/:resource/:key", h.Sige.Delete)

		admin.Group("sige-connection", "/sige-connection").
			GET("", h.Sige.ConnectionStatus).
			DELETE("", h.Sige.Disconnect).
			POST("/connect", h.Sige.Connect).
			POST("/refresh", h.Sige.Refresh)
	}

	if h.Catalog != nil {
		admin.Group("catalog", "/catalog").POST("/sync", h.Catalog.Sync)
	}

	if h.MercadoPago != nil {
		admin.Group("mercadopago", "/mercadopago").
			GET("/credentials", h.MercadoPago.GetCredentials).
			PUT("/credentials", h.MercadoPago.SaveCredentials).
			DELETE("/credentials", h.MercadoPago.DeleteCredentials).
			POST("/credentials/test", h.MercadoPago.TestCredentials).
			GET("/payment-methods", h.MercadoPago.PaymentMethods).
			POST("/preferences", h.MercadoPago.CreatePreference).
			GET("/payments", h.MercadoPago.SearchPayments).
			GET("/payments/:id", h.MercadoPago.GetPayment)
	}

	if h.Messages != nil {
		admin.Group("messages", "/messages").
			GET("", h.Messages.List).
			POST("", h.Messages.Create).
			GET("/:id", h.Messages.Get).
			PUT("/:id", h.Messages.Update).
			DELETE("/:id", h.Messages.Delete)
	}

	if h.Brands != nil {
		admin.Group("brands", "/brands").
			GET("", h.Brands.List).
			POST("", h.Brands.Create).
			GET("/:id", h.Brands.Get).
			PUT("/:id", h.Brands.Update).
			DELETE("/:id", h.Brands.Delete).
			POST("/:id/logo", h.Brands.UploadLogo)
	}

	return protected
}
