package handler

import (
	catalogapp "github.com/autopecas/backend/internal/application/catalog"
	"github.com/autopecas/backend/internal/domain/catalog"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/autopecas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ViewKeyHeader groups requests coming from the same product list
const ViewKeyHeader = "X-Catalog-View"

// CatalogHandler serves the storefront catalog
type CatalogHandler struct {
	BaseHandler
	catalogService *catalogapp.Service
	syncService    *catalogapp.SyncService
}

// NewCatalogHandler creates a new catalog handler. syncService may be nil
// when SIGE is not configured.
func NewCatalogHandler(catalogService *catalogapp.Service, syncService *catalogapp.SyncService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, syncService: syncService}
}

// CatalogPageQuery are the storefront grid parameters
type CatalogPageQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1,max=10000"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"q" binding:"max=200"`
	Category string `form:"category"`
	Sort     string `form:"sort"`
	Stock    string `form:"stock"`
	View     string `form:"view" binding:"max=128"`
}

// ListProducts godoc
// @ID           listCatalogProducts
// @Summary      Catalog page
// @Description  One page of products enriched with balance, price and review summary.
// @Description  Lookups that fail are listed in degraded and their fields omitted.
// @Tags         catalog
// @Produce      json
// @Param        page      query  int     false  "Page (1-based)"
// @Param        page_size query  int     false  "Page size"
// @Param        q         query  string  false  "Search text"
// @Param        category  query  string  false  "Category slug"
// @Param        sort      query  string  false  "relevance, price_asc, price_desc, name_asc, name_desc, newest"
// @Param        stock     query  string  false  "all or in_stock"
// @Param        view      query  string  false  "Product list identifier"
// @Success      200 {object} APIResponse[catalogapp.Page]
// @Failure      400 {object} ErrorResponse
// @Router       /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var q CatalogPageQuery
	if !h.BindQuery(c, &q) {
		return
	}

	viewKey := c.GetHeader(ViewKeyHeader)
	if viewKey == "" {
		viewKey = q.View
	}

	page, err := h.catalogService.Page(c.Request.Context(), catalogapp.PageRequest{
		Query: catalog.Query{
			Page:         q.Page,
			PageSize:     q.PageSize,
			Search:       q.Search,
			CategorySlug: q.Category,
			Sort:         catalog.SortMode(q.Sort),
			Stock:        catalog.StockFilter(q.Stock),
		},
		ViewKey:  viewKey,
		ClientID: catalogClientID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// catalogClientID identifies the caller for view scoping: the admin when
// authenticated, otherwise the client IP.
func catalogClientID(c *gin.Context) string {
	if id := middleware.GetAdminID(c); id != "" {
		return "admin:" + id
	}
	return "ip:" + c.ClientIP()
}

// GetPrice godoc
// @ID           getCatalogPrice
// @Summary      Product price
// @Tags         catalog
// @Produce      json
// @Param        sku path string true "SKU"
// @Success      200 {object} APIResponse[catalog.Price]
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /catalog/products/{sku}/price [get]
func (h *CatalogHandler) GetPrice(c *gin.Context) {
	price, err := h.catalogService.Price(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, price)
}

// GetBalance godoc
// @ID           getCatalogBalance
// @Summary      Product stock balance
// @Tags         catalog
// @Produce      json
// @Param        sku path string true "SKU"
// @Success      200 {object} APIResponse[catalog.Balance]
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /catalog/products/{sku}/balance [get]
func (h *CatalogHandler) GetBalance(c *gin.Context) {
	balance, err := h.catalogService.Balance(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// GetReviewSummary godoc
// @ID           getCatalogReviewSummary
// @Summary      Product review summary
// @Tags         catalog
// @Produce      json
// @Param        sku path string true "SKU"
// @Success      200 {object} APIResponse[catalog.ReviewSummary]
// @Router       /catalog/products/{sku}/reviews/summary [get]
func (h *CatalogHandler) GetReviewSummary(c *gin.Context) {
	summary, err := h.catalogService.ReviewSummary(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Sync godoc
// @ID           syncCatalogProducts
// @Summary      Mirror SIGE products
// @Description  Pages through the SIGE product list and refreshes the local search table
// @Tags         admin-catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[catalogapp.SyncResult]
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/catalog/sync [post]
func (h *CatalogHandler) Sync(c *gin.Context) {
	if h.syncService == nil {
		h.Error(c, dto.ErrCodeInvalidState, "SIGE não configurado")
		return
	}
	result, err := h.syncService.Sync(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
